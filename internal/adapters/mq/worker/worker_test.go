package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	worker "github.com/okian/swimrate/internal/adapters/mq/worker"
	model "github.com/okian/swimrate/internal/domain/model"
	logging "github.com/okian/swimrate/pkg/logger"
)

var errMissing = errors.New("missing")

func recruits(n int) []model.Recruit {
	out := make([]model.Recruit, n)
	for i := range out {
		out[i] = model.Recruit{Name: fmt.Sprintf("recruit-%02d", i), Events: []string{"50 FR SCY"}}
	}
	return out
}

// slowScorer scores by name length with a jitter so workers finish out of order.
func slowScorer(calls *atomic.Int64) worker.ScorerFunc {
	return func(_ context.Context, r model.Recruit) (model.Rating, error) {
		n := calls.Add(1)
		time.Sleep(time.Duration(n%3) * time.Millisecond)
		if r.Name == "recruit-03" {
			return model.Rating{}, errMissing
		}
		return model.Rating{Name: r.Name, Raw: float64(len(r.Name))}, nil
	}
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		ctx := context.Background()
		var calls atomic.Int64

		for _, workers := range []int{1, 4, 16} {
			convey.Convey(fmt.Sprintf("When %d workers score ten recruits", workers), func() {
				pool := worker.NewPool(slowScorer(&calls), worker.WithWorkers(workers), worker.WithLogger(logging.Nop()))
				out, err := pool.Run(ctx, recruits(10))

				convey.Convey("Then outcomes come back in roster order", func() {
					convey.So(err, convey.ShouldBeNil)
					convey.So(out, convey.ShouldHaveLength, 10)
					for i, o := range out {
						convey.So(o.Recruit.Name, convey.ShouldEqual, fmt.Sprintf("recruit-%02d", i))
						if i == 3 {
							convey.So(errors.Is(o.Err, errMissing), convey.ShouldBeTrue)
							continue
						}
						convey.So(o.Err, convey.ShouldBeNil)
						convey.So(o.Rating.Name, convey.ShouldEqual, o.Recruit.Name)
					}
				})
			})
		}

		convey.Convey("When there are no recruits", func() {
			out, err := worker.NewPool(slowScorer(&calls), worker.WithWorkers(4)).Run(ctx, nil)

			convey.Convey("Then nothing is returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When the context is canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := worker.NewPool(slowScorer(&calls)).Run(cctx, recruits(3))

			convey.Convey("Then the run fails", func() {
				convey.So(errors.Is(err, context.Canceled), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When constructed with an invalid worker count", func() {
			pool := worker.NewPool(slowScorer(&calls), worker.WithWorkers(0))

			convey.Convey("Then one worker is used", func() {
				convey.So(pool.Workers(), convey.ShouldEqual, 1)
			})
		})
	})
}
