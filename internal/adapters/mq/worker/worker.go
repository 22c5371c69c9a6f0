package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/okian/swimrate/internal/adapters/mq/queue"
	"github.com/okian/swimrate/internal/domain/model"
	"github.com/okian/swimrate/pkg/logger"
	"github.com/okian/swimrate/pkg/metrics"
)

// Scorer computes one recruit's rating.
type Scorer interface {
	Score(ctx context.Context, r model.Recruit) (model.Rating, error)
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(ctx context.Context, r model.Recruit) (model.Rating, error)

// Score implements Scorer.
func (f ScorerFunc) Score(ctx context.Context, r model.Recruit) (model.Rating, error) {
	return f(ctx, r)
}

// Outcome is the result of one job. Err is set when scoring failed.
type Outcome struct {
	Recruit model.Recruit
	Rating  model.Rating
	Err     error
}

// Pool runs a fixed number of workers over a job queue.
type Pool struct {
	scorer      Scorer
	workerCount int
	logger      logger.Logger
}

// NewPool creates a pool. One worker is the default.
func NewPool(scorer Scorer, opts ...Option) *Pool {
	p := &Pool{
		scorer:      scorer,
		workerCount: 1,
		logger:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Workers returns the configured worker count.
func (p *Pool) Workers() int { return p.workerCount }

// Run scores every recruit and returns outcomes in roster order. The result
// does not depend on the worker count. Run returns early only if ctx is
// canceled.
func (p *Pool) Run(ctx context.Context, recruits []model.Recruit) ([]Outcome, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRunDuration(float64(time.Since(start).Milliseconds()))
	}()

	q := queue.NewInMemoryQueue(queue.WithCapacity(max(1, len(recruits))))
	for i, r := range recruits {
		if !q.Enqueue(ctx, queue.Job{Index: i, Recruit: r}) {
			return nil, fmt.Errorf("enqueue recruit %q: %w", r.Name, context.Cause(ctx))
		}
	}
	if err := q.Close(); err != nil {
		return nil, err
	}

	workers := min(p.workerCount, max(1, len(recruits)))
	metrics.UpdateWorkerCount(workers)

	out := make([]Outcome, len(recruits))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		w := &worker{
			name:   "worker-" + strconv.Itoa(i),
			scorer: p.scorer,
			logger: p.logger.Named("worker-" + strconv.Itoa(i)),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.run(ctx, q, out)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// worker drains a queue into a shared outcome slice. Each job owns a
// distinct index, so writes never overlap.
type worker struct {
	name   string
	scorer Scorer
	logger logger.Logger
}

func (w *worker) run(ctx context.Context, q queue.Queue, out []Outcome) {
	jobs := q.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			out[j.Index] = w.process(ctx, j)
		}
	}
}

func (w *worker) process(ctx context.Context, j queue.Job) Outcome {
	rating, err := w.scorer.Score(ctx, j.Recruit)
	if err != nil {
		metrics.RecordWorkerError()
		w.logger.Debug(ctx, "scoring failed",
			logger.String("recruit", j.Recruit.Name),
			logger.Error(err),
		)
		return Outcome{Recruit: j.Recruit, Err: err}
	}
	metrics.RecordRecruitScored()
	return Outcome{Recruit: j.Recruit, Rating: rating}
}
