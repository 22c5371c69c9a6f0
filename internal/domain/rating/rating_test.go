package rating_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/swimrate/internal/adapters/repository"
	"github.com/okian/swimrate/internal/domain/model"
	"github.com/okian/swimrate/internal/domain/rating"
	"github.com/okian/swimrate/pkg/logger"
)

const (
	freestyle = "50 FR SCY"
	fly       = "100 FL SCY"
	epsilon   = 1e-9
)

func dataset(ctx context.Context, rows map[string]map[int]float64) *repository.Dataset {
	d := repository.NewDataset(repository.WithReferenceYear(2021))
	// Everyone swam their 17 season in 2021 so anchors line up.
	for _, name := range []string{"A", "B", "C", "X", "Y", "Z", "Old"} {
		for age := 10; age <= 20; age++ {
			if t, ok := rows[name][age]; ok {
				_ = d.Observe(ctx, model.Result{Name: name, Age: age, Event: freestyle, Year: 2021 - 17 + age, Time: t})
			}
		}
	}
	return d
}

var (
	dominant = map[int]float64{13: 40, 14: 36, 15: 33, 16: 31, 17: 30}
	modest   = map[int]float64{13: 40, 14: 39, 15: 38, 16: 37, 17: 36.5}
)

func TestZScore(t *testing.T) {
	Convey("Given two swimmers where A improves more than B at every pair", t, func() {
		ctx := context.Background()
		d := dataset(ctx, map[string]map[int]float64{"A": dominant, "B": modest})
		z := rating.NewZScore()

		Convey("When both are scored", func() {
			a, errA := z.Score(ctx, d, model.Recruit{Name: "A", Events: []string{freestyle}, Category: "sprint"})
			b, errB := z.Score(ctx, d, model.Recruit{Name: "B", Events: []string{freestyle}})

			Convey("Then each pair standardizes to plus or minus one over root two", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(a.Category, ShouldEqual, "sprint")
				So(a.Events, ShouldHaveLength, 1)
				So(a.Events[0].CohortSize, ShouldEqual, 2)
				for _, pc := range a.Events[0].Pairs {
					So(pc.Value, ShouldAlmostEqual, math.Sqrt2/2, epsilon)
					So(pc.Samples, ShouldEqual, 2)
					So(pc.Guarded, ShouldBeFalse)
				}
				want := math.Sqrt2 / 2 * (1 + 0.8 + 0.64 + 0.512)
				So(a.Raw, ShouldAlmostEqual, want, epsilon)
				So(b.Raw, ShouldAlmostEqual, -want, epsilon)
				So(a.Raw, ShouldBeGreaterThan, b.Raw)
			})
		})
	})

	Convey("Given a recruit alone in their cohort", t, func() {
		ctx := context.Background()
		d := dataset(ctx, map[string]map[int]float64{"A": dominant})

		Convey("When scored with the default guard", func() {
			r, err := rating.NewZScore().Score(ctx, d, model.Recruit{Name: "A", Events: []string{freestyle}})

			Convey("Then mean zero and stddev 100 are used", func() {
				So(err, ShouldBeNil)
				So(r.Raw, ShouldAlmostEqual, 0.01+0.02*0.8+0.03*0.64+0.04*0.512, epsilon)
				So(r.Events[0].Pairs[0].Guarded, ShouldBeTrue)
				So(r.Events[0].Pairs[0].StdDev, ShouldEqual, 100.0)
			})
		})

		Convey("When the guard is configured", func() {
			r, err := rating.NewZScore(rating.WithSmallSample(1, 10)).Score(ctx, d, model.Recruit{Name: "A", Events: []string{freestyle}})

			Convey("Then the configured values are used", func() {
				So(err, ShouldBeNil)
				So(r.Events[0].Pairs[0].Value, ShouldAlmostEqual, 0, epsilon)
				So(r.Events[0].Pairs[3].Value, ShouldAlmostEqual, 0.3, epsilon)
			})
		})
	})

	Convey("Given two peers with identical improvements", t, func() {
		ctx := context.Background()
		d := dataset(ctx, map[string]map[int]float64{"A": dominant, "B": dominant})

		Convey("When A is scored", func() {
			r, err := rating.NewZScore().Score(ctx, d, model.Recruit{Name: "A", Events: []string{freestyle}})

			Convey("Then the cohort mean is kept and the guard deviation replaces zero", func() {
				So(err, ShouldBeNil)
				So(r.Events, ShouldHaveLength, 1)
				So(r.Events[0].Pairs, ShouldHaveLength, 4)
				for _, pc := range r.Events[0].Pairs {
					So(pc.Guarded, ShouldBeTrue)
					So(pc.Samples, ShouldEqual, 2)
					So(pc.Mean, ShouldAlmostEqual, dominant[pc.Pair.Younger]-dominant[pc.Pair.Older], epsilon)
					So(pc.StdDev, ShouldEqual, 100.0)
					So(pc.Value, ShouldAlmostEqual, 0.0, epsilon)
				}
				So(r.Raw, ShouldAlmostEqual, 0.0, epsilon)
			})
		})
	})

	Convey("Given a recruit with a missing age", t, func() {
		ctx := context.Background()
		d := dataset(ctx, map[string]map[int]float64{"C": {13: 40, 14: 36, 16: 31, 17: 30}})

		Convey("When scored", func() {
			r, err := rating.NewZScore().Score(ctx, d, model.Recruit{Name: "C", Events: []string{fly, freestyle}})

			Convey("Then only defined pairs and events advance the exponents", func() {
				So(err, ShouldBeNil)
				So(r.Events, ShouldHaveLength, 1)
				So(r.Events[0].Weight, ShouldEqual, 1.0)
				So(r.Events[0].Pairs, ShouldHaveLength, 2)
				So(r.Events[0].Pairs[1].Pair, ShouldResemble, model.AgePair{Younger: 13, Older: 14})
				So(r.Events[0].Pairs[1].Weight, ShouldAlmostEqual, 0.8, epsilon)
				So(r.Raw, ShouldAlmostEqual, 0.01+0.04*0.8, epsilon)
				So(r.HasData(), ShouldBeTrue)
			})
		})
	})

	Convey("Given an unknown recruit", t, func() {
		ctx := context.Background()
		d := dataset(ctx, map[string]map[int]float64{"A": dominant})

		Convey("Then the lookup error is returned", func() {
			_, err := rating.NewZScore().Score(ctx, d, model.Recruit{Name: "Ghost", Events: []string{freestyle}})
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

			_, err = rating.NewZScore().Score(ctx, d, model.Recruit{})
			So(errors.Is(err, rating.ErrNilRecruit), ShouldBeTrue)
		})
	})

	Convey("Given a shifted population", t, func() {
		ctx := context.Background()
		shifted := make(map[int]float64)
		for age, v := range modest {
			shifted[age] = v + 5
		}
		base := dataset(ctx, map[string]map[int]float64{"A": dominant, "B": modest})
		moved := dataset(ctx, map[string]map[int]float64{"A": dominant, "B": shifted})

		Convey("Then improvements, not absolute times, drive the score", func() {
			r1, _ := rating.NewZScore().Score(ctx, base, model.Recruit{Name: "A", Events: []string{freestyle}})
			r2, _ := rating.NewZScore().Score(ctx, moved, model.Recruit{Name: "A", Events: []string{freestyle}})
			So(r2.Raw, ShouldAlmostEqual, r1.Raw, epsilon)
		})
	})
}

func TestPercentile(t *testing.T) {
	Convey("Given three swimmers whose order changes between 16 and 17", t, func() {
		ctx := context.Background()
		d := dataset(ctx, map[string]map[int]float64{
			"X": {16: 30, 17: 25},
			"Y": {16: 28, 17: 27.5},
			"Z": {16: 26, 17: 26},
		})
		ladder := rating.WithLadder([]model.AgePair{{Younger: 16, Older: 17}})

		Convey("When scored over the whole population", func() {
			p := rating.NewPercentile(ladder)
			x, err := p.Score(ctx, d, model.Recruit{Name: "X", Events: []string{freestyle}})
			y, _ := p.Score(ctx, d, model.Recruit{Name: "Y", Events: []string{freestyle}})

			Convey("Then the percentile deltas follow the first-match rule", func() {
				So(err, ShouldBeNil)
				So(x.Raw, ShouldAlmostEqual, 2.0/3.0, epsilon)
				So(y.Raw, ShouldAlmostEqual, -1.0/3.0, epsilon)
			})
		})

		Convey("When the population list is capped", func() {
			p := rating.NewPercentile(ladder, rating.WithPercentileTop(2))
			x, _ := p.Score(ctx, d, model.Recruit{Name: "X", Events: []string{freestyle}})

			Convey("Then only the fastest entries are ranked", func() {
				So(x.Raw, ShouldAlmostEqual, 0.5, epsilon)
			})
		})

		Convey("When the population is smaller than the cap", func() {
			var logs bytes.Buffer
			So(logger.Init(logger.WithWriter(&logs)), ShouldBeNil)
			p := rating.NewPercentile(ladder, rating.WithLogger(logger.Get()))
			_, err := p.Score(ctx, d, model.Recruit{Name: "X", Events: []string{freestyle}})

			Convey("Then the short list is reported at warn level", func() {
				So(err, ShouldBeNil)
				So(logs.String(), ShouldContainSubstring, "level=WARN")
				So(logs.String(), ShouldContainSubstring, "not enough swimmers in population list")
			})
		})

		Convey("When an earlier event has no data", func() {
			p := rating.NewPercentile(ladder)
			x, _ := p.Score(ctx, d, model.Recruit{Name: "X", Events: []string{fly, freestyle}})

			Convey("Then the event keeps its fixed position weight", func() {
				So(x.Events, ShouldHaveLength, 1)
				So(x.Events[0].Weight, ShouldAlmostEqual, 0.8, epsilon)
				So(x.Raw, ShouldAlmostEqual, 0.8*2.0/3.0, epsilon)
			})
		})
	})
}

func TestRank(t *testing.T) {
	Convey("Given three swimmers whose order changes between 16 and 17", t, func() {
		ctx := context.Background()
		d := dataset(ctx, map[string]map[int]float64{
			"X": {16: 30, 17: 25},
			"Y": {16: 28, 17: 27.5},
			"Z": {16: 26, 17: 26},
		})
		ladder := rating.WithLadder([]model.AgePair{{Younger: 16, Older: 17}})

		Convey("When scored by rank", func() {
			r := rating.NewRank(ladder)
			x, err := r.Score(ctx, d, model.Recruit{Name: "X", Events: []string{freestyle}})
			y, _ := r.Score(ctx, d, model.Recruit{Name: "Y", Events: []string{freestyle}})
			z, _ := r.Score(ctx, d, model.Recruit{Name: "Z", Events: []string{freestyle}})

			Convey("Then places gained count as positive improvement", func() {
				So(err, ShouldBeNil)
				So(r.Name(), ShouldEqual, rating.NameRank)
				So(x.Events, ShouldHaveLength, 1)
				So(x.Events[0].Pairs[0].Value, ShouldAlmostEqual, 2.0, epsilon)
				So(x.Raw, ShouldAlmostEqual, 2.0, epsilon)
				So(y.Raw, ShouldAlmostEqual, -1.0, epsilon)
				So(z.Raw, ShouldAlmostEqual, -1.0, epsilon)
			})
		})

		Convey("When the recruit lacks one end of the pair", func() {
			d := dataset(ctx, map[string]map[int]float64{"X": {16: 30}, "Y": {16: 28, 17: 27.5}})
			x, err := rating.NewRank(ladder).Score(ctx, d, model.Recruit{Name: "X", Events: []string{freestyle}})

			Convey("Then nothing is contributed", func() {
				So(err, ShouldBeNil)
				So(x.HasData(), ShouldBeFalse)
				So(x.Raw, ShouldEqual, 0.0)
			})
		})
	})
}

func TestNew(t *testing.T) {
	Convey("Given strategy names", t, func() {
		z, err := rating.New(rating.NameZScore)
		So(err, ShouldBeNil)
		So(z.Name(), ShouldEqual, rating.NameZScore)

		p, err := rating.New(rating.NamePercentile)
		So(err, ShouldBeNil)
		So(p.Name(), ShouldEqual, rating.NamePercentile)

		r, err := rating.New(rating.NameRank)
		So(err, ShouldBeNil)
		So(r.Name(), ShouldEqual, rating.NameRank)

		_, err = rating.New("elo")
		So(errors.Is(err, rating.ErrUnknownStrategy), ShouldBeTrue)
	})
}

func TestTruncateHistorical(t *testing.T) {
	Convey("Given a historical recruit with a swim at 18", t, func() {
		ctx := context.Background()
		d := dataset(ctx, map[string]map[int]float64{
			"Old": {16: 30, 17: 29, 18: 27},
			"A":   {16: 31, 17: 30, 18: 29},
		})
		recruits := []model.Recruit{
			{Name: "Old", Events: []string{freestyle}, Historical: true},
			{Name: "A", Events: []string{freestyle}},
			{Name: "Ghost", Events: []string{freestyle}, Historical: true},
		}

		Convey("When the pre-pass runs", func() {
			n, err := rating.TruncateHistorical(ctx, d, recruits, 17)

			Convey("Then only the historical swimmer loses the late swim", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
				old, _ := d.Lookup("Old")
				_, ok := old.Time(freestyle, 18)
				So(ok, ShouldBeFalse)
				oldest, _ := old.OldestAge(freestyle)
				So(oldest, ShouldEqual, 17)
				a, _ := d.Lookup("A")
				_, ok = a.Time(freestyle, 18)
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When the context is already canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := rating.TruncateHistorical(cctx, d, recruits, 17)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
