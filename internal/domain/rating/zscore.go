package rating

import (
	"context"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/okian/swimrate/internal/domain/cohort"
	"github.com/okian/swimrate/internal/domain/model"
	"github.com/okian/swimrate/pkg/logger"
	"github.com/okian/swimrate/pkg/metrics"
)

// ZScore rates improvement relative to a peer cohort.
type ZScore struct {
	params
}

// NewZScore creates the cohort-relative strategy.
func NewZScore(opts ...Option) *ZScore {
	return &ZScore{params: newParams(opts)}
}

// Name implements Strategy.
func (z *ZScore) Name() string { return NameZScore }

// Score implements Strategy.
//
// Only age-pairs with a defined improvement advance the age exponent, and
// only events that produced at least one pair advance the event exponent.
func (z *ZScore) Score(ctx context.Context, pop Population, r model.Recruit) (model.Rating, error) {
	start := time.Now()
	defer func() {
		metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	out := model.Rating{Name: r.Name, Category: r.Category}
	target, err := lookup(pop, r)
	if err != nil {
		return out, err
	}

	eventPos := 0
	for _, event := range r.Events {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		w, ok := z.selector.Select(pop, target, event)
		if !ok {
			z.logger.Debug(ctx, "no times for event",
				logger.String("name", r.Name),
				logger.String("event", event),
			)
			continue
		}
		if !w.Found {
			z.logger.Warn(ctx, "target missing from its own cohort, window starts at fastest",
				logger.String("name", r.Name),
				logger.String("event", event),
				logger.Int("reference_age", w.ReferenceAge),
			)
		}
		metrics.RecordCohortWindowSize(w.Size())

		ec := z.scoreEvent(ctx, target, w)
		if len(ec.Pairs) == 0 {
			continue
		}
		ec.Weight = decay(z.eventGamma, eventPos)
		eventPos++
		out.Raw += ec.Score * ec.Weight
		out.Events = append(out.Events, ec)
	}
	return out, nil
}

func (z *ZScore) scoreEvent(ctx context.Context, target *model.Swimmer, w cohort.Window) model.EventContribution {
	ec := model.EventContribution{Event: w.Event, CohortSize: w.Size()}

	pos := 0
	for _, pair := range z.ladder {
		value, ok := target.Improvement(w.Event, pair)
		if !ok {
			continue
		}

		samples := make([]float64, 0, len(w.Peers))
		for _, peer := range w.Peers {
			if v, ok := peer.Improvement(w.Event, pair); ok {
				samples = append(samples, v)
			}
		}
		mean, stddev, guarded := z.moments(samples)
		if guarded {
			metrics.RecordDegenerateCohort()
			z.logger.Debug(ctx, "small cohort sample, using guard",
				logger.String("name", target.Name),
				logger.String("event", w.Event),
				logger.String("pair", pair.String()),
				logger.Int("samples", len(samples)),
			)
		}

		pc := model.PairContribution{
			Pair:    pair,
			Value:   (value - mean) / stddev,
			Weight:  decay(z.ageGamma, pos),
			Samples: len(samples),
			Mean:    mean,
			StdDev:  stddev,
			Guarded: guarded,
		}
		pos++
		ec.Score += pc.Value * pc.Weight
		ec.Pairs = append(ec.Pairs, pc)
	}
	return ec
}

// moments returns the sample mean and standard deviation of xs, falling back
// to the configured guard when there are fewer than two samples or no spread.
func (z *ZScore) moments(xs []float64) (mean, stddev float64, guarded bool) {
	if len(xs) <= 1 {
		return z.guardMean, z.guardStd, true
	}
	mean, stddev = stat.MeanStdDev(xs, nil)
	if stddev == 0 {
		return mean, z.guardStd, true
	}
	return mean, stddev, false
}
