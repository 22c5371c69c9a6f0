package rating

import (
	"context"
	"sort"

	"github.com/okian/swimrate/internal/domain/model"
	"github.com/okian/swimrate/pkg/logger"
)

// placement locates a time within a population list sorted slowest first.
type placement func(desc []float64, value float64) (float64, bool)

// populationScorer rates improvement as the change in a swimmer's placement
// within the whole population between the two ages of each pair.
//
// Weights follow fixed positions: the i-th ladder pair and the j-th listed
// event weigh gamma^i and gamma^j whether or not earlier entries had data.
type populationScorer struct {
	params
	place placement
	// gain turns the younger and older placements into an improvement,
	// positive when the swimmer moved up.
	gain func(younger, older float64) float64
}

// Percentile rates improvement as the change in population percentile.
type Percentile struct {
	populationScorer
}

// NewPercentile creates the population-percentile strategy.
func NewPercentile(opts ...Option) *Percentile {
	return &Percentile{populationScorer{
		params: newParams(opts),
		place:  percentileOf,
		gain:   func(younger, older float64) float64 { return older - younger },
	}}
}

// Name implements Strategy.
func (p *Percentile) Name() string { return NamePercentile }

// Rank rates improvement as the number of population places gained.
type Rank struct {
	populationScorer
}

// NewRank creates the population-rank strategy.
func NewRank(opts ...Option) *Rank {
	return &Rank{populationScorer{
		params: newParams(opts),
		place:  rankOf,
		gain:   func(younger, older float64) float64 { return younger - older },
	}}
}

// Name implements Strategy.
func (r *Rank) Name() string { return NameRank }

// Score implements Strategy.
func (p *populationScorer) Score(ctx context.Context, pop Population, r model.Recruit) (model.Rating, error) {
	out := model.Rating{Name: r.Name, Category: r.Category}
	target, err := lookup(pop, r)
	if err != nil {
		return out, err
	}

	lists := make(map[int][]float64)
	timesAt := func(event string, age int) []float64 {
		if l, ok := lists[age]; ok {
			return l
		}
		l := p.timeList(ctx, pop, event, age)
		lists[age] = l
		return l
	}

	for j, event := range r.Events {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		clear(lists)
		ec := model.EventContribution{Event: event, Weight: decay(p.eventGamma, j)}
		for i, pair := range p.ladder {
			younger, ok1 := target.Time(event, pair.Younger)
			older, ok2 := target.Time(event, pair.Older)
			if !ok1 || !ok2 {
				continue
			}
			p1, ok1 := p.place(timesAt(event, pair.Younger), younger)
			p2, ok2 := p.place(timesAt(event, pair.Older), older)
			if !ok1 || !ok2 {
				continue
			}
			pc := model.PairContribution{
				Pair:   pair,
				Value:  p.gain(p1, p2),
				Weight: decay(p.ageGamma, i),
			}
			ec.Score += pc.Value * pc.Weight
			ec.Pairs = append(ec.Pairs, pc)
		}
		if len(ec.Pairs) == 0 {
			continue
		}
		out.Raw += ec.Score * ec.Weight
		out.Events = append(out.Events, ec)
	}
	return out, nil
}

// timeList returns every population time for (event, age) sorted slowest
// first, keeping only the fastest top entries.
func (p *populationScorer) timeList(ctx context.Context, pop Population, event string, age int) []float64 {
	var times []float64
	for _, s := range pop.Swimmers() {
		if t, ok := s.Time(event, age); ok {
			times = append(times, t)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(times)))
	if p.top > 0 && len(times) > p.top {
		times = times[len(times)-p.top:]
	}
	if p.top > 0 && len(times) < p.top {
		p.logger.Warn(ctx, "not enough swimmers in population list",
			logger.String("event", event),
			logger.Int("age", age),
			logger.Int("size", len(times)),
			logger.Int("want", p.top),
		)
	}
	return times
}

// percentileOf returns i/len(desc) for the first i with value >= desc[i].
// desc must be sorted slowest first; ties resolve to the first match.
func percentileOf(desc []float64, value float64) (float64, bool) {
	for i, x := range desc {
		if value >= x {
			return float64(i) / float64(len(desc)), true
		}
	}
	return 0, false
}

// rankOf returns len(desc)-i+1 for the first i with value >= desc[i]. Lower
// is faster.
func rankOf(desc []float64, value float64) (float64, bool) {
	for i, x := range desc {
		if value >= x {
			return float64(len(desc) - i + 1), true
		}
	}
	return 0, false
}
