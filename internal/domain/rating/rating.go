// Package rating computes improvement ratings for recruits.
//
// ZScore standardizes each age-pair improvement against a time-ranked peer
// cohort. Percentile and Rank compare the recruit's population percentile or
// rank at the two ages of each pair. All weight age-pairs from the oldest down
// and events in the order the recruit lists them.
package rating

import (
	"context"
	"fmt"
	"math"

	"github.com/okian/swimrate/internal/domain/cohort"
	"github.com/okian/swimrate/internal/domain/model"
)

// Strategy names.
const (
	NameZScore     = "zscore"
	NamePercentile = "percentile"
	NameRank       = "rank"
)

// Population is the read-only dataset scored against.
type Population interface {
	cohort.Population
	Lookup(name string) (*model.Swimmer, error)
}

// Strategy scores one recruit.
type Strategy interface {
	Name() string
	// Score returns the recruit's raw rating. The error from Population.Lookup
	// is returned unchanged when the recruit is unknown.
	Score(ctx context.Context, pop Population, r model.Recruit) (model.Rating, error)
}

// New returns the strategy registered under name.
func New(name string, opts ...Option) (Strategy, error) {
	switch name {
	case NameZScore:
		return NewZScore(opts...), nil
	case NamePercentile:
		return NewPercentile(opts...), nil
	case NameRank:
		return NewRank(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// Truncater drops late swims from a swimmer record.
type Truncater interface {
	Truncate(ctx context.Context, name string, maxAge int) (int, error)
}

// TruncateHistorical applies the age ceiling to every historical recruit. It
// must finish before any strategy reads the population. Unknown recruits are
// skipped; they surface later as not found.
func TruncateHistorical(ctx context.Context, t Truncater, recruits []model.Recruit, ceiling int) (int, error) {
	total := 0
	for _, r := range recruits {
		if !r.Historical {
			continue
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := t.Truncate(ctx, r.Name, ceiling)
		if err != nil {
			continue
		}
		total += n
	}
	return total, nil
}

func lookup(pop Population, r model.Recruit) (*model.Swimmer, error) {
	if r.Name == "" {
		return nil, ErrNilRecruit
	}
	return pop.Lookup(r.Name)
}

func decay(gamma float64, pos int) float64 {
	return math.Pow(gamma, float64(pos))
}
