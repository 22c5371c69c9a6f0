package rating

import (
	"github.com/okian/swimrate/internal/domain/cohort"
	"github.com/okian/swimrate/internal/domain/model"
	"github.com/okian/swimrate/pkg/logger"
)

// Default rating parameters.
const (
	DefaultAgeGamma          = 0.8
	DefaultEventGamma        = 0.8
	DefaultSmallSampleMean   = 0.0
	DefaultSmallSampleStdDev = 100.0
	DefaultPercentileTop     = 1000
)

// params is shared by every strategy.
type params struct {
	ageGamma   float64
	eventGamma float64
	guardMean  float64
	guardStd   float64
	top        int
	ladder     []model.AgePair
	selector   *cohort.Selector
	logger     logger.Logger
}

func newParams(opts []Option) params {
	p := params{
		ageGamma:   DefaultAgeGamma,
		eventGamma: DefaultEventGamma,
		guardMean:  DefaultSmallSampleMean,
		guardStd:   DefaultSmallSampleStdDev,
		top:        DefaultPercentileTop,
		ladder:     model.Ladder,
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(&p)
	}
	if p.selector == nil {
		p.selector = cohort.NewSelector()
	}
	return p
}

// Option applies a configuration option to a strategy.
type Option func(*params)

// WithAgeGamma sets the decay applied per age-pair.
func WithAgeGamma(g float64) Option {
	return func(p *params) {
		if g > 0 {
			p.ageGamma = g
		}
	}
}

// WithEventGamma sets the decay applied per event.
func WithEventGamma(g float64) Option {
	return func(p *params) {
		if g > 0 {
			p.eventGamma = g
		}
	}
}

// WithSmallSample sets the mean and standard deviation used when at most one
// peer contributes to an age-pair.
func WithSmallSample(mean, stddev float64) Option {
	return func(p *params) {
		p.guardMean = mean
		if stddev > 0 {
			p.guardStd = stddev
		}
	}
}

// WithPercentileTop caps the population list in percentile mode. Zero keeps
// every time.
func WithPercentileTop(n int) Option {
	return func(p *params) {
		if n >= 0 {
			p.top = n
		}
	}
}

// WithLadder overrides the age-pair ladder. Pairs must be listed oldest first.
func WithLadder(ladder []model.AgePair) Option {
	return func(p *params) {
		if len(ladder) > 0 {
			p.ladder = ladder
		}
	}
}

// WithSelector sets the cohort selector used by the z-score strategy.
func WithSelector(s *cohort.Selector) Option {
	return func(p *params) {
		if s != nil {
			p.selector = s
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(p *params) {
		if l != nil {
			p.logger = l
		}
	}
}
