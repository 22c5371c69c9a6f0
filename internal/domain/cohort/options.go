package cohort

// Default window configuration.
const (
	DefaultClassGrace = 2
	DefaultBelow      = 30
	DefaultAbove      = 30
)

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithClassGrace sets the anchor-age tolerance for peers.
func WithClassGrace(years int) Option {
	return func(s *Selector) {
		if years >= 0 {
			s.classGrace = years
		}
	}
}

// WithBelow sets how many entries the window keeps from the target onwards.
func WithBelow(n int) Option {
	return func(s *Selector) {
		if n > 0 {
			s.below = n
		}
	}
}

// WithAbove sets how many entries the window keeps ahead of the target.
func WithAbove(n int) Option {
	return func(s *Selector) {
		if n >= 0 {
			s.above = n
		}
	}
}
