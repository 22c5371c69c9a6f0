// Package repository holds the in-memory swimmer dataset.
package repository

import "github.com/okian/swimrate/pkg/logger"

// Default dataset configuration constants.
const (
	defaultReferenceYear = 2021
	defaultCapacity      = 1024
)

// Option applies a configuration option to the Dataset.
type Option func(*Dataset)

// WithReferenceYear sets the year anchor ages are computed against.
func WithReferenceYear(year int) Option {
	return func(d *Dataset) {
		if year > 0 {
			d.referenceYear = year
		}
	}
}

// WithCapacity pre-sizes the swimmer index.
func WithCapacity(n int) Option {
	return func(d *Dataset) {
		if n > 0 {
			d.capacity = n
		}
	}
}

// WithLogger sets a custom logger for the dataset.
func WithLogger(l logger.Logger) Option {
	return func(d *Dataset) {
		if l != nil {
			d.logger = l
		}
	}
}
