// Package config defines process configuration and loading hooks.
//
// Conventions:
// - New(ctx) returns a Config populated with defaults.
// - Load(ctx) layers an optional YAML file and SWIMRATE_* env vars on top.
// - Validate reports every rejected field wrapped in ErrInvalidConfig.
package config

import (
	"context"
	"errors"
	"fmt"
)

// Rating strategies.
const (
	StrategyZScore     = "zscore"
	StrategyPercentile = "percentile"
	StrategyRank       = "rank"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// ReferenceYear anchors every swimmer's age: anchor = reference_year - meet_year + age.
	ReferenceYear int `koanf:"reference_year"`

	// Strategy selects the rating variant: zscore, percentile or rank.
	Strategy string `koanf:"strategy"`

	// ClassGrace is the anchor-age tolerance used to pick cohort peers.
	ClassGrace int `koanf:"class_grace"`
	// CohortBelow and CohortAbove bound the peer window around the target.
	CohortBelow int `koanf:"cohort_below"`
	CohortAbove int `koanf:"cohort_above"`

	// AgeGamma and EventGamma are the exponential decay factors.
	AgeGamma   float64 `koanf:"age_gamma"`
	EventGamma float64 `koanf:"event_gamma"`

	// SmallSampleMean and SmallSampleStdDev replace cohort statistics when
	// at most one peer contributes an improvement.
	SmallSampleMean   float64 `koanf:"small_sample_mean"`
	SmallSampleStdDev float64 `koanf:"small_sample_stddev"`

	// HistoricalAgeCeiling truncates historical recruits' records.
	HistoricalAgeCeiling int `koanf:"historical_age_ceiling"`

	// PercentileTop caps the population time list in percentile and rank modes.
	PercentileTop int `koanf:"percentile_top"`

	// WorkerCount sets the number of concurrent recruit scorers.
	WorkerCount int `koanf:"worker_count"`

	// ResultsDirs lists folders of result files to ingest.
	ResultsDirs []string `koanf:"results_dirs"`
	// RosterFile is the YAML roster/labels document.
	RosterFile string `koanf:"roster_file"`

	// SnapshotDriver is sqlite or postgres; SnapshotDSN its data source.
	SnapshotDriver string `koanf:"snapshot_driver"`
	SnapshotDSN    string `koanf:"snapshot_dsn"`

	// MetricsFile, when set, receives a Prometheus textfile after each command.
	MetricsFile string `koanf:"metrics_file"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		ReferenceYear:        2021,
		Strategy:             StrategyZScore,
		ClassGrace:           2,
		CohortBelow:          30,
		CohortAbove:          30,
		AgeGamma:             0.8,
		EventGamma:           0.8,
		SmallSampleMean:      0,
		SmallSampleStdDev:    100,
		HistoricalAgeCeiling: 17,
		PercentileTop:        1000,
		WorkerCount:          1,
		RosterFile:           "roster.yaml",
		SnapshotDriver:       "sqlite",
		SnapshotDSN:          "file:swimrate.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)",
	}
}

// Validate checks field ranges and returns every problem found.
func (c *Config) Validate() error {
	var errs []error
	switch c.Strategy {
	case StrategyZScore, StrategyPercentile, StrategyRank:
	default:
		errs = append(errs, fmt.Errorf("strategy must be %q, %q or %q, got %q", StrategyZScore, StrategyPercentile, StrategyRank, c.Strategy))
	}
	if c.ClassGrace < 0 {
		errs = append(errs, fmt.Errorf("class_grace must not be negative, got %d", c.ClassGrace))
	}
	if c.CohortBelow < 1 {
		errs = append(errs, fmt.Errorf("cohort_below must be at least 1, got %d", c.CohortBelow))
	}
	if c.CohortAbove < 0 {
		errs = append(errs, fmt.Errorf("cohort_above must not be negative, got %d", c.CohortAbove))
	}
	if c.AgeGamma <= 0 || c.AgeGamma > 1 {
		errs = append(errs, fmt.Errorf("age_gamma must be in (0,1], got %v", c.AgeGamma))
	}
	if c.EventGamma <= 0 || c.EventGamma > 1 {
		errs = append(errs, fmt.Errorf("event_gamma must be in (0,1], got %v", c.EventGamma))
	}
	if c.SmallSampleStdDev <= 0 {
		errs = append(errs, fmt.Errorf("small_sample_stddev must be positive, got %v", c.SmallSampleStdDev))
	}
	if c.PercentileTop < 0 {
		errs = append(errs, fmt.Errorf("percentile_top must not be negative, got %d", c.PercentileTop))
	}
	if c.WorkerCount < 1 {
		errs = append(errs, fmt.Errorf("worker_count must be at least 1, got %d", c.WorkerCount))
	}
	if c.SnapshotDriver == "" {
		errs = append(errs, errors.New("snapshot_driver must not be empty"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
