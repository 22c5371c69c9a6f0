// Package service wires ingestion, the dataset, a rating strategy, and the
// grader into one rating run.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/swimrate/internal/adapters/ingest"
	workerpool "github.com/okian/swimrate/internal/adapters/mq/worker"
	"github.com/okian/swimrate/internal/adapters/repository"
	"github.com/okian/swimrate/internal/adapters/roster"
	"github.com/okian/swimrate/internal/adapters/snapshot"
	"github.com/okian/swimrate/internal/config"
	"github.com/okian/swimrate/internal/domain/cohort"
	"github.com/okian/swimrate/internal/domain/grading"
	"github.com/okian/swimrate/internal/domain/model"
	"github.com/okian/swimrate/internal/domain/rating"
	"github.com/okian/swimrate/internal/domain/types"
	"github.com/okian/swimrate/pkg/logger"
	"github.com/okian/swimrate/pkg/metrics"
)

// ratingAdapter adapts a rating.Strategy bound to one dataset to worker.Scorer.
type ratingAdapter struct {
	strategy rating.Strategy
	pop      rating.Population
}

func (a *ratingAdapter) Score(ctx context.Context, r model.Recruit) (model.Rating, error) {
	return a.strategy.Score(ctx, a.pop, r)
}

// Report is the ranked result of a rating run.
type Report struct {
	RunID    string
	Strategy string
	// Entries are ordered best first.
	Entries []types.Entry
	// Ratings holds the per-event breakdown, keyed by recruit name.
	Ratings map[string]model.Rating
	// NotFound lists recruits missing from the dataset, in roster order.
	NotFound []string
	Summary  grading.Summary
}

// Render writes the line-oriented report.
func (r *Report) Render(w io.Writer) error {
	return grading.Render(w, r.Entries)
}

// Service runs ingestion and rating with one configuration.
type Service struct {
	cfg      *config.Config
	strategy rating.Strategy
	loader   *ingest.Loader
	store    *snapshot.Store
	logger   logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the configuration. Defaults are used otherwise.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithStrategy overrides the strategy named in the configuration.
func WithStrategy(st rating.Strategy) Option {
	return func(s *Service) {
		if st != nil {
			s.strategy = st
		}
	}
}

// WithSnapshotStore enables loading and saving dataset snapshots.
func WithSnapshotStore(store *snapshot.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service.
func New(ctx context.Context, opts ...Option) (*Service, error) {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg == nil {
		s.cfg = config.New(ctx)
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.strategy == nil {
		st, err := rating.New(s.cfg.Strategy, StrategyOptions(s.cfg, s.logger.Named("rating"))...)
		if err != nil {
			return nil, err
		}
		s.strategy = st
	}
	s.loader = ingest.NewLoader(ingest.WithLogger(s.logger.Named("ingest")))
	return s, nil
}

// StrategyOptions maps configuration onto rating options.
func StrategyOptions(cfg *config.Config, l logger.Logger) []rating.Option {
	return []rating.Option{
		rating.WithAgeGamma(cfg.AgeGamma),
		rating.WithEventGamma(cfg.EventGamma),
		rating.WithSmallSample(cfg.SmallSampleMean, cfg.SmallSampleStdDev),
		rating.WithPercentileTop(cfg.PercentileTop),
		rating.WithSelector(cohort.NewSelector(
			cohort.WithClassGrace(cfg.ClassGrace),
			cohort.WithBelow(cfg.CohortBelow),
			cohort.WithAbove(cfg.CohortAbove),
		)),
		rating.WithLogger(l),
	}
}

// Strategy returns the active strategy name.
func (s *Service) Strategy() string { return s.strategy.Name() }

// Ingest builds a dataset from the configured results directories and
// applies the roster's manual adjustments.
func (s *Service) Ingest(ctx context.Context, ros *roster.Roster) (*repository.Dataset, ingest.Stats, error) {
	ds := repository.NewDataset(
		repository.WithReferenceYear(s.cfg.ReferenceYear),
		repository.WithLogger(s.logger.Named("dataset")),
	)
	st, err := s.loader.Load(ctx, s.cfg.ResultsDirs, ds)
	if err != nil {
		return nil, st, err
	}
	if ros != nil {
		s.applyAdjustments(ctx, ds, ros.Adjustments)
	}
	ds.Publish()
	s.logger.Info(ctx, "dataset built",
		logger.Int("swimmers", ds.Len()),
		logger.Int("files", st.Files),
		logger.Int("results", st.Results),
		logger.Int("skipped", st.Skipped),
	)
	return ds, st, nil
}

func (s *Service) applyAdjustments(ctx context.Context, ds *repository.Dataset, adjs []roster.Adjustment) {
	for _, a := range adjs {
		t, err := a.Seconds()
		if err != nil {
			s.logger.Warn(ctx, "adjustment rejected", logger.String("name", a.Name), logger.Error(err))
			continue
		}
		err = ds.Adjust(ctx, strings.TrimSpace(a.Name), a.Event, a.Age, t)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			s.logger.Warn(ctx, "adjustment for unknown swimmer", logger.String("name", a.Name))
		case err != nil:
			s.logger.Warn(ctx, "adjustment rejected", logger.String("name", a.Name), logger.Error(err))
		}
	}
}

// Save writes ds to the snapshot store.
func (s *Service) Save(ctx context.Context, ds *repository.Dataset) (snapshot.Info, error) {
	if s.store == nil {
		return snapshot.Info{}, errors.New("no snapshot store configured")
	}
	return s.store.Save(ctx, ds)
}

// Dataset returns the snapshot when one exists and fresh is false; otherwise
// it ingests the results directories and saves a new snapshot.
func (s *Service) Dataset(ctx context.Context, ros *roster.Roster, fresh bool) (*repository.Dataset, error) {
	if s.store != nil && !fresh {
		ds, info, err := s.store.Load(ctx, repository.WithLogger(s.logger.Named("dataset")))
		switch {
		case err == nil:
			if info.ReferenceYear != s.cfg.ReferenceYear {
				s.logger.Warn(ctx, "snapshot reference year differs from config",
					logger.Int("snapshot", info.ReferenceYear),
					logger.Int("config", s.cfg.ReferenceYear),
				)
			}
			ds.Publish()
			return ds, nil
		case errors.Is(err, snapshot.ErrNoSnapshot):
			s.logger.Info(ctx, "no snapshot stored, ingesting results")
		default:
			return nil, err
		}
	}

	ds, _, err := s.Ingest(ctx, ros)
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		if _, err := s.store.Save(ctx, ds); err != nil {
			return nil, fmt.Errorf("save snapshot: %w", err)
		}
	}
	return ds, nil
}

// Rate scores every roster recruit against ds and grades the results.
//
// Historical recruits are truncated before the worker pool starts, so every
// worker sees the final records. Recruits missing from ds are reported in
// Report.NotFound and left out of the ranking.
func (s *Service) Rate(ctx context.Context, ds *repository.Dataset, ros *roster.Roster) (*Report, error) {
	if ros == nil {
		return nil, errors.New("rate: no roster")
	}
	start := time.Now()
	recruits := ros.Models()

	truncated, err := rating.TruncateHistorical(ctx, ds, recruits, s.cfg.HistoricalAgeCeiling)
	if err != nil {
		return nil, err
	}
	if truncated > 0 {
		s.logger.Info(ctx, "historical swims removed",
			logger.Int("entries", truncated),
			logger.Int("ceiling", s.cfg.HistoricalAgeCeiling),
		)
	}

	pool := workerpool.NewPool(
		&ratingAdapter{strategy: s.strategy, pop: ds},
		workerpool.WithWorkers(s.cfg.WorkerCount),
		workerpool.WithLogger(s.logger.Named("worker-pool")),
	)
	outcomes, err := pool.Run(ctx, recruits)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:    uuid.NewString(),
		Strategy: s.strategy.Name(),
		Ratings:  make(map[string]model.Rating, len(outcomes)),
	}
	ratings := make([]model.Rating, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			if errors.Is(o.Err, repository.ErrNotFound) {
				metrics.RecordRecruitNotFound()
				s.logger.Warn(ctx, "recruit not found", logger.String("name", o.Recruit.Name))
				report.NotFound = append(report.NotFound, o.Recruit.Name)
				continue
			}
			return nil, fmt.Errorf("score %q: %w", o.Recruit.Name, o.Err)
		}
		if !o.Rating.HasData() {
			s.logger.Warn(ctx, "recruit has no usable improvement data",
				logger.String("name", o.Recruit.Name),
				logger.Strings("events", o.Recruit.Events),
			)
		}
		ratings = append(ratings, o.Rating)
		report.Ratings[o.Rating.Name] = o.Rating
	}

	entries, summary, err := grading.Grade(ratings, ros.References())
	if err != nil {
		return nil, err
	}
	report.Entries = entries
	report.Summary = summary
	metrics.UpdateLastRun(len(entries), summary.StdDev)

	s.logger.Info(ctx, "rating run complete",
		logger.String("run_id", report.RunID),
		logger.String("strategy", report.Strategy),
		logger.Int("rated", len(entries)),
		logger.Int("not_found", len(report.NotFound)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}
