// Package ingest reads meet result files into a swimmer dataset.
//
// Each results directory holds .csv or .xlsx exports named with the meet
// year first, e.g. 2019_sectionals.csv. Files are read in lexical order so
// the first result seen for a swimmer, which fixes their anchor age, is the
// same on every run.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/okian/swimrate/internal/domain/dedupe"
	"github.com/okian/swimrate/internal/domain/model"
	"github.com/okian/swimrate/internal/domain/racetime"
	"github.com/okian/swimrate/pkg/logger"
	"github.com/okian/swimrate/pkg/metrics"
)

var yearPrefix = regexp.MustCompile(`^(\d{4})_`)

// Sink receives decoded results.
type Sink interface {
	Observe(ctx context.Context, r model.Result) error
}

// Stats summarizes one load.
type Stats struct {
	Files      int
	Duplicates int
	Results    int
	Skipped    int
	FailedFile int
}

// Loader walks result directories.
type Loader struct {
	factory ParserFactory
	deduper dedupe.Deduper
	logger  logger.Logger
}

// Option applies a configuration option to the Loader.
type Option func(*Loader)

// WithFactory overrides the parser factory.
func WithFactory(f ParserFactory) Option {
	return func(l *Loader) {
		if f != nil {
			l.factory = f
		}
	}
}

// WithDeduper overrides the file deduper.
func WithDeduper(d dedupe.Deduper) Option {
	return func(l *Loader) {
		if d != nil {
			l.deduper = d
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(lg logger.Logger) Option {
	return func(l *Loader) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		factory: NewFactory(),
		deduper: dedupe.NewInMemoryDeduper(dedupe.WithKeyFunc(dedupe.PathKey)),
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// MeetYear extracts the year prefix from a result filename.
func MeetYear(filename string) (int, error) {
	m := yearPrefix.FindStringSubmatch(filepath.Base(filename))
	if m == nil {
		return 0, fmt.Errorf("%w: %s", ErrBadFilename, filepath.Base(filename))
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrBadFilename, filepath.Base(filename))
	}
	return year, nil
}

// Load reads every result file in dirs into sink. A file that cannot be read
// or decoded is logged and skipped; only a missing directory or a canceled
// context stops the load.
func (l *Loader) Load(ctx context.Context, dirs []string, sink Sink) (Stats, error) {
	var st Stats
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return st, fmt.Errorf("read results dir %s: %w", dir, err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.Type().IsRegular() {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)

		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return st, err
			}
			path := filepath.Join(dir, name)
			if !Supported(name) {
				l.logger.Debug(ctx, "skipping non-result file", logger.String("file", path))
				continue
			}
			if l.deduper.SeenAndRecord(ctx, path) {
				st.Duplicates++
				metrics.RecordFileDuplicate()
				l.logger.Debug(ctx, "skipping duplicate file", logger.String("file", path))
				continue
			}
			if err := l.LoadFile(ctx, path, sink, &st); err != nil {
				st.FailedFile++
				l.deduper.Unrecord(ctx, path)
				l.logger.Warn(ctx, "skipping result file",
					logger.String("file", path),
					logger.Error(err),
				)
			}
		}
	}
	return st, nil
}

// LoadFile reads one result file into sink and adds to st.
func (l *Loader) LoadFile(ctx context.Context, path string, sink Sink, st *Stats) error {
	year, err := MeetYear(path)
	if err != nil {
		return err
	}
	parser, err := l.factory.GetParser(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	rows, err := parser.Parse(data)
	if err != nil {
		return err
	}
	results, skipped, err := Decode(rows, year)
	if err != nil {
		return err
	}

	for _, re := range skipped {
		st.Skipped++
		metrics.RecordResultSkipped(reason(re.Err))
		l.logger.Warn(ctx, "skipping malformed row",
			logger.String("file", path),
			logger.Int("line", re.Line),
			logger.Error(re.Err),
		)
	}
	for _, r := range results {
		if err := sink.Observe(ctx, r); err != nil {
			st.Skipped++
			metrics.RecordResultSkipped("rejected")
			l.logger.Warn(ctx, "result rejected",
				logger.String("file", path),
				logger.String("name", r.Name),
				logger.Error(err),
			)
			continue
		}
		st.Results++
		metrics.RecordResultIngested()
	}
	st.Files++
	metrics.RecordFileIngested()
	l.logger.Info(ctx, "ingested result file",
		logger.String("file", path),
		logger.Int("year", year),
		logger.Int("results", len(results)),
		logger.Int("skipped", len(skipped)),
	)
	return nil
}

func reason(err error) string {
	switch {
	case errors.Is(err, racetime.ErrMalformedTime):
		return "bad_time"
	case errors.Is(err, ErrBadRow):
		return "bad_row"
	default:
		return "other"
	}
}
