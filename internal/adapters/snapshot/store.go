// Package snapshot persists a built dataset so rating runs can skip
// re-reading result files.
package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite

	"github.com/okian/swimrate/internal/adapters/repository"
	"github.com/okian/swimrate/internal/domain/model"
	"github.com/okian/swimrate/pkg/logger"
	"github.com/okian/swimrate/pkg/metrics"
)

// Driver names a database backend.
type Driver string

// Supported drivers.
const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Source is the dataset view a snapshot is written from.
type Source interface {
	ReferenceYear() int
	Swimmers() []*model.Swimmer
}

// Info describes the stored snapshot.
type Info struct {
	ID            string
	ReferenceYear int
	Swimmers      int
	CreatedAt     time.Time
}

// Store reads and writes one dataset snapshot.
type Store struct {
	db     *sql.DB
	driver Driver
	logger logger.Logger
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open opens a database and ensures the schema exists.
func Open(ctx context.Context, driver Driver, dsn string, opts ...Option) (*Store, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:swimrate.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/swimrate?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// Single connection; also keeps in-memory databases alive.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := schemaPostgres
	if driver == DriverSQLite {
		schema = schemaSQLite
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	s := &Store{db: db, driver: driver, logger: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save replaces the stored snapshot with src in a single transaction and
// returns the new snapshot's info.
func (s *Store) Save(ctx context.Context, src Source) (info Info, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordSnapshotDuration("save", float64(time.Since(start).Milliseconds()))
	}()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Info{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"swim_times", "swimmers", "snapshot_meta"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return Info{}, fmt.Errorf("clear %s: %w", table, err)
		}
	}

	insSwimmer, err := tx.PrepareContext(ctx, `INSERT INTO swimmers(ordinal, name, anchor_age) VALUES ($1, $2, $3)`)
	if err != nil {
		return Info{}, err
	}
	defer func() { _ = insSwimmer.Close() }()
	insTime, err := tx.PrepareContext(ctx, `INSERT INTO swim_times(name, event, age, seconds) VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return Info{}, err
	}
	defer func() { _ = insTime.Close() }()

	swimmers := src.Swimmers()
	for i, sw := range swimmers {
		if _, err = insSwimmer.ExecContext(ctx, i, sw.Name, sw.AnchorAge); err != nil {
			return Info{}, fmt.Errorf("insert swimmer %q: %w", sw.Name, err)
		}
		sw.EachTime(func(event string, age int, t float64) {
			if err != nil {
				return
			}
			if _, e := insTime.ExecContext(ctx, sw.Name, event, age, t); e != nil {
				err = fmt.Errorf("insert time %q %s %d: %w", sw.Name, event, age, e)
			}
		})
		if err != nil {
			return Info{}, err
		}
	}

	info = Info{
		ID:            uuid.NewString(),
		ReferenceYear: src.ReferenceYear(),
		Swimmers:      len(swimmers),
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta(id, reference_year, swimmer_count, created_at) VALUES ($1, $2, $3, $4)`,
		info.ID, info.ReferenceYear, info.Swimmers, info.CreatedAt.Unix(),
	); err != nil {
		return Info{}, fmt.Errorf("insert snapshot meta: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return Info{}, err
	}

	s.logger.Info(ctx, "snapshot saved",
		logger.String("id", info.ID),
		logger.Int("swimmers", info.Swimmers),
	)
	return info, nil
}

// Info returns the stored snapshot's metadata.
func (s *Store) Info(ctx context.Context) (Info, error) {
	var (
		info    Info
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, reference_year, swimmer_count, created_at FROM snapshot_meta LIMIT 1`,
	).Scan(&info.ID, &info.ReferenceYear, &info.Swimmers, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Info{}, ErrNoSnapshot
	}
	if err != nil {
		return Info{}, err
	}
	info.CreatedAt = time.Unix(created, 0).UTC()
	return info, nil
}

// Load rebuilds the stored dataset, preserving swimmer order.
func (s *Store) Load(ctx context.Context, opts ...repository.Option) (*repository.Dataset, Info, error) {
	start := time.Now()
	defer func() {
		metrics.RecordSnapshotDuration("load", float64(time.Since(start).Milliseconds()))
	}()

	info, err := s.Info(ctx)
	if err != nil {
		return nil, Info{}, err
	}

	opts = append(opts, repository.WithReferenceYear(info.ReferenceYear), repository.WithCapacity(info.Swimmers))
	ds := repository.NewDataset(opts...)

	rows, err := s.db.QueryContext(ctx, `SELECT name, anchor_age FROM swimmers ORDER BY ordinal`)
	if err != nil {
		return nil, Info{}, err
	}
	byName := make(map[string]*model.Swimmer, info.Swimmers)
	var order []*model.Swimmer
	for rows.Next() {
		var (
			name   string
			anchor int
		)
		if err := rows.Scan(&name, &anchor); err != nil {
			_ = rows.Close()
			return nil, Info{}, err
		}
		sw := model.NewSwimmer(name, anchor)
		byName[name] = sw
		order = append(order, sw)
	}
	if err := rows.Close(); err != nil {
		return nil, Info{}, err
	}
	if err := rows.Err(); err != nil {
		return nil, Info{}, err
	}

	trows, err := s.db.QueryContext(ctx, `SELECT name, event, age, seconds FROM swim_times`)
	if err != nil {
		return nil, Info{}, err
	}
	defer func() { _ = trows.Close() }()
	for trows.Next() {
		var (
			name, event string
			age         int
			secs        float64
		)
		if err := trows.Scan(&name, &event, &age, &secs); err != nil {
			return nil, Info{}, err
		}
		sw, ok := byName[name]
		if !ok {
			s.logger.Warn(ctx, "orphan time in snapshot", logger.String("name", name))
			continue
		}
		sw.RecordTime(event, age, secs)
	}
	if err := trows.Err(); err != nil {
		return nil, Info{}, err
	}

	for _, sw := range order {
		ds.Put(sw)
	}
	s.logger.Info(ctx, "snapshot loaded",
		logger.String("id", info.ID),
		logger.Int("swimmers", ds.Len()),
	)
	return ds, info, nil
}
