package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/okian/swimrate/internal/adapters/roster"
	"github.com/okian/swimrate/internal/adapters/snapshot"
	service "github.com/okian/swimrate/internal/app"
	"github.com/okian/swimrate/internal/config"
	"github.com/okian/swimrate/pkg/logger"
	"github.com/okian/swimrate/pkg/metrics"
)

// session is what every command needs once configuration is resolved.
type session struct {
	cfg   *config.Config
	store *snapshot.Store
	svc   *service.Service
	log   logger.Logger
}

func (r *session) close(ctx context.Context) {
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.log.Warn(ctx, "closing snapshot store", logger.Error(err))
		}
	}
	if r.cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(r.cfg.MetricsFile); err != nil {
			r.log.Warn(ctx, "writing metrics textfile", logger.String("path", r.cfg.MetricsFile), logger.Error(err))
		}
	}
	if err := logger.Sync(); err != nil {
		r.log.Error(ctx, "logger sync", logger.Error(err))
	}
}

// newApp builds the command tree. Reports are written to out.
func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:  "swimrate",
		Usage: "rate swim recruits by how fast they improve",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a YAML configuration file",
			},
		},
		Before: func(c *cli.Context) error {
			if path := c.String("config"); path != "" {
				return os.Setenv(config.EnvConfigFile, path)
			}
			return nil
		},
		Writer: out,
		Commands: []*cli.Command{
			ingestCommand(out),
			rateCommand(out),
			inspectCommand(out),
		},
	}
}

// setup loads configuration, initializes logging, and opens the snapshot
// store. override may adjust the loaded configuration before validation.
func setup(ctx context.Context, override func(*config.Config)) (*session, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}
	l := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		l.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := snapshot.Open(ctx, snapshot.Driver(cfg.SnapshotDriver), cfg.SnapshotDSN,
		snapshot.WithLogger(l.Named("snapshot")))
	if err != nil {
		return nil, err
	}

	svc, err := service.New(ctx,
		service.WithConfig(cfg),
		service.WithSnapshotStore(store),
		service.WithLogger(l),
	)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &session{cfg: cfg, store: store, svc: svc, log: l}, nil
}

// loadRoster reads the roster file. When optional is set a missing file
// yields a nil roster instead of an error.
func loadRoster(ctx context.Context, rt *session, optional bool) (*roster.Roster, error) {
	ros, err := roster.Load(rt.cfg.RosterFile)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			rt.log.Warn(ctx, "roster not found; ingesting without adjustments", logger.String("path", rt.cfg.RosterFile))
			return nil, nil
		}
		return nil, err
	}
	return ros, nil
}

func ingestCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "ingest",
		Usage: "read result files and store a dataset snapshot",
		Action: func(c *cli.Context) error {
			ctx := c.Context
			rt, err := setup(ctx, nil)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			ros, err := loadRoster(ctx, rt, true)
			if err != nil {
				return err
			}
			ds, stats, err := rt.svc.Ingest(ctx, ros)
			if err != nil {
				return err
			}
			info, err := rt.svc.Save(ctx, ds)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "snapshot %s: %d swimmers from %d files (%d results, %d skipped rows, %d duplicate files)\n",
				info.ID, info.Swimmers, stats.Files, stats.Results, stats.Skipped, stats.Duplicates)
			return err
		},
	}
}

func rateCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "rate",
		Usage: "rate and grade the roster recruits",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "strategy",
				Usage: "rating strategy: zscore, percentile or rank",
			},
			&cli.BoolFlag{
				Name:  "fresh",
				Usage: "ignore the stored snapshot and re-read result files",
			},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			var override func(*config.Config)
			if c.IsSet("strategy") {
				strategy := c.String("strategy")
				override = func(cfg *config.Config) { cfg.Strategy = strategy }
			}
			rt, err := setup(ctx, override)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			ros, err := loadRoster(ctx, rt, false)
			if err != nil {
				return err
			}
			ds, err := rt.svc.Dataset(ctx, ros, c.Bool("fresh"))
			if err != nil {
				return err
			}
			report, err := rt.svc.Rate(ctx, ds, ros)
			if err != nil {
				return err
			}
			return report.Render(out)
		},
	}
}

func inspectCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "print one swimmer's times and improvements",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "name",
				Usage:    "swimmer name as written in the result files",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			rt, err := setup(ctx, nil)
			if err != nil {
				return err
			}
			defer rt.close(ctx)

			ros, err := loadRoster(ctx, rt, true)
			if err != nil {
				return err
			}
			ds, err := rt.svc.Dataset(ctx, ros, false)
			if err != nil {
				return err
			}
			return service.Inspect(out, ds, c.String("name"))
		},
	}
}
