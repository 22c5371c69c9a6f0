package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/okian/swimrate/internal/synthetic"
	"github.com/okian/swimrate/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		os.Stderr.WriteString("gen-results: " + err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	def := synthetic.DefaultConfig()
	return &cli.App{
		Name:   "gen-results",
		Usage:  "write synthetic meet results and a matching roster",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Value: "results", Usage: "directory for the result CSVs"},
			&cli.StringFlag{Name: "roster", Value: "roster.yaml", Usage: "roster YAML path; empty skips it"},
			&cli.IntFlag{Name: "swimmers", Value: def.Swimmers, Usage: "population size"},
			&cli.IntFlag{Name: "recruits", Value: def.Recruits, Usage: "roster size"},
			&cli.IntFlag{Name: "first-year", Value: def.FirstYear, Usage: "year of the first meet file"},
			&cli.IntFlag{Name: "seasons", Value: def.Seasons, Usage: "number of yearly meet files"},
			&cli.Int64Flag{Name: "seed", Value: def.Seed, Usage: "random seed"},
			&cli.StringSliceFlag{Name: "event", Value: cli.NewStringSlice(def.Events...), Usage: "event to generate, repeatable"},
		},
		Action: func(c *cli.Context) error {
			if err := logger.Init(); err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}
			return generate(c.Context, out, synthetic.Config{
				Swimmers:  c.Int("swimmers"),
				Recruits:  c.Int("recruits"),
				Events:    c.StringSlice("event"),
				FirstYear: c.Int("first-year"),
				Seasons:   c.Int("seasons"),
				Seed:      c.Int64("seed"),
			}, c.String("dir"), c.String("roster"))
		},
	}
}

func generate(ctx context.Context, out io.Writer, cfg synthetic.Config, dir, rosterPath string) error {
	g, err := synthetic.NewGenerator(cfg, synthetic.WithLogger(logger.Named("synthetic")))
	if err != nil {
		return err
	}
	pop, err := g.Generate(ctx)
	if err != nil {
		return err
	}
	st, err := pop.WriteResults(ctx, dir)
	if err != nil {
		return err
	}
	if rosterPath != "" {
		if err := pop.WriteRoster(rosterPath); err != nil {
			return err
		}
		st.Recruits = len(pop.Recruits)
	}
	_, err = fmt.Fprintf(out, "wrote %d rows for %d swimmers in %d files; %d recruits\n",
		st.Rows, st.Swimmers, st.Files, st.Recruits)
	return err
}
