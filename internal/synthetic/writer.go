package synthetic

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/okian/swimrate/internal/adapters/roster"
	"github.com/okian/swimrate/internal/domain/racetime"
)

// File permission constants.
const (
	dirPermission  = 0o755
	filePermission = 0o600
)

var header = []string{"full_name", "swimmer_age", "event_desc", "alt_adj_swim_time_formatted"}

// MeetFile returns the result file name for a season, carrying the meet
// year prefix the ingest loader expects.
func MeetFile(year int) string {
	return fmt.Sprintf("%d_synthetic.csv", year)
}

// WriteResults writes one CSV per season into dir. Seasons without a single
// swim produce no file.
func (p *Population) WriteResults(ctx context.Context, dir string) (Stats, error) {
	st := Stats{Swimmers: len(p.Swimmers)}
	if err := os.MkdirAll(dir, dirPermission); err != nil {
		return st, fmt.Errorf("create results dir: %w", err)
	}
	for season := 0; season < p.Config.Seasons; season++ {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		year := p.Config.FirstYear + season
		rows := p.rows(year)
		if len(rows) == 0 {
			continue
		}
		if err := writeCSV(filepath.Join(dir, MeetFile(year)), rows); err != nil {
			return st, err
		}
		st.Files++
		st.Rows += len(rows)
	}
	return st, nil
}

func (p *Population) rows(year int) [][]string {
	var rows [][]string
	for _, s := range p.Swimmers {
		age := strconv.Itoa(s.AgeIn(p.Config.FirstYear, year))
		for _, event := range p.Config.Events {
			t, ok := s.Times[event][year]
			if !ok {
				continue
			}
			rows = append(rows, []string{s.Name, age, event, racetime.Format(t)})
		}
	}
	return rows
}

func writeCSV(path string, rows [][]string) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Roster returns the roster document for the population's recruits.
func (p *Population) Roster() *roster.Roster {
	ros := &roster.Roster{ReferenceScores: make(map[string]string, len(p.References))}
	for _, i := range p.Recruits {
		s := p.Swimmers[i]
		ros.Recruits = append(ros.Recruits, roster.Recruit{
			Name:     s.Name,
			Events:   append([]string(nil), p.Config.Events...),
			Category: s.Category,
		})
	}
	for name, grade := range p.References {
		ros.ReferenceScores[name] = grade
	}
	return ros
}

// WriteRoster writes the roster YAML to path.
func (p *Population) WriteRoster(path string) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, dirPermission); err != nil {
			return fmt.Errorf("create roster dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermission)
	if err != nil {
		return fmt.Errorf("create roster: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	return p.Roster().Encode(f)
}
