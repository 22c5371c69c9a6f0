package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/swimrate/internal/domain/model"
	"github.com/okian/swimrate/internal/domain/racetime"
)

// Column names accepted for each field, first match wins.
var (
	nameColumns  = []string{"full_name", "name", "swimmer"}
	ageColumns   = []string{"swimmer_age", "age"}
	eventColumns = []string{"event_desc", "event"}
	timeColumns  = []string{"alt_adj_swim_time_formatted", "swim_time_formatted", "time"}
)

type columns struct {
	name, age, event, time int
}

func (c columns) width() int {
	return max(c.name, c.age, c.event, c.time) + 1
}

// RowError describes one skipped row. Line is 1-based and counts the header.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Decode converts parsed rows into results for a meet held in year.
// Malformed rows are returned as RowErrors and do not stop decoding.
func Decode(rows [][]string, year int) ([]model.Result, []RowError, error) {
	if len(rows) == 0 {
		return nil, nil, ErrEmptyFile
	}
	cols, err := locate(rows[0])
	if err != nil {
		return nil, nil, err
	}

	results := make([]model.Result, 0, len(rows)-1)
	var skipped []RowError
	for i, row := range rows[1:] {
		r, err := decodeRow(row, cols, year)
		if err != nil {
			skipped = append(skipped, RowError{Line: i + 2, Err: err})
			continue
		}
		results = append(results, r)
	}
	return results, skipped, nil
}

func locate(header []string) (columns, error) {
	c := columns{
		name:  findColumn(header, nameColumns),
		age:   findColumn(header, ageColumns),
		event: findColumn(header, eventColumns),
		time:  findColumn(header, timeColumns),
	}
	var missing []string
	if c.name < 0 {
		missing = append(missing, nameColumns[0])
	}
	if c.age < 0 {
		missing = append(missing, ageColumns[0])
	}
	if c.event < 0 {
		missing = append(missing, eventColumns[0])
	}
	if c.time < 0 {
		missing = append(missing, timeColumns[0])
	}
	if len(missing) > 0 {
		return c, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return c, nil
}

func decodeRow(row []string, c columns, year int) (model.Result, error) {
	if len(row) < c.width() {
		return model.Result{}, fmt.Errorf("%w: %d cells", ErrBadRow, len(row))
	}
	name := cleanCell(row[c.name])
	event := cleanCell(row[c.event])
	if name == "" || event == "" {
		return model.Result{}, fmt.Errorf("%w: empty name or event", ErrBadRow)
	}
	age, err := parseAge(cleanCell(row[c.age]))
	if err != nil {
		return model.Result{}, err
	}
	t, err := parseTime(cleanCell(row[c.time]))
	if err != nil {
		return model.Result{}, err
	}
	return model.Result{Name: name, Age: age, Event: event, Year: year, Time: t}, nil
}

// parseTime reads a formatted race time or, failing that, a plain number of
// seconds as spreadsheets store numeric cells ("21.7", "25").
func parseTime(s string) (float64, error) {
	t, err := racetime.Parse(s)
	if err == nil || strings.Contains(s, ":") {
		return t, err
	}
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, err
	}
	return racetime.FromValue(f)
}

func parseAge(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n, nil
	}
	// Spreadsheets sometimes store whole numbers as 14.0.
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f == math.Trunc(f) {
		return int(f), nil
	}
	return 0, fmt.Errorf("%w: age %q", ErrBadRow, s)
}

// cleanCell strips whitespace and the ="..." wrapping some exports use to
// keep spreadsheets from reformatting values.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "=")
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// findColumn searches for a column by multiple possible names (case-insensitive).
// Spaces, underscores, and hyphens are ignored.
func findColumn(header []string, possibleNames []string) int {
	for _, name := range possibleNames {
		want := normalize(name)
		for i, col := range header {
			if normalize(cleanCell(col)) == want {
				return i
			}
		}
	}
	return -1
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}
