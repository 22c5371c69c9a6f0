// Package grading standardizes raw recruit ratings and assigns letter grades.
package grading

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/okian/swimrate/internal/domain/model"
	"github.com/okian/swimrate/internal/domain/types"
)

// Placeholder is printed when a recruit has no reference score.
const Placeholder = "-"

type threshold struct {
	above float64
	grade string
}

// Scores strictly above a bound earn its grade; anything lower is a D.
var thresholds = []threshold{
	{1.5, "A+"},
	{1, "A"},
	{0.5, "A-"},
	{0.25, "B+"},
	{0, "B"},
	{-0.25, "B-"},
	{-0.5, "C+"},
	{-1, "C"},
	{-1.5, "C-"},
}

// Letter maps a standardized score to a grade.
func Letter(z float64) string {
	for _, t := range thresholds {
		if z > t.above {
			return t.grade
		}
	}
	return "D"
}

// Standardize returns the z-score of every raw value along with the
// population mean and sample standard deviation.
func Standardize(raw []float64) (z []float64, mean, stddev float64, err error) {
	if len(raw) < 2 {
		return nil, 0, 0, fmt.Errorf("%w: got %d", ErrTooFewScores, len(raw))
	}
	mean, stddev = stat.MeanStdDev(raw, nil)
	if stddev == 0 {
		return nil, mean, 0, fmt.Errorf("%w: all %d scores equal %v", ErrNoSpread, len(raw), mean)
	}
	z = make([]float64, len(raw))
	for i, v := range raw {
		z[i] = stat.StdScore(v, mean, stddev)
	}
	return z, mean, stddev, nil
}

// Summary describes the population a grading pass standardized against.
type Summary struct {
	Mean   float64
	StdDev float64
}

// Grade standardizes ratings and returns report entries ordered best first.
// references maps a recruit name to an externally assigned score that is
// carried for display only.
func Grade(ratings []model.Rating, references map[string]string) ([]types.Entry, Summary, error) {
	raw := make([]float64, len(ratings))
	for i, r := range ratings {
		raw[i] = r.Raw
	}
	z, mean, stddev, err := Standardize(raw)
	if err != nil {
		return nil, Summary{Mean: mean, StdDev: stddev}, err
	}

	entries := make([]types.Entry, len(ratings))
	for i, r := range ratings {
		ref, ok := references[r.Name]
		entries[i] = types.Entry{
			Name:         r.Name,
			Category:     r.Category,
			Raw:          r.Raw,
			Standardized: z[i],
			Grade:        Letter(z[i]),
			Reference:    ref,
			HasReference: ok,
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Standardized > entries[j].Standardized
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, Summary{Mean: mean, StdDev: stddev}, nil
}

// Render writes one line per entry: name, grade, reference, category.
func Render(w io.Writer, entries []types.Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "%s: %s (%s) %s\n", e.Name, e.Grade, e.ReferenceOr(Placeholder), e.Category); err != nil {
			return err
		}
	}
	return nil
}
