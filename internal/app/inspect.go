package service

import (
	"fmt"
	"io"

	"github.com/okian/swimrate/internal/adapters/repository"
	"github.com/okian/swimrate/internal/domain/model"
	"github.com/okian/swimrate/internal/domain/racetime"
)

// Inspect writes one swimmer's best times and ladder improvements.
func Inspect(w io.Writer, ds *repository.Dataset, name string) error {
	sw, err := ds.Lookup(name)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s (age %d in %d)\n", sw.Name, sw.AnchorAge, ds.ReferenceYear()); err != nil {
		return err
	}
	for _, event := range sw.Events() {
		if _, err := fmt.Fprintf(w, "  %s\n", event); err != nil {
			return err
		}
		for _, age := range sw.Ages(event) {
			t, _ := sw.Time(event, age)
			if _, err := fmt.Fprintf(w, "    %2d  %s\n", age, racetime.Format(t)); err != nil {
				return err
			}
		}
		for _, pair := range model.Ladder {
			if imp, ok := sw.Improvement(event, pair); ok {
				if _, err := fmt.Fprintf(w, "    %s  %+.2f\n", pair, imp); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
