// Package roster loads the recruits to rate along with display-only
// reference scores and manual time adjustments.
package roster

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/okian/swimrate/internal/domain/model"
	"github.com/okian/swimrate/internal/domain/racetime"
)

// ErrInvalidRoster is returned when the roster document fails validation.
var ErrInvalidRoster = errors.New("invalid roster")

// Recruit is one roster entry as written in YAML.
type Recruit struct {
	Name       string   `yaml:"name"`
	Events     []string `yaml:"events"`
	Category   string   `yaml:"category"`
	Historical bool     `yaml:"historical"`
}

// Adjustment is a manually supplied time, e.g. a long-course swim converted
// to short course. Time accepts the same formats as result files.
type Adjustment struct {
	Name  string `yaml:"name"`
	Event string `yaml:"event"`
	Age   int    `yaml:"age"`
	Time  string `yaml:"time"`
	Note  string `yaml:"note,omitempty"`
}

// Roster is the whole document.
type Roster struct {
	Recruits        []Recruit         `yaml:"recruits"`
	ReferenceScores map[string]string `yaml:"reference_scores"`
	Adjustments     []Adjustment      `yaml:"adjustments"`
}

// Load reads and validates a roster file.
func Load(path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Decode reads and validates a roster document.
func Decode(r io.Reader) (*Roster, error) {
	var ros Roster
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ros); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidRoster)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoster, err)
	}
	if err := ros.Validate(); err != nil {
		return nil, err
	}
	ros.ReferenceScores = ros.References()
	return &ros, nil
}

// Validate checks every recruit and adjustment and reports all problems.
func (r *Roster) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(r.Recruits))
	for i, rec := range r.Recruits {
		name := strings.TrimSpace(rec.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("recruit %d: missing name", i))
			continue
		}
		if seen[name] {
			errs = append(errs, fmt.Errorf("recruit %q: listed twice", name))
		}
		seen[name] = true
		if len(rec.Events) == 0 {
			errs = append(errs, fmt.Errorf("recruit %q: no events", name))
		}
		for _, e := range rec.Events {
			if strings.TrimSpace(e) == "" {
				errs = append(errs, fmt.Errorf("recruit %q: empty event", name))
			}
		}
	}
	seenRef := make(map[string]bool, len(r.ReferenceScores))
	for key := range r.ReferenceScores {
		name := strings.TrimSpace(key)
		if name == "" {
			errs = append(errs, errors.New("reference score with empty name"))
			continue
		}
		if seenRef[name] {
			errs = append(errs, fmt.Errorf("reference score %q: listed twice", name))
		}
		seenRef[name] = true
	}
	for i, a := range r.Adjustments {
		if a.Name == "" || a.Event == "" || a.Age <= 0 {
			errs = append(errs, fmt.Errorf("adjustment %d: name, event and age are required", i))
			continue
		}
		if _, err := racetime.Parse(a.Time); err != nil {
			errs = append(errs, fmt.Errorf("adjustment %d: %w", i, err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidRoster, errors.Join(errs...))
}

// Models returns the recruits in roster order.
func (r *Roster) Models() []model.Recruit {
	out := make([]model.Recruit, 0, len(r.Recruits))
	for _, rec := range r.Recruits {
		out = append(out, model.Recruit{
			Name:       strings.TrimSpace(rec.Name),
			Events:     append([]string(nil), rec.Events...),
			Category:   rec.Category,
			Historical: rec.Historical,
		})
	}
	return out
}

// References returns the reference scores keyed by trimmed recruit name, the
// form Models uses for identities.
func (r *Roster) References() map[string]string {
	out := make(map[string]string, len(r.ReferenceScores))
	for name, score := range r.ReferenceScores {
		out[strings.TrimSpace(name)] = score
	}
	return out
}

// Seconds returns the adjustment time in seconds.
func (a Adjustment) Seconds() (float64, error) {
	t, err := racetime.Parse(a.Time)
	if err != nil {
		return 0, fmt.Errorf("adjustment for %q: %w", a.Name, err)
	}
	return t, nil
}

// Encode writes r as YAML.
func (r *Roster) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return enc.Close()
}
