package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/okian/swimrate/internal/domain/model"
	"github.com/okian/swimrate/pkg/logger"
	"github.com/okian/swimrate/pkg/metrics"
)

// Dataset maps swimmer identity to their time history.
//
// Swimmers are kept in first-seen order so cohort ties break the same way on
// every run. The dataset is written during ingestion and by the historical
// truncation pass; scoring only reads it.
type Dataset struct {
	mu            sync.RWMutex
	referenceYear int
	capacity      int
	order         []*model.Swimmer
	byName        map[string]*model.Swimmer

	logger logger.Logger
}

// NewDataset constructs an empty dataset with configuration options.
func NewDataset(opts ...Option) *Dataset {
	d := &Dataset{
		referenceYear: defaultReferenceYear,
		capacity:      defaultCapacity,
		logger:        logger.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.order = make([]*model.Swimmer, 0, d.capacity)
	d.byName = make(map[string]*model.Swimmer, d.capacity)
	return d
}

// ReferenceYear returns the anchor year.
func (d *Dataset) ReferenceYear() int {
	return d.referenceYear
}

// AnchorAge converts an age at a meet year into an age at the reference year.
func (d *Dataset) AnchorAge(meetYear, age int) int {
	return d.referenceYear - meetYear + age
}

// Observe records one result. The swimmer is created on first sight with the
// anchor age derived from that result; later results only add times.
func (d *Dataset) Observe(ctx context.Context, r model.Result) error {
	name := strings.TrimSpace(r.Name)
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidResult)
	case r.Event == "":
		return fmt.Errorf("%w: %s: empty event", ErrInvalidResult, name)
	case r.Age <= 0:
		return fmt.Errorf("%w: %s: age %d", ErrInvalidResult, name, r.Age)
	case r.Time <= 0:
		return fmt.Errorf("%w: %s: time %v", ErrInvalidResult, name, r.Time)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.byName[name]
	if !ok {
		s = model.NewSwimmer(name, d.AnchorAge(r.Year, r.Age))
		d.byName[name] = s
		d.order = append(d.order, s)
		d.logger.Debug(ctx, "new swimmer",
			logger.String("name", name),
			logger.Int("anchor_age", s.AnchorAge),
		)
	}
	s.RecordTime(r.Event, r.Age, r.Time)
	return nil
}

// Adjust records a manually supplied time for a known swimmer.
func (d *Dataset) Adjust(_ context.Context, name, event string, age int, t float64) error {
	if event == "" || age <= 0 || t <= 0 {
		return fmt.Errorf("%w: adjustment for %s", ErrInvalidResult, name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	s.RecordTime(event, age, t)
	return nil
}

// Put inserts or replaces a whole swimmer record, used when restoring a snapshot.
func (d *Dataset) Put(s *model.Swimmer) {
	if s == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.byName[s.Name]; ok {
		for i, cur := range d.order {
			if cur.Name == s.Name {
				d.order[i] = s
				break
			}
		}
	} else {
		d.order = append(d.order, s)
	}
	d.byName[s.Name] = s
}

// Lookup returns the swimmer record for name.
// Returns ErrNotFound if the swimmer is unknown.
func (d *Dataset) Lookup(name string) (*model.Swimmer, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return s, nil
}

// Swimmers returns the population in first-seen order. The slice is a copy;
// the records are shared.
func (d *Dataset) Swimmers() []*model.Swimmer {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]*model.Swimmer, len(d.order))
	copy(out, d.order)
	return out
}

// Len returns the number of swimmers.
func (d *Dataset) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.order)
}

// Truncate drops every time recorded above maxAge for name.
func (d *Dataset) Truncate(ctx context.Context, name string, maxAge int) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.byName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	dropped := s.TruncateAbove(maxAge)
	if dropped > 0 {
		metrics.RecordRecruitTruncated()
		d.logger.Debug(ctx, "truncated historical swimmer",
			logger.String("name", name),
			logger.Int("max_age", maxAge),
			logger.Int("dropped", dropped),
		)
	}
	return dropped, nil
}

// Publish reports the population size to metrics.
func (d *Dataset) Publish() {
	metrics.UpdateDatasetSwimmers(d.Len())
}
