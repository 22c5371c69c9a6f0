// Package model contains domain models passed between layers.
package model

import "sort"

// Swimmer holds the best time a swimmer has recorded per (event, age).
// Lower times are better; a stored time never regresses.
type Swimmer struct {
	Name string
	// AnchorAge is the swimmer's age at the dataset reference year.
	AnchorAge int

	times map[string]map[int]float64
}

// NewSwimmer creates an empty record.
func NewSwimmer(name string, anchorAge int) *Swimmer {
	return &Swimmer{
		Name:      name,
		AnchorAge: anchorAge,
		times:     make(map[string]map[int]float64),
	}
}

// RecordTime stores t for (event, age) unless a faster time is already held.
func (s *Swimmer) RecordTime(event string, age int, t float64) {
	ages, ok := s.times[event]
	if !ok {
		ages = make(map[int]float64)
		s.times[event] = ages
	}
	if cur, ok := ages[age]; ok && cur <= t {
		return
	}
	ages[age] = t
}

// Time returns the best time for (event, age).
func (s *Swimmer) Time(event string, age int) (float64, bool) {
	t, ok := s.times[event][age]
	return t, ok
}

// Improvement returns time(pair.Younger) - time(pair.Older). Positive means
// the swimmer got faster. ok is false when either endpoint is missing.
func (s *Swimmer) Improvement(event string, pair AgePair) (float64, bool) {
	younger, ok := s.Time(event, pair.Younger)
	if !ok {
		return 0, false
	}
	older, ok := s.Time(event, pair.Older)
	if !ok {
		return 0, false
	}
	return younger - older, true
}

// OldestAge returns the highest age with a recorded time for event.
func (s *Swimmer) OldestAge(event string) (int, bool) {
	ages, ok := s.times[event]
	if !ok || len(ages) == 0 {
		return 0, false
	}
	first := true
	oldest := 0
	for age := range ages {
		if first || age > oldest {
			oldest = age
			first = false
		}
	}
	return oldest, true
}

// TruncateAbove drops every entry recorded at an age greater than maxAge.
// Events left with no entries are removed.
func (s *Swimmer) TruncateAbove(maxAge int) int {
	dropped := 0
	for event, ages := range s.times {
		for age := range ages {
			if age > maxAge {
				delete(ages, age)
				dropped++
			}
		}
		if len(ages) == 0 {
			delete(s.times, event)
		}
	}
	return dropped
}

// Events returns the recorded event identifiers in lexical order.
func (s *Swimmer) Events() []string {
	out := make([]string, 0, len(s.times))
	for event := range s.times {
		out = append(out, event)
	}
	sort.Strings(out)
	return out
}

// Ages returns the ages recorded for event in ascending order.
func (s *Swimmer) Ages(event string) []int {
	ages := s.times[event]
	out := make([]int, 0, len(ages))
	for age := range ages {
		out = append(out, age)
	}
	sort.Ints(out)
	return out
}

// EachTime visits every (event, age, time) triple in event then age order.
func (s *Swimmer) EachTime(fn func(event string, age int, t float64)) {
	for _, event := range s.Events() {
		for _, age := range s.Ages(event) {
			fn(event, age, s.times[event][age])
		}
	}
}
