// Package cohort selects the peer window a swimmer is normalized against.
package cohort

import (
	"sort"

	"github.com/okian/swimrate/internal/domain/model"
)

// Population is the read-only swimmer set a cohort is drawn from.
type Population interface {
	// Swimmers returns every swimmer in a stable order.
	Swimmers() []*model.Swimmer
}

// Window is a time-ranked slice of peers around a target swimmer.
type Window struct {
	Event string
	// ReferenceAge is the target's oldest recorded age for Event. Peers are
	// compared on their time at this age, not their own oldest age.
	ReferenceAge int
	// Peers are ordered fastest first and include the target when Found.
	Peers []*model.Swimmer
	// Candidates is the size of the ranked list before windowing.
	Candidates int
	// TargetIndex is the target's position in Peers, or -1.
	TargetIndex int
	// Found is false when the target was missing from its own ranked list;
	// the window then starts at the fastest candidate.
	Found bool
}

// Size returns the number of peers in the window.
func (w Window) Size() int { return len(w.Peers) }

// Selector builds peer windows.
type Selector struct {
	classGrace int
	below      int
	above      int
}

// NewSelector creates a selector with the default window of 30 above and
// 30 below and a class grace of two years.
func NewSelector(opts ...Option) *Selector {
	s := &Selector{
		classGrace: DefaultClassGrace,
		below:      DefaultBelow,
		above:      DefaultAbove,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxSize is the largest window the selector can return.
func (s *Selector) MaxSize() int {
	return s.below + s.above + 1
}

type ranked struct {
	swimmer *model.Swimmer
	time    float64
}

// Select returns the peer window for target in event. ok is false when the
// target has no recorded time for event at all.
func (s *Selector) Select(pop Population, target *model.Swimmer, event string) (Window, bool) {
	refAge, ok := target.OldestAge(event)
	if !ok {
		return Window{Event: event, TargetIndex: -1}, false
	}

	var list []ranked
	for _, peer := range pop.Swimmers() {
		if abs(peer.AnchorAge-target.AnchorAge) > s.classGrace {
			continue
		}
		t, ok := peer.Time(event, refAge)
		if !ok {
			continue
		}
		list = append(list, ranked{swimmer: peer, time: t})
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].time < list[j].time })

	idx := -1
	for i := range list {
		if list[i].swimmer == target || list[i].swimmer.Name == target.Name {
			idx = i
			break
		}
	}

	w := Window{
		Event:        event,
		ReferenceAge: refAge,
		Candidates:   len(list),
		TargetIndex:  -1,
		Found:        idx >= 0,
	}
	anchor := idx
	if anchor < 0 {
		anchor = 0
	}
	lo := max(0, anchor-s.above)
	hi := min(len(list), anchor+s.below)
	if hi < lo {
		hi = lo
	}

	w.Peers = make([]*model.Swimmer, 0, hi-lo)
	for _, r := range list[lo:hi] {
		w.Peers = append(w.Peers, r.swimmer)
	}
	if w.Found {
		w.TargetIndex = idx - lo
	}
	return w, true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
