package model

// PairContribution records how one age-pair fed an event score.
type PairContribution struct {
	Pair   AgePair
	Value  float64 // z-score or percentile delta
	Weight float64
	// Cohort statistics; zero in percentile mode.
	Samples int
	Mean    float64
	StdDev  float64
	Guarded bool // small-sample guard applied
}

// EventContribution records one event's weighted share of a rating.
type EventContribution struct {
	Event      string
	Score      float64
	Weight     float64
	CohortSize int
	Pairs      []PairContribution
}

// Rating is the raw, pre-standardization score of one recruit.
type Rating struct {
	Name     string
	Category string
	Raw      float64
	Events   []EventContribution
}

// HasData reports whether any age-pair contributed to the rating.
func (r Rating) HasData() bool {
	for _, e := range r.Events {
		if len(e.Pairs) > 0 {
			return true
		}
	}
	return false
}
