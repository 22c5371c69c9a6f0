package model

// Recruit is a swimmer of interest and the events to evaluate them on.
type Recruit struct {
	Name     string
	Events   []string // evaluation order; earlier events weigh more
	Category string   // free text, e.g. sprint, mid, distance
	// Historical marks a swimmer whose later swims must not count.
	Historical bool
}

// Result is one ingested result row.
type Result struct {
	Name  string
	Age   int // age at the time of the swim
	Event string
	Year  int // meet year
	Time  float64
}
