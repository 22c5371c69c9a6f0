package model

import "fmt"

// AgePair is one improvement interval, from Younger to Older.
type AgePair struct {
	Younger int
	Older   int
}

func (p AgePair) String() string {
	return fmt.Sprintf("%d-%d", p.Younger, p.Older)
}

// Ladder is the canonical sequence of improvement intervals, listed oldest
// first because weighting decays from the oldest pair downwards.
var Ladder = []AgePair{
	{Younger: 16, Older: 17},
	{Younger: 15, Older: 16},
	{Younger: 14, Older: 15},
	{Younger: 13, Older: 14},
}
