package grading

import "errors"

// Sentinel kinds for grading errors.
var (
	ErrTooFewScores = errors.New("at least two scores are required to standardize")
	ErrNoSpread     = errors.New("scores have zero standard deviation")
)
