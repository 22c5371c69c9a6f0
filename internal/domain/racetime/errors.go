package racetime

import "errors"

// Sentinel kinds for race-time parsing errors.
var (
	ErrMalformedTime = errors.New("malformed race time")
	ErrUnsupported   = errors.New("unsupported race time value")
)
