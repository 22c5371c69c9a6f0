package rating

import "errors"

// Sentinel kinds for rating errors.
var (
	ErrUnknownStrategy = errors.New("unknown rating strategy")
	ErrNilRecruit      = errors.New("recruit has no name")
)
