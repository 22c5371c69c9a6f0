package snapshot

import "errors"

// Sentinel kinds for snapshot errors.
var (
	ErrNoSnapshot        = errors.New("no snapshot stored")
	ErrUnsupportedDriver = errors.New("unsupported snapshot driver")
)
