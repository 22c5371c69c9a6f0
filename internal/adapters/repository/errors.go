package repository

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrNotFound      = errors.New("swimmer not found")
	ErrInvalidResult = errors.New("invalid result")
)
