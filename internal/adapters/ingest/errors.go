package ingest

import "errors"

// Sentinel kinds for ingestion errors.
var (
	ErrUnsupportedFile = errors.New("unsupported result file")
	ErrMissingColumn   = errors.New("missing required column")
	ErrBadFilename     = errors.New("result filename has no year prefix")
	ErrEmptyFile       = errors.New("result file is empty")
	ErrBadRow          = errors.New("malformed result row")
)
