package model

import "errors"

// Sentinel errors for table construction and access.
var (
	ErrUnknownEvent    = errors.New("unknown event")
	ErrNoPointsColumn  = errors.New("no points column")
	ErrEmptyTable      = errors.New("table has no scored rows")
	ErrNonMonotonic    = errors.New("non-monotonic event column")
	ErrDuplicateHeader = errors.New("duplicate column header")
)
