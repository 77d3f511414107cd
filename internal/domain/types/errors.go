package types

import "errors"

// Sentinel errors any implementation of the table service may return.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrInvalidQuery = errors.New("invalid lookup query")
)
