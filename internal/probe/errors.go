package probe

import "errors"

// Sentinel errors for probe runs.
var (
	ErrUnhealthy = errors.New("service health check failed")
	ErrNoEvents  = errors.New("no events to probe")
	ErrMismatch  = errors.New("lookups disagree with the table")
	ErrStatus    = errors.New("unexpected response status")
)
