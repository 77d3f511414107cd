package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrRateLimited   = errors.New("rate limit exceeded")
	ErrMissingQuery  = errors.New("either value or components is required")
	ErrAmbiguousBody = errors.New("value and components are mutually exclusive")
)
