package scoring

import "errors"

// Sentinel errors for lookups.
var (
	ErrNoUsableRows = errors.New("no usable data for event")
	ErrInvalidQuery = errors.New("query value must be a positive number")
)
