package repository

import "errors"

// Sentinel kinds for table access errors.
var (
	ErrTableNotFound   = errors.New("table not found")
	ErrInvalidCategory = errors.New("invalid category")
)
