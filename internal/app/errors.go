package service

import "github.com/okian/scoretable/internal/domain/types"

// Sentinel errors for the service.
var (
	ErrNotStarted   = types.ErrNotStarted
	ErrInvalidQuery = types.ErrInvalidQuery
)
