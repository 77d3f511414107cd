package event

import "errors"

// Sentinel errors for this package.
var (
	ErrUnknownKind = errors.New("unknown event kind")
)
