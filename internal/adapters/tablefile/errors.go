package tablefile

import "errors"

// Sentinel errors for reading and locating table files.
var (
	ErrNoTableFile       = errors.New("no table file for category")
	ErrUnsupportedFormat = errors.New("unsupported table file format")
	ErrEmptyFile         = errors.New("table file has no header row")
	ErrNoSheet           = errors.New("workbook has no sheets")
	ErrMalformedFile     = errors.New("malformed table file")
)
