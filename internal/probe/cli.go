package probe

import "os"

// ShowHelp prints usage information for the probe tool.
func ShowHelp() {
	os.Stdout.WriteString(`Scoring Table Probe
===================

Looks up every tabulated value of a category on a running service and checks
each answer against a linear scan of the same rows.

Usage:
  go run ./cmd/probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -category string
        Table category to probe (default "M")
  -events string
        Comma-separated events to probe (default: all)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 10s)
  -verbose
        Log every mismatch as it happens
  -help
        Show this help message

The service rate limit applies to probe lookups; raise
SCORETABLE_RATE_LIMIT_RPS or set it to 0 before probing large tables.

Examples:
  go run ./cmd/probe -category W -workers 16
  go run ./cmd/probe -events 100m,LJ -verbose
`)
}
