package probe

import "time"

// Config holds configuration for a probe run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Category string        // Table category to probe
	Events   []string      // Events to probe; empty means every event
	Workers  int           // Number of concurrent workers
	Timeout  time.Duration // HTTP request timeout
	Verbose  bool          // Log every mismatch as it happens
}

// eventInfo mirrors one element of GET /v1/tables/{category}/events.
type eventInfo struct {
	ID             string `json:"id"`
	Kind           string `json:"kind"`
	HigherIsBetter bool   `json:"higher_is_better"`
	Rows           int    `json:"rows"`
}

type eventsResponse struct {
	Events []eventInfo `json:"events"`
}

// row mirrors one element of GET /v1/tables/{category}/events/{event}/rows.
type row struct {
	Score  int     `json:"score"`
	Record string  `json:"record"`
	Value  float64 `json:"value"`
}

type columnResponse struct {
	Rows []row `json:"rows"`
}

type lookupRequest struct {
	Event string  `json:"event"`
	Value float64 `json:"value"`
}

type lookupResult struct {
	Score    int    `json:"score"`
	Record   string `json:"record"`
	Fallback bool   `json:"fallback"`
}

// Case is one lookup whose answer is known in advance.
type Case struct {
	Event    string
	Record   string
	Value    float64
	Expected int
}

// Mismatch is a case the service answered differently, or not at all.
type Mismatch struct {
	Case
	Got    int
	Status int
	Err    string
}

// Stats holds probe statistics.
type Stats struct {
	Events     int
	Cases      int
	Matched    int
	Mismatched int
	Failed     int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

// Report is the outcome of a probe run.
type Report struct {
	Stats      Stats
	Mismatches []Mismatch
}
