// Package model contains the scoring-table domain models passed between layers.
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/scoretable/internal/domain/event"
	"github.com/okian/scoretable/internal/domain/record"
)

// PerformanceRecord is the cell-level datum for one (row, event) pair.
type PerformanceRecord struct {
	Raw     string  // original spreadsheet text
	Cleaned string  // canonical text; record.Absent when missing
	Value   float64 // seconds, meters or points; meaningful only when Valid
	Valid   bool
}

// NewPerformanceRecord cleans and parses raw.
func NewPerformanceRecord(raw string) (PerformanceRecord, record.Repairs) {
	cleaned, fired := record.Clean(raw)
	v, ok := record.Parse(cleaned)
	return PerformanceRecord{Raw: raw, Cleaned: cleaned, Value: v, Valid: ok}, fired
}

// Unparsable reports a present record whose text is not a number.
func (p PerformanceRecord) Unparsable() bool {
	return !p.Valid && p.Cleaned != record.Absent
}

// ScoringRow is one row of the scoring table.
type ScoringRow struct {
	Score   int
	Records map[string]PerformanceRecord
}

// Entry is one (score, record) pair of an event column.
type Entry struct {
	Score  int
	Record PerformanceRecord
}

// Column is the candidate sequence of one event: every row with a parsed
// value, ordered by score descending as the table orders it.
type Column struct {
	Event      event.Descriptor
	Entries    []Entry
	Monotonic  bool // values never get worse as score increases
	Unparsable int
}

// Len returns the number of usable entries.
func (c *Column) Len() int {
	return len(c.Entries)
}

// Better reports whether a is a strictly better performance than b, at
// the hundredth resolution lookups use.
func (c *Column) Better(a, b float64) bool {
	ha, hb := record.Hundredths(a), record.Hundredths(b)
	if c.Event.Kind.HigherIsBetter() {
		return ha > hb
	}
	return ha < hb
}

// Stats summarises how a table was built.
type Stats struct {
	Rows         int           `json:"rows"`
	DroppedRows  int           `json:"dropped_rows"`
	Unparsable   int           `json:"unparsable"`
	NonMonotonic []string      `json:"non_monotonic,omitempty"`
	Repairs      record.Report `json:"repairs"`
}

// Table is an immutable scoring table for one category.
type Table struct {
	ID          uuid.UUID
	Category    string
	Source      string
	LoadedAt    time.Time
	PointsLabel string
	Events      []event.Descriptor
	Rows        []ScoringRow
	Stats       Stats

	columns map[string]*Column
	folded  map[string]string
}

// Column returns the candidate sequence for an event. Identifiers match
// exactly first, then case- and space-insensitively.
func (t *Table) Column(eventID string) (*Column, error) {
	if c, ok := t.columns[eventID]; ok {
		return c, nil
	}
	if id, ok := t.folded[fold(eventID)]; ok {
		return t.columns[id], nil
	}
	return nil, ErrUnknownEvent
}

// Columns returns the columns in table header order.
func (t *Table) Columns() []*Column {
	out := make([]*Column, 0, len(t.Events))
	for _, d := range t.Events {
		out = append(out, t.columns[d.ID])
	}
	return out
}

func fold(id string) string {
	return strings.ToLower(strings.Join(strings.Fields(id), ""))
}
