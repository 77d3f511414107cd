// Package scoring finds the score a performance earns against a scoring table.
package scoring

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/okian/scoretable/internal/domain/event"
	"github.com/okian/scoretable/internal/domain/model"
	"github.com/okian/scoretable/internal/domain/record"
)

// DefaultRadius is the number of rows shown on each side of a match.
const DefaultRadius = 3

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithRadius sets how many better and worse rows surround a match.
func WithRadius(radius int) Option {
	return func(e *Engine) {
		if radius >= 0 {
			e.radius = radius
		}
	}
}

// Neighbor is one row of the neighborhood around a match.
type Neighbor struct {
	Score   int     `json:"score"`
	Record  string  `json:"record"`
	Value   float64 `json:"value"`
	Matched bool    `json:"matched"`
}

// Result is the outcome of a lookup.
type Result struct {
	Event        event.Descriptor `json:"event"`
	Query        float64          `json:"query"`
	Score        int              `json:"score"`
	Record       string           `json:"record"`
	Value        float64          `json:"value"`
	Fallback     bool             `json:"fallback"` // nothing qualified; the weakest row was returned
	Neighborhood []Neighbor       `json:"neighborhood"`
}

// Scorer answers lookups against one event column.
type Scorer interface {
	Lookup(ctx context.Context, col *model.Column, value float64) (Result, error)
}

// Engine implements Scorer with a boundary search over the column.
type Engine struct {
	radius int
}

// NewEngine creates an engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{radius: DefaultRadius}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Radius returns the configured neighborhood radius.
func (e *Engine) Radius() int {
	return e.radius
}

// Lookup finds the best row whose performance the query meets or beats.
//
// Entries are ordered best first. For field and score events a row is met
// when its value is <= the query; for times when its value is >= the query.
// The first met row wins. When none is met the weakest row is returned.
func (e *Engine) Lookup(ctx context.Context, col *model.Column, value float64) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("lookup cancelled: %w", err)
	}
	if col == nil || col.Len() == 0 {
		return Result{}, ErrNoUsableRows
	}
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidQuery, value)
	}

	idx := boundary(col, value)
	fallback := idx == col.Len()
	if fallback {
		idx = col.Len() - 1
	}
	match := col.Entries[idx]

	return Result{
		Event:        col.Event,
		Query:        value,
		Score:        match.Score,
		Record:       match.Record.Cleaned,
		Value:        match.Record.Value,
		Fallback:     fallback,
		Neighborhood: e.neighborhood(col, idx),
	}, nil
}

// boundary returns the index of the first met entry, or col.Len() if none.
// Monotonic columns are binary searched; others are scanned in table order so
// the answer still follows the table's own ordering.
func boundary(col *model.Column, value float64) int {
	met := meets(col.Event.Kind, value)
	if col.Monotonic {
		return sort.Search(col.Len(), func(i int) bool {
			return met(col.Entries[i].Record.Value)
		})
	}
	for i, entry := range col.Entries {
		if met(entry.Record.Value) {
			return i
		}
	}
	return col.Len()
}

// meets compares in hundredths so a query equal to a tabulated mark meets
// that row whichever way the two floats were produced.
func meets(kind event.Kind, query float64) func(v float64) bool {
	q := record.Hundredths(query)
	if kind.HigherIsBetter() {
		return func(v float64) bool { return record.Hundredths(v) <= q }
	}
	return func(v float64) bool { return record.Hundredths(v) >= q }
}

// neighborhood returns up to radius rows either side of idx, best first.
func (e *Engine) neighborhood(col *model.Column, idx int) []Neighbor {
	lo := max(0, idx-e.radius)
	hi := min(col.Len(), idx+e.radius+1)
	out := make([]Neighbor, 0, hi-lo)
	for i := lo; i < hi; i++ {
		entry := col.Entries[i]
		out = append(out, Neighbor{
			Score:   entry.Score,
			Record:  entry.Record.Cleaned,
			Value:   entry.Record.Value,
			Matched: i == idx,
		})
	}
	return out
}
