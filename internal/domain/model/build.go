package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/scoretable/internal/domain/event"
)

// Option applies a configuration option to table construction.
type Option func(*builder)

type builder struct {
	source             string
	classifier         *event.Classifier
	rejectNonMonotonic bool
	now                func() time.Time
}

// WithSource records where the table was read from.
func WithSource(source string) Option {
	return func(b *builder) {
		b.source = source
	}
}

// WithClassifier overrides the event classifier.
func WithClassifier(c *event.Classifier) Option {
	return func(b *builder) {
		if c != nil {
			b.classifier = c
		}
	}
}

// WithRejectNonMonotonic makes Build fail when any event column gets worse
// as score increases.
func WithRejectNonMonotonic(reject bool) Option {
	return func(b *builder) {
		b.rejectNonMonotonic = reject
	}
}

// WithClock sets the time source for Table.LoadedAt.
func WithClock(now func() time.Time) Option {
	return func(b *builder) {
		if now != nil {
			b.now = now
		}
	}
}

// Build cleans, parses and classifies a grid into an immutable Table.
func Build(category string, g Grid, opts ...Option) (*Table, error) {
	b := &builder{classifier: event.NewClassifier(), now: time.Now}
	for _, opt := range opts {
		opt(b)
	}

	pointsIdx, err := g.PointsIndex()
	if err != nil {
		return nil, err
	}
	if err := duplicateHeader(g.Header); err != nil {
		return nil, err
	}

	t := &Table{
		ID:          uuid.New(),
		Category:    category,
		Source:      b.source,
		LoadedAt:    b.now(),
		PointsLabel: strings.TrimSpace(g.Header[pointsIdx]),
		columns:     make(map[string]*Column),
		folded:      make(map[string]string),
	}

	eventIdx := make([]int, 0, len(g.Header))
	for i, h := range g.Header {
		id := strings.TrimSpace(h)
		if i == pointsIdx || id == "" {
			continue
		}
		d := b.classifier.Classify(id)
		t.Events = append(t.Events, d)
		t.columns[id] = &Column{Event: d, Monotonic: true}
		t.folded[fold(id)] = id
		eventIdx = append(eventIdx, i)
	}

	rows, dropped := g.scoredRows(pointsIdx)
	if len(rows) == 0 {
		return nil, ErrEmptyTable
	}
	t.Stats.DroppedRows = dropped
	t.Rows = make([]ScoringRow, 0, len(rows))
	for _, r := range rows {
		sr := ScoringRow{Score: r.score, Records: make(map[string]PerformanceRecord, len(eventIdx))}
		for n, i := range eventIdx {
			d := t.Events[n]
			rec, fired := NewPerformanceRecord(Cell(r.cells, i))
			t.Stats.Repairs.Add(fired)
			sr.Records[d.ID] = rec
			col := t.columns[d.ID]
			switch {
			case rec.Valid:
				col.add(Entry{Score: r.score, Record: rec})
			case rec.Unparsable():
				col.Unparsable++
				t.Stats.Unparsable++
			}
		}
		t.Rows = append(t.Rows, sr)
	}
	t.Stats.Rows = len(t.Rows)

	for _, d := range t.Events {
		if !t.columns[d.ID].Monotonic {
			t.Stats.NonMonotonic = append(t.Stats.NonMonotonic, d.ID)
		}
	}
	if b.rejectNonMonotonic && len(t.Stats.NonMonotonic) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrNonMonotonic, strings.Join(t.Stats.NonMonotonic, ", "))
	}
	return t, nil
}

// add appends e, tracking whether the column stays monotonic. Entries arrive
// in descending score order, so each must be no better than the previous.
func (c *Column) add(e Entry) {
	if n := len(c.Entries); n > 0 && c.Better(e.Record.Value, c.Entries[n-1].Record.Value) {
		c.Monotonic = false
	}
	c.Entries = append(c.Entries, e)
}
