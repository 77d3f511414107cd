package model

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/okian/scoretable/internal/domain/record"
)

// PointsAliases are the accepted headers of the score column, case-insensitive.
var PointsAliases = []string{"points", "pts", "score"}

// Grid is a table as text: a header and data rows, one column per event plus
// the points column.
type Grid struct {
	Header []string
	Rows   [][]string
}

// PointsIndex returns the index of the first header matching PointsAliases.
func (g Grid) PointsIndex() (int, error) {
	for i, h := range g.Header {
		name := strings.ToLower(strings.TrimSpace(h))
		for _, alias := range PointsAliases {
			if name == alias {
				return i, nil
			}
		}
	}
	return -1, ErrNoPointsColumn
}

// Cell returns row[i], or "" when the row is short.
func Cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// ParsePoints reads a score cell. Spreadsheet numbers like "1000.0" are
// accepted and truncated to an integer.
func ParsePoints(s string) (int, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

type scoredRow struct {
	score int
	cells []string
}

// scoredRows drops rows without numeric points and orders the rest by score
// descending, keeping source order among equal scores.
func (g Grid) scoredRows(pointsIdx int) ([]scoredRow, int) {
	out := make([]scoredRow, 0, len(g.Rows))
	dropped := 0
	for _, row := range g.Rows {
		score, ok := ParsePoints(Cell(row, pointsIdx))
		if !ok {
			dropped++
			continue
		}
		out = append(out, scoredRow{score: score, cells: row})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out, dropped
}

// CleanGrid repairs every event cell of g, drops rows whose points are not
// numeric, renders points as integers and sorts rows by points descending.
// The returned grid has the same header as g.
func CleanGrid(g Grid) (Grid, record.Report, error) {
	var report record.Report
	pointsIdx, err := g.PointsIndex()
	if err != nil {
		return Grid{}, report, err
	}
	rows, _ := g.scoredRows(pointsIdx)
	cleaner := record.NewCleaner()
	out := Grid{Header: append([]string(nil), g.Header...), Rows: make([][]string, 0, len(rows))}
	for _, r := range rows {
		cells := make([]string, len(g.Header))
		for i := range g.Header {
			if i == pointsIdx {
				cells[i] = strconv.Itoa(r.score)
				continue
			}
			cells[i] = cleaner.Clean(Cell(r.cells, i))
		}
		out.Rows = append(out.Rows, cells)
	}
	return out, cleaner.Report(), nil
}

// DroppedRows counts rows CleanGrid and Build would discard.
func (g Grid) DroppedRows() int {
	idx, err := g.PointsIndex()
	if err != nil {
		return len(g.Rows)
	}
	_, dropped := g.scoredRows(idx)
	return dropped
}

// duplicateHeader rejects headers that collide once folded the way
// Table.Column matches event identifiers.
func duplicateHeader(header []string) error {
	seen := make(map[string]string, len(header))
	for _, h := range header {
		h = strings.TrimSpace(h)
		key := fold(h)
		if key == "" {
			continue
		}
		if first, ok := seen[key]; ok {
			return fmt.Errorf("%w: %q and %q", ErrDuplicateHeader, first, h)
		}
		seen[key] = h
	}
	return nil
}
