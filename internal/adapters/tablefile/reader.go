// Package tablefile reads scoring tables from CSV and XLSX files and writes
// cleaned tables back as CSV.
package tablefile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/okian/scoretable/internal/domain/model"
)

// Supported extensions.
const (
	ExtCSV  = ".csv"
	ExtXLSX = ".xlsx"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Format returns the lowercased extension of path when it is supported.
func Format(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ExtCSV, ExtXLSX:
		return ext, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ReadFile reads the table at path, choosing the decoder by extension.
func ReadFile(path string) (model.Grid, error) {
	ext, err := Format(path)
	if err != nil {
		return model.Grid{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return model.Grid{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	if ext == ExtXLSX {
		return ReadXLSX(f)
	}
	return ReadCSV(f)
}

// ReadCSV reads a comma-separated table whose first non-blank row is the
// header. Every cell is kept as text; a leading UTF-8 BOM is ignored.
func ReadCSV(r io.Reader) (model.Grid, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.Grid{}, fmt.Errorf("failed to read csv: %w", err)
	}
	cr := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.Grid{}, fmt.Errorf("%w: csv: %w", ErrMalformedFile, err)
		}
		rows = append(rows, rec)
	}
	return grid(rows)
}

// ReadXLSX reads the first sheet of a workbook. Cells are read as raw values
// so time cells arrive as day-fraction serials for the cleaner to repair.
func ReadXLSX(r io.Reader) (model.Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return model.Grid{}, fmt.Errorf("%w: workbook: %w", ErrMalformedFile, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return model.Grid{}, ErrNoSheet
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return model.Grid{}, fmt.Errorf("%w: sheet %q: %w", ErrMalformedFile, sheets[0], err)
	}
	return grid(rows)
}

// grid splits rows into header and data, skipping blank rows.
func grid(rows [][]string) (model.Grid, error) {
	var g model.Grid
	for _, row := range rows {
		if blank(row) {
			continue
		}
		if g.Header == nil {
			g.Header = row
			continue
		}
		g.Rows = append(g.Rows, row)
	}
	if g.Header == nil {
		return model.Grid{}, ErrEmptyFile
	}
	return g, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
