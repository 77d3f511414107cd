package tablefile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
	_ "time/tzdata" // output dates must resolve on hosts without zoneinfo

	"github.com/okian/scoretable/internal/domain/model"
)

// DefaultTimezone dates output file names.
const DefaultTimezone = "Asia/Tokyo"

// WriteCSV writes g as CSV preceded by a UTF-8 BOM so spreadsheet tools
// detect the encoding.
func WriteCSV(w io.Writer, g model.Grid) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(g.Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := cw.WriteAll(g.Rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

// OutputName returns <PREFIX>_ALL_<YYYYMMDD>.csv dated in loc.
func OutputName(prefix string, now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return fmt.Sprintf("%s_ALL_%s.csv", strings.ToUpper(prefix), now.In(loc).Format("20060102"))
}

// Prefix derives the output prefix from an input file name: the part before
// the first underscore, or the whole base name without extension.
func Prefix(name string) string {
	base := name
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if p, _, ok := strings.Cut(base, "_"); ok && p != "" {
		return p
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		return base[:i]
	}
	return base
}

// Location loads name, falling back to DefaultTimezone when name is empty.
func Location(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", name, err)
	}
	return loc, nil
}
