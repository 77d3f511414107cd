// Package record repairs and parses spreadsheet-exported performance records.
package record

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Absent is the canonical "no recorded performance" token.
const Absent = "-"

// Day-fraction serial bounds (exclusive) and seconds per day.
const (
	serialMin     = 0.00001
	serialMax     = 0.999
	secondsPerDay = 24 * 3600
)

// Repair flags, one per rule that can rewrite a cell.
type Repairs uint8

// Repair rules.
const (
	RepairAbsent Repairs = 1 << iota
	RepairDate
	RepairMicrosecond
	RepairSerial
	RepairFormat
)

// Has reports whether rule r fired.
func (r Repairs) Has(rule Repairs) bool { return r&rule != 0 }

var (
	datePrefix    = regexp.MustCompile(`\d{4}-\d{2}-\d{2}\s+`)
	sixFraction   = regexp.MustCompile(`\.\d{6}$`)
	zeroFraction  = regexp.MustCompile(`\.000000$`)
	keepHundredth = regexp.MustCompile(`(\.\d{2})\d{4}$`)
	daySerial     = regexp.MustCompile(`^0\.\d+$`)
	leadingZero   = regexp.MustCompile(`^0\d:`)
)

// naSpellings are placeholders spreadsheet tools write for an empty cell.
var naSpellings = map[string]bool{
	"nan": true, "-nan": true, "na": true, "n/a": true, "#n/a": true, "#na": true,
	"null": true, "none": true, "<na>": true,
}

// IsAbsent reports whether raw denotes a missing record.
func IsAbsent(raw string) bool {
	v := strings.TrimSpace(raw)
	return v == "" || v == Absent || naSpellings[strings.ToLower(v)]
}

// Clean rewrites one raw cell into canonical form and reports which rules
// fired. It is a pure function and Clean(Clean(x)) == Clean(x).
func Clean(raw string) (string, Repairs) {
	if IsAbsent(raw) {
		return Absent, RepairAbsent
	}
	var fired Repairs
	val := strings.TrimSpace(raw)

	// Stripping one date can splice a new one together, so strip to a fixed
	// point.
	for strings.Contains(val, "1900") {
		next := strings.TrimSpace(datePrefix.ReplaceAllString(val, ""))
		if next == val {
			break
		}
		val = next
		fired |= RepairDate
	}

	for sixFraction.MatchString(val) {
		if zeroFraction.MatchString(val) {
			val = strings.TrimSpace(zeroFraction.ReplaceAllString(val, ""))
		} else {
			// Truncates to hundredths; no rounding.
			val = keepHundredth.ReplaceAllString(val, "$1")
		}
		fired |= RepairMicrosecond
	}

	if daySerial.MatchString(val) {
		if f, err := strconv.ParseFloat(val, 64); err == nil && f > serialMin && f < serialMax {
			return clock(int(math.RoundToEven(f * secondsPerDay))), fired | RepairSerial
		}
	}

	if leadingZero.MatchString(val) {
		val = val[1:]
		fired |= RepairFormat
	}

	if IsAbsent(val) {
		return Absent, fired | RepairAbsent
	}
	return val, fired
}

// clock renders whole seconds as H:MM:SS, or M:SS below one hour.
func clock(total int) string {
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// Report aggregates repair counts over many cells. It is diagnostic only.
type Report struct {
	Cells            int `json:"cells"`
	Absent           int `json:"absent"`
	DateFixed        int `json:"date_fixed"`
	MicrosecondFixed int `json:"microsecond_fixed"`
	SerialFixed      int `json:"serial_fixed"`
	FormatFixed      int `json:"format_fixed"`
}

// Add counts one cleaned cell.
func (r *Report) Add(fired Repairs) {
	r.Cells++
	if fired.Has(RepairAbsent) {
		r.Absent++
	}
	if fired.Has(RepairDate) {
		r.DateFixed++
	}
	if fired.Has(RepairMicrosecond) {
		r.MicrosecondFixed++
	}
	if fired.Has(RepairSerial) {
		r.SerialFixed++
	}
	if fired.Has(RepairFormat) {
		r.FormatFixed++
	}
}

// Merge adds the counts of o into r.
func (r *Report) Merge(o Report) {
	r.Cells += o.Cells
	r.Absent += o.Absent
	r.DateFixed += o.DateFixed
	r.MicrosecondFixed += o.MicrosecondFixed
	r.SerialFixed += o.SerialFixed
	r.FormatFixed += o.FormatFixed
}

// Repaired is the number of rewrites, excluding absent cells.
func (r Report) Repaired() int {
	return r.DateFixed + r.MicrosecondFixed + r.SerialFixed + r.FormatFixed
}

// Counts returns the repair counts keyed by rule name.
func (r Report) Counts() map[string]int {
	return map[string]int{
		"absent":            r.Absent,
		"date_fixed":        r.DateFixed,
		"microsecond_fixed": r.MicrosecondFixed,
		"serial_fixed":      r.SerialFixed,
		"format_fixed":      r.FormatFixed,
	}
}

// Cleaner cleans cells and keeps a running report. It is not safe for
// concurrent use; use one per table.
type Cleaner struct {
	report Report
}

// NewCleaner returns an empty cleaner.
func NewCleaner() *Cleaner {
	return &Cleaner{}
}

// Clean cleans raw and records the fired rules.
func (c *Cleaner) Clean(raw string) string {
	out, fired := Clean(raw)
	c.report.Add(fired)
	return out
}

// Report returns the counts so far.
func (c *Cleaner) Report() Report {
	return c.report
}
