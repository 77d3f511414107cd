package record

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/scoretable/internal/domain/event"
)

// Parse converts a cleaned record string into seconds, meters or points.
// The second result is false for the absent token and for anything that does
// not parse; failures are never fatal.
func Parse(cleaned string) (float64, bool) {
	s := strings.TrimSpace(cleaned)
	if s == "" || s == Absent {
		return 0, false
	}
	parts := strings.Split(s, ":")
	var v float64
	switch len(parts) {
	case 1:
		n, ok := number(parts[0])
		if !ok {
			return 0, false
		}
		v = n
	case 2:
		m, okM := number(parts[0])
		if !okM {
			return 0, false
		}
		n, ok := joinSeconds(m*60, parts[1])
		if !ok {
			return 0, false
		}
		v = n
	case 3:
		h, okH := number(parts[0])
		m, okM := number(parts[1])
		if !okH || !okM {
			return 0, false
		}
		n, ok := joinSeconds(h*3600+m*60, parts[2])
		if !ok {
			return 0, false
		}
		v = n
	default:
		return 0, false
	}
	return v, true
}

func number(s string) (float64, bool) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// maxDigits bounds the integer text joinSeconds builds so it stays exact.
const maxDigits = 15

// joinSeconds adds a seconds field to a whole number of seconds. Plain
// decimal fields are joined as text so "1:08.29" yields the same float as
// "68.29"; anything else falls back to float addition.
func joinSeconds(base float64, field string) (float64, bool) {
	sec, ok := number(field)
	if !ok {
		return 0, false
	}
	whole, frac, _ := strings.Cut(strings.TrimSpace(field), ".")
	if base < 0 || base != math.Trunc(base) || base >= 1e12 || !digits(whole) || !digits(frac) {
		return base + sec, true
	}
	var w int64
	if whole != "" {
		n, err := strconv.ParseInt(whole, 10, 64)
		if err != nil {
			return base + sec, true
		}
		w = n
	}
	text := strconv.FormatInt(int64(base)+w, 10)
	if frac != "" {
		text += "." + frac
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return base + sec, true
	}
	return v, true
}

func digits(s string) bool {
	if len(s) > maxDigits {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Compose combines a whole-unit count with a sub-unit count expressed over
// modulus, e.g. Compose(7, 45, 100) == 7.45 meters. The sum is taken in
// sub-units so integral inputs give the float nearest the decimal.
func Compose(whole, sub, modulus float64) float64 {
	if modulus == 0 {
		return whole
	}
	return (whole*modulus + sub) / modulus
}

// ComposeClock combines clock components into seconds, summing in
// hundredths first.
func ComposeClock(hours, minutes, seconds, hundredths float64) float64 {
	return (hours*360000 + minutes*6000 + seconds*100 + hundredths) / 100
}

// Hundredths quantizes a value to hundredths of its unit. Performances are
// compared at this resolution.
func Hundredths(v float64) int64 {
	return int64(math.Round(v * 100))
}

// Format renders a value in the canonical form of kind. Parsing the result
// yields the same value to within a hundredth.
func Format(v float64, kind event.Kind) string {
	switch kind {
	case event.KindScore:
		return strconv.Itoa(int(math.Round(v)))
	case event.KindMiddleTime:
		cs := Hundredths(v)
		return fmt.Sprintf("%d:%s", cs/6000, seconds(cs%6000))
	case event.KindLongTime:
		cs := Hundredths(v)
		h := cs / 360000
		m := (cs % 360000) / 6000
		return fmt.Sprintf("%d:%02d:%s", h, m, seconds(cs%6000))
	default:
		return strconv.FormatFloat(float64(Hundredths(v))/100, 'f', 2, 64)
	}
}

// seconds renders hundredths of a second as SS or SS.ff, dropping a zero
// fraction.
func seconds(cs int64) string {
	whole, frac := cs/100, cs%100
	out := fmt.Sprintf("%02d", whole)
	if frac != 0 {
		out += fmt.Sprintf(".%02d", frac)
	}
	return out
}
