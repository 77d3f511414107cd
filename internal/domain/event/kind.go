// Package event classifies event identifiers into value-encoding kinds.
package event

import (
	"encoding/json"
	"fmt"
)

// Kind is the value encoding of an event column.
type Kind int

// Encoding kinds.
const (
	KindShortTime  Kind = iota // seconds + hundredths, no minutes component
	KindMiddleTime             // minutes:seconds
	KindLongTime               // hours:minutes:seconds
	KindField                  // meters + centimeters
	KindScore                  // raw points of a combined event
)

var kindNames = map[Kind]string{
	KindShortTime:  "time_s",
	KindMiddleTime: "time_ms",
	KindLongTime:   "time_hms",
	KindField:      "field",
	KindScore:      "score",
}

// String returns the wire name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// MarshalJSON encodes the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name.
func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// HigherIsBetter reports whether a larger value is a better performance.
// Field distances and combined-event points grow with quality; times shrink.
func (k Kind) HigherIsBetter() bool {
	return k == KindField || k == KindScore
}

// IsTime reports whether the kind encodes a duration.
func (k Kind) IsTime() bool {
	return k == KindShortTime || k == KindMiddleTime || k == KindLongTime
}

// Components lists the input fields a presentation layer collects for the kind,
// largest unit first.
func (k Kind) Components() []string {
	switch k {
	case KindField:
		return []string{"meters", "centimeters"}
	case KindShortTime:
		return []string{"seconds", "hundredths"}
	case KindMiddleTime:
		return []string{"minutes", "seconds", "hundredths"}
	case KindLongTime:
		return []string{"hours", "minutes", "seconds"}
	case KindScore:
		return []string{"points"}
	default:
		return nil
	}
}

// Descriptor identifies an event column. It is derived once from the
// identifier and never mutated.
type Descriptor struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  Kind   `json:"kind"`
}
