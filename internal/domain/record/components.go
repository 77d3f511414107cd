package record

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/scoretable/internal/domain/event"
)

// ErrUnknownComponent is returned for an input field the kind does not use.
var ErrUnknownComponent = errors.New("unknown component")

// FromComponents combines the input fields of kind into one value. Missing
// fields count as zero; fields outside kind.Components() are rejected.
func FromComponents(kind event.Kind, c map[string]float64) (float64, error) {
	allowed := make(map[string]bool)
	for _, name := range kind.Components() {
		allowed[name] = true
	}
	for name, v := range c {
		if !allowed[name] {
			return 0, fmt.Errorf("%w: %q for %s", ErrUnknownComponent, name, kind)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return 0, fmt.Errorf("component %q must be a non-negative number", name)
		}
	}

	switch kind {
	case event.KindField:
		return Compose(c["meters"], c["centimeters"], 100), nil
	case event.KindShortTime:
		return ComposeClock(0, 0, c["seconds"], c["hundredths"]), nil
	case event.KindMiddleTime:
		return ComposeClock(0, c["minutes"], c["seconds"], c["hundredths"]), nil
	case event.KindLongTime:
		return ComposeClock(c["hours"], c["minutes"], c["seconds"], 0), nil
	case event.KindScore:
		return c["points"], nil
	default:
		return 0, fmt.Errorf("%w: %s", event.ErrUnknownKind, kind)
	}
}
