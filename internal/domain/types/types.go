// Package types contains the read shapes shared by the service and its
// transports.
package types

import (
	"time"

	"github.com/okian/scoretable/internal/domain/event"
	"github.com/okian/scoretable/internal/domain/model"
)

// EventInfo describes one event column of a loaded table.
type EventInfo struct {
	event.Descriptor
	Components     []string `json:"components"`
	HigherIsBetter bool     `json:"higher_is_better"`
	Rows           int      `json:"rows"`
	Unparsable     int      `json:"unparsable"`
	Monotonic      bool     `json:"monotonic"`
}

// TableSummary describes a loaded table.
type TableSummary struct {
	ID          string      `json:"id"`
	Category    string      `json:"category"`
	Source      string      `json:"source"`
	LoadedAt    time.Time   `json:"loaded_at"`
	PointsLabel string      `json:"points_label"`
	Events      int         `json:"events"`
	Stats       model.Stats `json:"stats"`
}
