package types

import (
	"github.com/charlie0129/fuelgauge/pkg/engine"
	"github.com/charlie0129/fuelgauge/pkg/gauge"
)

// Telemetry is the full view of one monitored gauge.
// This struct is shared between the daemon and client packages.
type Telemetry struct {
	Device         string         `json:"device"`
	EngineState    string         `json:"engineState"`
	PollIntervalMs int64          `json:"pollIntervalMs"`
	Snapshot       gauge.Snapshot `json:"snapshot"`
	ACOnline       bool           `json:"acOnline"`
	Stats          engine.Stats   `json:"stats"`
	// RecentCycles is the number of continuous successful cycles in the
	// last few minutes.
	RecentCycles int `json:"recentCycles"`
}
