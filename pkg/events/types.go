package events

import (
	"encoding/json"

	"github.com/charlie0129/fuelgauge/pkg/gauge"
)

// Event name constants
const (
	TelemetryStatus   = "telemetry.status"
	TelemetrySnapshot = "telemetry.snapshot"
)

// Event is a generic SSE event from daemon.
type Event struct {
	Name string          // SSE event name
	Data json.RawMessage // Raw JSON payload
}

// StatusChangedEvent is the typed payload for telemetry.status.
type StatusChangedEvent struct {
	Device      string `json:"device"`
	From        string `json:"from"`
	To          string `json:"to"`
	VoltageMV   int32  `json:"voltageMV"`
	CapacityPct uint8  `json:"capacityPct"`
	Cycle       uint64 `json:"cycle"`
	Ts          int64  `json:"ts"`
}

// SnapshotEvent is the typed payload for telemetry.snapshot.
type SnapshotEvent struct {
	Device   string         `json:"device"`
	Snapshot gauge.Snapshot `json:"snapshot"`
}

// DecodeAs decodes the event payload into the caller-specified generic type T.
// It ignores the event name and simply unmarshals Data into T. If Data is empty,
// it returns the zero value of T with a nil error.
//
// Example:
//
//	payload, err := events.DecodeAs[events.StatusChangedEvent](ev)
//	if err != nil { /* handle */ }
//	fmt.Println(payload.From, payload.To)
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
