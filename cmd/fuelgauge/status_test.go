package main

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/charlie0129/fuelgauge/pkg/config"
	"github.com/charlie0129/fuelgauge/pkg/engine"
	"github.com/charlie0129/fuelgauge/pkg/events"
	"github.com/charlie0129/fuelgauge/pkg/gauge"
	"github.com/charlie0129/fuelgauge/pkg/types"
	"github.com/charlie0129/fuelgauge/pkg/utils/ptr"
)

func TestBuildStatusJSON(t *testing.T) {
	readAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		snapshot   gauge.Snapshot
		conf       *config.RawFileConfig
		wantRead   bool
		wantState  string
		wantKind   string
		wantSignal string
	}{
		{
			name:       "placeholder with defaults",
			snapshot:   gauge.Placeholder(),
			wantRead:   false,
			wantState:  "unknown",
			wantKind:   "i2c",
			wantSignal: "voltage",
		},
		{
			name: "charging over modbus",
			snapshot: gauge.Snapshot{
				Decoded: gauge.DecodedSample{VoltageMV: 4012, CapacityPct: 81, Timestamp: readAt},
				Status:  gauge.Charging,
				Cycle:   7,
			},
			conf: &config.RawFileConfig{
				BusKind:        ptr.To("modbus"),
				ModbusEndpoint: ptr.To("10.0.0.5:502"),
				StatusSignal:   ptr.To("capacity"),
			},
			wantRead:   true,
			wantState:  "charging",
			wantKind:   "modbus",
			wantSignal: "capacity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := &statusData{
				telemetry: &types.Telemetry{
					Device:         "battery",
					EngineState:    "idle",
					PollIntervalMs: 4000,
					Snapshot:       tt.snapshot,
					ACOnline:       tt.snapshot.ACOnline(),
					Stats:          engine.Stats{Succeeded: tt.snapshot.Cycle},
				},
				config: tt.conf,
			}

			got := buildStatusJSON(data)
			if got.Battery.Reading != tt.wantRead {
				t.Errorf("Reading = %v, want %v", got.Battery.Reading, tt.wantRead)
			}
			if (got.Battery.ReadAt != nil) != tt.wantRead {
				t.Errorf("ReadAt = %v", got.Battery.ReadAt)
			}
			if got.Battery.State != tt.wantState {
				t.Errorf("State = %q, want %q", got.Battery.State, tt.wantState)
			}
			if got.Configuration.BusKind != tt.wantKind {
				t.Errorf("BusKind = %q, want %q", got.Configuration.BusKind, tt.wantKind)
			}
			if got.Configuration.StatusSignal != tt.wantSignal {
				t.Errorf("StatusSignal = %q, want %q", got.Configuration.StatusSignal, tt.wantSignal)
			}
			if got.Configuration.VoltageRegister != 0x02 || got.Configuration.ChargeRegister != 0x04 {
				t.Errorf("registers = %#x/%#x", got.Configuration.VoltageRegister, got.Configuration.ChargeRegister)
			}
			if got.Battery.ACOnline != (tt.wantState == "charging") {
				t.Errorf("ACOnline = %v", got.Battery.ACOnline)
			}
		})
	}
}

func TestFormatEvent(t *testing.T) {
	status, _ := json.Marshal(events.StatusChangedEvent{
		Device: "pack0", From: "discharging", To: "charging", VoltageMV: 3900, CapacityPct: 60, Ts: 1714564800,
	})
	snapshot, _ := json.Marshal(events.SnapshotEvent{
		Device: "pack0",
		Snapshot: gauge.Snapshot{
			Decoded: gauge.DecodedSample{VoltageMV: 3900, CapacityPct: 60, Timestamp: time.Unix(1714564800, 0)},
			Status:  gauge.Charging,
			Cycle:   3,
		},
	})

	tests := []struct {
		name      string
		ev        events.Event
		snapshots bool
		wantOK    bool
		contains  []string
	}{
		{
			name:     "status change",
			ev:       events.Event{Name: events.TelemetryStatus, Data: status},
			wantOK:   true,
			contains: []string{"pack0", "discharging -> ", "charging", "3.900 V", "60%"},
		},
		{
			name:   "snapshot hidden by default",
			ev:     events.Event{Name: events.TelemetrySnapshot, Data: snapshot},
			wantOK: false,
		},
		{
			name:      "snapshot shown",
			ev:        events.Event{Name: events.TelemetrySnapshot, Data: snapshot},
			snapshots: true,
			wantOK:    true,
			contains:  []string{"pack0", "3.900 V, 60%", "charging"},
		},
		{
			name:   "bad payload",
			ev:     events.Event{Name: events.TelemetryStatus, Data: []byte(`{"from":`)},
			wantOK: false,
		},
		{
			name:   "unknown event",
			ev:     events.Event{Name: "other", Data: []byte(`{}`)},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := formatEvent(tt.ev, tt.snapshots)
			if ok != tt.wantOK {
				t.Fatalf("formatEvent() ok = %v, want %v", ok, tt.wantOK)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("formatEvent() = %q, missing %q", got, want)
				}
			}
		})
	}
}
