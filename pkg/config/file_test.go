package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charlie0129/fuelgauge/pkg/bus"
	"github.com/charlie0129/fuelgauge/pkg/engine"
	"github.com/charlie0129/fuelgauge/pkg/gauge"
	"github.com/charlie0129/fuelgauge/pkg/utils/ptr"
)

func TestNewFileDefaults(t *testing.T) {
	tests := []struct {
		name    string
		content *string
	}{
		{name: "missing file"},
		{name: "empty file", content: ptr.To("  \n")},
		{name: "empty object", content: ptr.To("{}")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), "fuelgauge.json")
			if tt.content != nil {
				if err := os.WriteFile(p, []byte(*tt.content), 0644); err != nil {
					t.Fatal(err)
				}
			}

			f, err := NewFile(p)
			if err != nil {
				t.Fatalf("NewFile() error = %v", err)
			}
			if err := f.Validate(); err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if got := f.PollInterval(); got != engine.DefaultInterval {
				t.Errorf("PollInterval() = %s, want %s", got, engine.DefaultInterval)
			}
			if got := f.Registers(); got != engine.DefaultRegisters {
				t.Errorf("Registers() = %+v", got)
			}
			if got := f.Scale(); got != gauge.DefaultScale {
				t.Errorf("Scale() = %+v", got)
			}
			b := f.BusOptions()
			if b.Kind != bus.KindI2C || b.Address != bus.DefaultI2CAddress {
				t.Errorf("BusOptions() = %+v", b)
			}
			if f.StatusSignal() != gauge.SignalVoltage {
				t.Errorf("StatusSignal() = %v", f.StatusSignal())
			}
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	p := filepath.Join(t.TempDir(), "fuelgauge.json")
	content := `{
  "pollIntervalMs": 1500,
  "busKind": "modbus",
  "modbusEndpoint": "10.0.0.2:502",
  "modbusUnitId": 3,
  "voltageRegister": 8,
  "chargeRegister": 10,
  "statusSignal": "capacity",
  "redisEnabled": true
}`
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	f, err := NewFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if f.PollInterval() != 1500*time.Millisecond {
		t.Errorf("PollInterval() = %s", f.PollInterval())
	}
	b := f.BusOptions()
	if b.Kind != bus.KindModbus || b.Endpoint != "10.0.0.2:502" || b.UnitID != 3 {
		t.Errorf("BusOptions() = %+v", b)
	}
	if r := f.Registers(); r.Voltage != 8 || r.Charge != 10 {
		t.Errorf("Registers() = %+v", r)
	}
	if f.StatusSignal() != gauge.SignalCapacity {
		t.Errorf("StatusSignal() = %v", f.StatusSignal())
	}
	if !f.RedisEnabled() || f.RedisAddr() == "" {
		t.Errorf("redis settings not applied")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "fuelgauge.json")
	if err := os.WriteFile(p, []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFile(p); err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     RawFileConfig
		wantErr bool
	}{
		{name: "defaults"},
		{name: "interval too short", raw: RawFileConfig{PollIntervalMs: ptr.To(1)}, wantErr: true},
		{name: "bad bus kind", raw: RawFileConfig{BusKind: ptr.To("spi")}, wantErr: true},
		{name: "modbus without endpoint", raw: RawFileConfig{BusKind: ptr.To(bus.KindModbus)}, wantErr: true},
		{name: "address out of range", raw: RawFileConfig{BusAddress: ptr.To(0x80)}, wantErr: true},
		{name: "register out of range", raw: RawFileConfig{ChargeRegister: ptr.To(256)}, wantErr: true},
		{name: "zero divisor", raw: RawFileConfig{CapacityDivisor: ptr.To(0)}, wantErr: true},
		{name: "zero lsb", raw: RawFileConfig{VoltageLSBNanoVolts: ptr.To(int64(0))}, wantErr: true},
		{name: "largest lsb", raw: RawFileConfig{VoltageLSBNanoVolts: ptr.To(int64(gauge.MaxVoltageLSBNanoVolts))}},
		{name: "lsb overflows int32 mV", raw: RawFileConfig{VoltageLSBNanoVolts: ptr.To(int64(gauge.MaxVoltageLSBNanoVolts + 1))}, wantErr: true},
		{name: "bad signal", raw: RawFileConfig{StatusSignal: ptr.To("current")}, wantErr: true},
		{name: "redis without address", raw: RawFileConfig{RedisEnabled: ptr.To(true), RedisAddr: ptr.To("")}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := tt.raw
			err := NewFileFromConfig(&raw, "").Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "fuelgauge.json")
	f := NewFileFromConfig(nil, p)
	f.SetPollInterval(2 * time.Second)
	f.SetAllowNonRootAccess(true)
	if err := f.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	g, err := NewFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if g.PollInterval() != 2*time.Second || !g.AllowNonRootAccess() {
		t.Errorf("saved values not loaded: %v %v", g.PollInterval(), g.AllowNonRootAccess())
	}
}

func TestNewRawFileConfigFromConfig(t *testing.T) {
	raw, err := NewRawFileConfigFromConfig(NewFileFromConfig(nil, ""))
	if err != nil {
		t.Fatal(err)
	}
	if raw.PollIntervalMs == nil || *raw.PollIntervalMs != 4000 {
		t.Errorf("PollIntervalMs = %v", raw.PollIntervalMs)
	}
	if raw.StatusSignal == nil || *raw.StatusSignal != "voltage" {
		t.Errorf("StatusSignal = %v", raw.StatusSignal)
	}
	if _, err := NewRawFileConfigFromConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}
