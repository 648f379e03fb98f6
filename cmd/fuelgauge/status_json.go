package main

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/charlie0129/fuelgauge/pkg/config"
)

type statusJSON struct {
	Battery       statusBatteryJSON `json:"battery"`
	Engine        statusEngineJSON  `json:"engine"`
	Configuration statusConfigJSON  `json:"configuration"`
}

type statusBatteryJSON struct {
	// Reading is false until the first poll cycle completes.
	Reading     bool       `json:"reading"`
	VoltageMV   int32      `json:"voltageMV"`
	CapacityPct uint8      `json:"capacityPct"`
	State       string     `json:"state"`
	ACOnline    bool       `json:"acOnline"`
	Cycle       uint64     `json:"cycle"`
	ReadAt      *time.Time `json:"readAt"`
}

type statusEngineJSON struct {
	Device         string `json:"device"`
	State          string `json:"state"`
	PollIntervalMs int64  `json:"pollIntervalMs"`
	Succeeded      uint64 `json:"succeeded"`
	Failed         uint64 `json:"failed"`
	RecentCycles   int    `json:"recentCycles"`
	LastError      string `json:"lastError,omitempty"`
}

type statusConfigJSON struct {
	BusKind            string `json:"busKind"`
	BusDevice          string `json:"busDevice,omitempty"`
	BusAddress         uint16 `json:"busAddress,omitempty"`
	ModbusEndpoint     string `json:"modbusEndpoint,omitempty"`
	VoltageRegister    uint8  `json:"voltageRegister"`
	ChargeRegister     uint8  `json:"chargeRegister"`
	StatusSignal       string `json:"statusSignal"`
	ResetOnStart       bool   `json:"resetOnStart"`
	RedisEnabled       bool   `json:"redisEnabled"`
	AllowNonRootAccess bool   `json:"allowNonRootAccess"`
}

func buildStatusJSON(data *statusData) statusJSON {
	tel := data.telemetry
	s := tel.Snapshot
	conf := config.NewFileFromConfig(data.config, "")

	battery := statusBatteryJSON{
		Reading:     !s.IsPlaceholder(),
		VoltageMV:   s.Decoded.VoltageMV,
		CapacityPct: s.Decoded.CapacityPct,
		State:       s.Status.String(),
		ACOnline:    tel.ACOnline,
		Cycle:       s.Cycle,
	}
	if !s.IsPlaceholder() {
		t := s.Decoded.Timestamp
		battery.ReadAt = &t
	}

	b := conf.BusOptions()
	regs := conf.Registers()

	return statusJSON{
		Battery: battery,
		Engine: statusEngineJSON{
			Device:         tel.Device,
			State:          tel.EngineState,
			PollIntervalMs: tel.PollIntervalMs,
			Succeeded:      tel.Stats.Succeeded,
			Failed:         tel.Stats.Failed,
			RecentCycles:   tel.RecentCycles,
			LastError:      tel.Stats.LastError,
		},
		Configuration: statusConfigJSON{
			BusKind:            b.Kind,
			BusDevice:          b.Device,
			BusAddress:         b.Address,
			ModbusEndpoint:     b.Endpoint,
			VoltageRegister:    regs.Voltage,
			ChargeRegister:     regs.Charge,
			StatusSignal:       conf.StatusSignal().String(),
			ResetOnStart:       conf.ResetOnStart(),
			RedisEnabled:       conf.RedisEnabled(),
			AllowNonRootAccess: conf.AllowNonRootAccess(),
		},
	}
}

func printStatusJSON(cmd *cobra.Command, data *statusData) error {
	b, err := json.MarshalIndent(buildStatusJSON(data), "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(b))
	return nil
}
