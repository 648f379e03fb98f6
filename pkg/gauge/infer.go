package gauge

import (
	"fmt"
	"strings"

	pkgerrors "github.com/pkg/errors"
)

// Signal selects the sample field compared by an Inferrer.
type Signal int

const (
	// SignalVoltage compares cell voltage. It is the default.
	SignalVoltage Signal = iota
	// SignalCapacity compares state of charge, for gauges whose voltage
	// register is unusable.
	SignalCapacity
)

func (s Signal) String() string {
	switch s {
	case SignalVoltage:
		return "voltage"
	case SignalCapacity:
		return "capacity"
	default:
		return fmt.Sprintf("Signal(%d)", int(s))
	}
}

// ParseSignal parses "voltage" or "capacity". An empty string means voltage.
func ParseSignal(s string) (Signal, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "voltage":
		return SignalVoltage, nil
	case "capacity":
		return SignalCapacity, nil
	default:
		return SignalVoltage, pkgerrors.Errorf("unknown status signal %q, must be voltage or capacity", s)
	}
}

// Inferrer classifies charge direction from two successive samples.
// There is no debouncing: the status may flicker at the poll cadence.
type Inferrer struct {
	Signal Signal
}

// Infer returns Unknown if prev is nil, otherwise compares the selected
// signal of prev and cur. The two signals are never mixed.
func (i Inferrer) Infer(prev *DecodedSample, cur DecodedSample) ChargeStatus {
	if prev == nil {
		return Unknown
	}

	var before, after int64
	switch i.Signal {
	case SignalCapacity:
		before, after = int64(prev.CapacityPct), int64(cur.CapacityPct)
	default:
		before, after = int64(prev.VoltageMV), int64(cur.VoltageMV)
	}

	switch {
	case after > before:
		return Charging
	case after < before:
		return Discharging
	default:
		return NotCharging
	}
}

// Infer compares voltages of prev and cur.
func Infer(prev *DecodedSample, cur DecodedSample) ChargeStatus {
	return Inferrer{Signal: SignalVoltage}.Infer(prev, cur)
}
