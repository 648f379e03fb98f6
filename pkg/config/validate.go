package config

import (
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/charlie0129/fuelgauge/pkg/bus"
	"github.com/charlie0129/fuelgauge/pkg/gauge"
)

// Validate checks value ranges before they reach the engine.
func (f *File) Validate() error {
	if d := f.PollInterval(); d < 10*time.Millisecond {
		return pkgerrors.Errorf("pollIntervalMs must be at least 10, got %d", d.Milliseconds())
	}

	f.mu.RLock()
	raw := *f.c
	f.mu.RUnlock()

	if err := checkRange("busAddress", raw.BusAddress, 0x03, 0x77); err != nil {
		return err
	}
	if err := checkRange("voltageRegister", raw.VoltageRegister, 0, 0xFF); err != nil {
		return err
	}
	if err := checkRange("chargeRegister", raw.ChargeRegister, 0, 0xFF); err != nil {
		return err
	}
	if err := checkRange("modbusUnitId", raw.ModbusUnitID, 0, 0xFF); err != nil {
		return err
	}
	if err := checkRange("capacityDivisor", raw.CapacityDivisor, 1, 1<<16); err != nil {
		return err
	}
	if err := checkRange("busTimeoutMs", raw.BusTimeoutMs, 0, 60_000); err != nil {
		return err
	}

	b := f.BusOptions()
	switch b.Kind {
	case bus.KindI2C:
	case bus.KindModbus:
		if b.Endpoint == "" {
			return pkgerrors.Errorf("modbusEndpoint is required when busKind is %s", bus.KindModbus)
		}
	default:
		return pkgerrors.Errorf("busKind must be %s or %s, got %q", bus.KindI2C, bus.KindModbus, b.Kind)
	}

	if lsb := f.Scale().VoltageLSBNanoVolts; lsb <= 0 || lsb > gauge.MaxVoltageLSBNanoVolts {
		return pkgerrors.Errorf("voltageLsbNanoVolts must be between 1 and %d, got %d", int64(gauge.MaxVoltageLSBNanoVolts), lsb)
	}
	if raw.StatusSignal != nil {
		if _, err := gauge.ParseSignal(*raw.StatusSignal); err != nil {
			return err
		}
	}
	if f.RedisEnabled() && f.RedisAddr() == "" {
		return pkgerrors.Errorf("redisAddr is required when redis is enabled")
	}

	return nil
}

func checkRange(name string, v *int, lo, hi int) error {
	if v == nil {
		return nil
	}
	if *v < lo || *v > hi {
		return pkgerrors.Errorf("%s must be between %d and %d, got %d", name, lo, hi, *v)
	}
	return nil
}
