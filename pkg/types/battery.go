package types

import "github.com/charlie0129/fuelgauge/pkg/gauge"

// NominalTemperatureC is reported as the pack temperature.
const NominalTemperatureC = 20

// BatteryInfo mirrors the power-supply properties of a Li-ion pack that
// only has a fuel gauge. Present, Technology, Health and TemperatureC are
// fixed.
type BatteryInfo struct {
	Present    bool   `json:"present"`
	Technology string `json:"technology"`
	Health     string `json:"health"`
	// TemperatureC is a nominal value, the gauge has no temperature sensor.
	TemperatureC int                `json:"temperatureC"`
	Status       gauge.ChargeStatus `json:"status"`
	VoltageMV    int32              `json:"voltageMV"`
	CapacityPct  uint8              `json:"capacityPct"`
	ACOnline     bool               `json:"acOnline"`
}

// NewBatteryInfo derives BatteryInfo from a snapshot.
func NewBatteryInfo(s gauge.Snapshot) BatteryInfo {
	return BatteryInfo{
		Present:      true,
		Technology:   "Li-ion",
		Health:       "good",
		TemperatureC: NominalTemperatureC,
		Status:       s.Status,
		VoltageMV:    s.Decoded.VoltageMV,
		CapacityPct:  s.Decoded.CapacityPct,
		ACOnline:     s.ACOnline(),
	}
}
