package gauge

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// RawSample holds the register codes read from the gauge in one poll cycle.
type RawSample struct {
	VoltageCode uint16
	ChargeCode  uint16
}

// DecodedSample is a RawSample converted to physical units.
// Units:
// - VoltageMV: millivolts
// - CapacityPct: percent, 0-100
type DecodedSample struct {
	VoltageMV   int32     `json:"voltageMV"`
	CapacityPct uint8     `json:"capacityPct"`
	Timestamp   time.Time `json:"timestamp"`
}

// ChargeStatus is the inferred charge direction of the battery.
type ChargeStatus int

const (
	// Unknown is reported until two samples have been compared.
	Unknown ChargeStatus = iota
	// Charging indicates the battery signal went up since the last sample.
	Charging
	// Discharging indicates the battery signal went down since the last sample.
	Discharging
	// NotCharging indicates the battery signal did not change.
	NotCharging
)

var chargeStatusNames = map[ChargeStatus]string{
	Unknown:     "unknown",
	Charging:    "charging",
	Discharging: "discharging",
	NotCharging: "not charging",
}

func (s ChargeStatus) String() string {
	if n, ok := chargeStatusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("ChargeStatus(%d)", int(s))
}

// ParseChargeStatus is the inverse of ChargeStatus.String.
func ParseChargeStatus(s string) (ChargeStatus, error) {
	for k, v := range chargeStatusNames {
		if strings.EqualFold(v, strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return Unknown, pkgerrors.Errorf("unknown charge status %q", s)
}

func (s ChargeStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *ChargeStatus) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	v, err := ParseChargeStatus(str)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Snapshot is the published result of one poll cycle. Status is always
// computed from the sample pair that produced Decoded.
//
// Cycle is 0 for the placeholder snapshot held before the first
// successful poll cycle.
type Snapshot struct {
	Decoded DecodedSample `json:"decoded"`
	Status  ChargeStatus  `json:"status"`
	Cycle   uint64        `json:"cycle"`
}

// Placeholder returns the snapshot reported before any cycle completed.
func Placeholder() Snapshot {
	return Snapshot{Status: Unknown}
}

// IsPlaceholder reports whether no poll cycle has produced s.
func (s Snapshot) IsPlaceholder() bool {
	return s.Cycle == 0
}

// ACOnline reports whether external power is assumed to be present.
// The gauge has no power-source register, so a rising signal is the only hint.
func (s Snapshot) ACOnline() bool {
	return s.Status == Charging
}
