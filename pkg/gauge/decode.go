package gauge

import (
	"math"
	"time"

	pkgerrors "github.com/pkg/errors"
)

const (
	// DefaultVoltageLSBNanoVolts is the VCELL LSB weight of the MAX1704x
	// family: 78.125 uV.
	DefaultVoltageLSBNanoVolts = 78125
	// DefaultCapacityDivisor converts the 8.8 fixed-point SOC register to
	// whole percent.
	DefaultCapacityDivisor = 256

	maxCapacityPct = 100
	nanoPerMilli   = 1_000_000

	// MaxVoltageLSBNanoVolts is the largest LSB weight for which every
	// 16-bit code decodes to an int32 millivolt value.
	MaxVoltageLSBNanoVolts = math.MaxInt32 * nanoPerMilli / math.MaxUint16
)

// Scale describes how register codes map to physical units.
type Scale struct {
	VoltageLSBNanoVolts int64
	CapacityDivisor     uint32
}

// DefaultScale is the scale of the reference chip.
var DefaultScale = Scale{
	VoltageLSBNanoVolts: DefaultVoltageLSBNanoVolts,
	CapacityDivisor:     DefaultCapacityDivisor,
}

// Decoder converts raw samples to physical units.
type Decoder struct {
	Scale Scale
}

// NewDecoder returns a Decoder using s.
func NewDecoder(s Scale) Decoder {
	return Decoder{Scale: s}
}

// Decode converts raw into a DecodedSample stamped with at.
//
//	voltage_mv   = round(code * lsb_nV / 1e6)
//	capacity_pct = min(100, code / divisor)
//
// It never fails with DefaultScale.
func (d Decoder) Decode(raw RawSample, at time.Time) (DecodedSample, error) {
	lsb := d.Scale.VoltageLSBNanoVolts
	if lsb < 0 || lsb > MaxVoltageLSBNanoVolts {
		return DecodedSample{}, pkgerrors.Wrapf(ErrDecodeOutOfRange, "voltage lsb %d nV", lsb)
	}
	mv := (int64(raw.VoltageCode)*lsb + nanoPerMilli/2) / nanoPerMilli
	if mv < 0 || mv > math.MaxInt32 {
		return DecodedSample{}, pkgerrors.Wrapf(ErrDecodeOutOfRange, "voltage code 0x%04X decodes to %d mV", raw.VoltageCode, mv)
	}

	if d.Scale.CapacityDivisor == 0 {
		return DecodedSample{}, pkgerrors.Wrap(ErrDecodeOutOfRange, "capacity divisor is zero")
	}
	pct := uint32(raw.ChargeCode) / d.Scale.CapacityDivisor
	if pct > maxCapacityPct {
		// Some chips report slightly above 100% near full charge.
		pct = maxCapacityPct
	}

	return DecodedSample{
		VoltageMV:   int32(mv),
		CapacityPct: uint8(pct),
		Timestamp:   at,
	}, nil
}

// Decode decodes raw with DefaultScale, stamped with the current time.
func Decode(raw RawSample) DecodedSample {
	s, _ := NewDecoder(DefaultScale).Decode(raw, time.Now())
	return s
}
