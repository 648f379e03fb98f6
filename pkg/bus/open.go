package bus

import (
	"time"

	pkgerrors "github.com/pkg/errors"
)

const (
	KindI2C    = "i2c"
	KindModbus = "modbus"
)

// Options selects and parameterizes a transport.
type Options struct {
	Kind     string
	Device   string // i2c bus name, "" for the first bus
	Address  uint16 // i2c device address
	Endpoint string // modbus TCP host:port
	UnitID   uint8
	Timeout  time.Duration
}

// Open opens the transport described by o.
func Open(o Options) (ClientCloser, error) {
	switch o.Kind {
	case KindI2C, "":
		addr := o.Address
		if addr == 0 {
			addr = DefaultI2CAddress
		}
		return OpenI2C(o.Device, addr)
	case KindModbus:
		return OpenModbus(o.Endpoint, o.UnitID, o.Timeout)
	default:
		return nil, pkgerrors.Wrapf(ErrUnknownKind, "%q", o.Kind)
	}
}
