package bus

import (
	"encoding/binary"
	"io"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"
)

// DefaultI2CAddress is the 7-bit address of the MAX1704x gauges.
const DefaultI2CAddress = 0x36

var hostInit sync.Once
var hostInitErr error

// I2C reads gauge registers over an I2C bus. Words are transferred MSB
// first, which is what SMBus read_word_swapped returns.
//
// Any bus with a drivers.I2C Tx method works: periph.io buses on Linux
// hosts, machine.I2C on TinyGo boards.
type I2C struct {
	bus  drivers.I2C
	addr uint16
	mu   sync.Mutex
}

// OpenI2C initializes the host drivers and opens the named I2C bus. An
// empty name opens the first available bus.
func OpenI2C(name string, addr uint16) (*I2C, error) {
	hostInit.Do(func() {
		_, hostInitErr = host.Init()
	})
	if hostInitErr != nil {
		return nil, pkgerrors.Wrap(hostInitErr, "failed to initialize host drivers")
	}

	b, err := i2creg.Open(name)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to open i2c bus %q", name)
	}

	return NewI2C(b, addr), nil
}

// NewI2C wraps an already opened bus. If b is an io.Closer, Close closes it.
func NewI2C(b drivers.I2C, addr uint16) *I2C {
	return &I2C{
		bus:  b,
		addr: addr,
	}
}

// ReadRegister reads one 16-bit register.
func (c *I2C) ReadRegister(addr uint8) (uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"dev": c.addr,
		"reg": addr,
	}).Trace("Trying to read from i2c")

	var buf [2]byte
	if err := c.bus.Tx(c.addr, []byte{addr}, buf[:]); err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to read register 0x%02X", addr)
	}
	v := binary.BigEndian.Uint16(buf[:])

	logrus.WithFields(logrus.Fields{
		"dev": c.addr,
		"reg": addr,
		"val": v,
	}).Trace("Read from i2c succeed")

	return v, nil
}

// WriteRegister writes one 16-bit register.
func (c *I2C) WriteRegister(addr uint8, value uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"dev": c.addr,
		"reg": addr,
		"val": value,
	}).Trace("Trying to write to i2c")

	w := []byte{addr, 0, 0}
	binary.BigEndian.PutUint16(w[1:], value)
	if err := c.bus.Tx(c.addr, w, nil); err != nil {
		return pkgerrors.Wrapf(err, "failed to write register 0x%02X", addr)
	}

	return nil
}

// Close closes the underlying bus.
func (c *I2C) Close() error {
	if cl, ok := c.bus.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
