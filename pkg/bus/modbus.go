package bus

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ModbusRegisters is the subset of modbus.Client used for gauges sitting
// behind a Modbus gateway.
type ModbusRegisters interface {
	ReadHoldingRegisters(address, quantity uint16) ([]byte, error)
	WriteSingleRegister(address, value uint16) ([]byte, error)
}

// Modbus maps gauge register addresses onto Modbus holding registers.
type Modbus struct {
	client  ModbusRegisters
	handler *modbus.TCPClientHandler
	mu      sync.Mutex
}

// OpenModbus connects to a Modbus TCP gateway.
func OpenModbus(endpoint string, unitID uint8, timeout time.Duration) (*Modbus, error) {
	h := modbus.NewTCPClientHandler(endpoint)
	h.SlaveId = unitID
	if timeout > 0 {
		h.Timeout = timeout
	}
	if err := h.Connect(); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to connect to modbus endpoint %s", endpoint)
	}

	return &Modbus{
		client:  modbus.NewClient(h),
		handler: h,
	}, nil
}

// NewModbus wraps an existing register client.
func NewModbus(c ModbusRegisters) *Modbus {
	return &Modbus{client: c}
}

// ReadRegister reads a single holding register.
func (m *Modbus) ReadRegister(addr uint8) (uint16, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	logrus.WithField("reg", addr).Trace("Trying to read from modbus")

	b, err := m.client.ReadHoldingRegisters(uint16(addr), 1)
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to read holding register %d", addr)
	}
	if len(b) != 2 {
		return 0, pkgerrors.Errorf("incorrect data length %d!=2", len(b))
	}
	v := binary.BigEndian.Uint16(b)

	logrus.WithFields(logrus.Fields{
		"reg": addr,
		"val": v,
	}).Trace("Read from modbus succeed")

	return v, nil
}

// WriteRegister writes a single holding register.
func (m *Modbus) WriteRegister(addr uint8, value uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.client.WriteSingleRegister(uint16(addr), value); err != nil {
		return pkgerrors.Wrapf(err, "failed to write holding register %d", addr)
	}
	return nil
}

// Close closes the TCP connection, if this client opened one.
func (m *Modbus) Close() error {
	if m.handler == nil {
		return nil
	}
	return m.handler.Close()
}
