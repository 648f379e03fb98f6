// Package bus provides register-addressed transports for fuel gauges.
package bus

import "io"

// Client reads 16-bit registers from a gauge.
type Client interface {
	ReadRegister(addr uint8) (uint16, error)
}

// Writer writes 16-bit registers to a gauge.
type Writer interface {
	WriteRegister(addr uint8, value uint16) error
}

// ClientCloser is a Client owning a bus handle.
type ClientCloser interface {
	Client
	io.Closer
}

const (
	// CommandRegister is the MAX1704x command register.
	CommandRegister = 0xFE
	// ResetCommand triggers a power-on reset when written to CommandRegister.
	ResetCommand = 0xFFFF
)

// Reset sends the power-on reset command. It fails with ErrReadOnly if c
// cannot write registers.
func Reset(c Client) error {
	w, ok := c.(Writer)
	if !ok {
		return ErrReadOnly
	}
	return w.WriteRegister(CommandRegister, ResetCommand)
}
