package bus

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/i2c/i2ctest"
)

func TestI2CReadRegister(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultI2CAddress, W: []byte{0x02}, R: []byte{0xC8, 0x00}},
			{Addr: DefaultI2CAddress, W: []byte{0x04}, R: []byte{0x50, 0x80}},
		},
	}
	c := NewI2C(pb, DefaultI2CAddress)

	v, err := c.ReadRegister(0x02)
	if err != nil {
		t.Fatalf("ReadRegister(0x02) error = %v", err)
	}
	if v != 0xC800 {
		t.Errorf("ReadRegister(0x02) = 0x%04X, want 0xC800", v)
	}

	v, err = c.ReadRegister(0x04)
	if err != nil {
		t.Fatalf("ReadRegister(0x04) error = %v", err)
	}
	if v != 0x5080 {
		t.Errorf("ReadRegister(0x04) = 0x%04X, want 0x5080", v)
	}

	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestI2CReset(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: DefaultI2CAddress, W: []byte{CommandRegister, 0xFF, 0xFF}},
		},
	}
	c := NewI2C(pb, DefaultI2CAddress)
	if err := Reset(c); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestI2CReadRegisterError(t *testing.T) {
	// An empty playback fails every transaction.
	c := NewI2C(&i2ctest.Playback{DontPanic: true}, DefaultI2CAddress)
	if _, err := c.ReadRegister(0x02); err == nil {
		t.Fatal("expected error from empty playback")
	}
}

// txOnly is a bare drivers.I2C bus, as found on TinyGo boards.
type txOnly struct {
	addrs []uint16
	regs  map[byte]uint16
}

func (b *txOnly) Tx(addr uint16, w, r []byte) error {
	b.addrs = append(b.addrs, addr)
	if len(w) != 1 || len(r) != 2 {
		return errors.New("unexpected transfer")
	}
	v := b.regs[w[0]]
	r[0], r[1] = byte(v>>8), byte(v)
	return nil
}

func TestI2COverDriversBus(t *testing.T) {
	b := &txOnly{regs: map[byte]uint16{0x02: 0xBEEF}}
	c := NewI2C(b, 0x32)

	v, err := c.ReadRegister(0x02)
	if err != nil {
		t.Fatalf("ReadRegister() error = %v", err)
	}
	if v != 0xBEEF {
		t.Errorf("ReadRegister() = 0x%04X, want 0xBEEF", v)
	}
	if len(b.addrs) != 1 || b.addrs[0] != 0x32 {
		t.Errorf("device addresses = %v, want [0x32]", b.addrs)
	}
	// The bus has no Close method, closing the client is a no-op.
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

type fakeModbus struct {
	regs    map[uint16]uint16
	written map[uint16]uint16
	err     error
	short   bool
}

func (f *fakeModbus) ReadHoldingRegisters(address, quantity uint16) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.short {
		return []byte{0x01}, nil
	}
	v := f.regs[address]
	return []byte{byte(v >> 8), byte(v)}, nil
}

func (f *fakeModbus) WriteSingleRegister(address, value uint16) ([]byte, error) {
	if f.written == nil {
		f.written = make(map[uint16]uint16)
	}
	f.written[address] = value
	return nil, f.err
}

func TestModbusReadRegister(t *testing.T) {
	tests := []struct {
		name    string
		fake    *fakeModbus
		want    uint16
		wantErr bool
	}{
		{
			name: "ok",
			fake: &fakeModbus{regs: map[uint16]uint16{2: 0xC800}},
			want: 0xC800,
		},
		{
			name:    "transport error",
			fake:    &fakeModbus{err: errors.New("timeout")},
			wantErr: true,
		},
		{
			name:    "short response",
			fake:    &fakeModbus{short: true},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewModbus(tt.fake).ReadRegister(2)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadRegister() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ReadRegister() = 0x%04X, want 0x%04X", got, tt.want)
			}
		})
	}
}

func TestModbusReset(t *testing.T) {
	f := &fakeModbus{}
	m := NewModbus(f)
	if err := Reset(m); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if f.written[CommandRegister] != ResetCommand {
		t.Errorf("command register = 0x%04X, want 0x%04X", f.written[CommandRegister], ResetCommand)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

type readOnly struct{}

func (readOnly) ReadRegister(uint8) (uint16, error) { return 0, nil }

func TestResetReadOnly(t *testing.T) {
	if err := Reset(readOnly{}); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("Reset() error = %v, want ErrReadOnly", err)
	}
}

func TestOpenUnknownKind(t *testing.T) {
	if _, err := Open(Options{Kind: "spi"}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("Open() error = %v, want ErrUnknownKind", err)
	}
}

func TestMockQueue(t *testing.T) {
	m := NewMock(map[uint8]uint16{0x02: 100})
	m.Queue(0x02, MockRead{Value: 200}, MockRead{Err: errors.New("nack")})

	if v, _ := m.ReadRegister(0x02); v != 200 {
		t.Errorf("first read = %d, want 200", v)
	}
	if _, err := m.ReadRegister(0x02); err == nil {
		t.Error("second read should fail")
	}
	if v, _ := m.ReadRegister(0x02); v != 200 {
		t.Errorf("third read = %d, want last value 200", v)
	}
	if n := m.Reads(0x02); n != 3 {
		t.Errorf("Reads() = %d, want 3", n)
	}
}
