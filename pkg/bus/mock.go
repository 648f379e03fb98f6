package bus

import (
	"sync"
)

// Mock is an in-memory gauge. Queued values are returned first, in order;
// once a register's queue is drained its last value is repeated.
type Mock struct {
	mu     sync.Mutex
	queues map[uint8][]MockRead
	last   map[uint8]uint16
	reads  map[uint8]int
	writes map[uint8][]uint16
	closed bool

	// BeforeRead, if set, runs before every read without holding the lock.
	BeforeRead func(addr uint8)
}

// MockRead is one queued register read result.
type MockRead struct {
	Value uint16
	Err   error
}

// NewMock returns a Mock prefilled with register values.
func NewMock(prefillValues map[uint8]uint16) *Mock {
	m := &Mock{
		queues: make(map[uint8][]MockRead),
		last:   make(map[uint8]uint16),
		reads:  make(map[uint8]int),
		writes: make(map[uint8][]uint16),
	}
	for k, v := range prefillValues {
		m.last[k] = v
	}
	return m
}

// Queue appends read results for addr.
func (m *Mock) Queue(addr uint8, reads ...MockRead) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[addr] = append(m.queues[addr], reads...)
}

// Set replaces the steady-state value of addr.
func (m *Mock) Set(addr uint8, v uint16) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[addr] = v
}

// Reads returns how many times addr was read.
func (m *Mock) Reads(addr uint8) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads[addr]
}

// Writes returns the values written to addr.
func (m *Mock) Writes(addr uint8) []uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint16(nil), m.writes[addr]...)
}

func (m *Mock) ReadRegister(addr uint8) (uint16, error) {
	if m.BeforeRead != nil {
		m.BeforeRead(addr)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads[addr]++
	if q := m.queues[addr]; len(q) > 0 {
		r := q[0]
		m.queues[addr] = q[1:]
		if r.Err != nil {
			return 0, r.Err
		}
		m.last[addr] = r.Value
		return r.Value, nil
	}
	return m.last[addr], nil
}

func (m *Mock) WriteRegister(addr uint8, value uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes[addr] = append(m.writes[addr], value)
	return nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
