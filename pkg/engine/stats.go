package engine

import (
	"sync"
	"time"
)

// Stats summarizes poll cycle outcomes since Start.
type Stats struct {
	Succeeded     uint64     `json:"succeeded"`
	Failed        uint64     `json:"failed"`
	LastSuccessAt *time.Time `json:"lastSuccessAt,omitempty"`
	LastError     string     `json:"lastError,omitempty"`
	LastErrorAt   *time.Time `json:"lastErrorAt,omitempty"`
}

type stats struct {
	mu sync.Mutex
	s  Stats
}

func (st *stats) succeed(at time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Succeeded++
	st.s.LastSuccessAt = &at
}

func (st *stats) fail(err error, at time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Failed++
	st.s.LastError = err.Error()
	st.s.LastErrorAt = &at
}

// Stats returns a copy of the cycle counters.
func (e *Engine) Stats() Stats {
	e.stats.mu.Lock()
	defer e.stats.mu.Unlock()
	return e.stats.s
}
