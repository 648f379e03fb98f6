package engine

import (
	"sync/atomic"

	"github.com/charlie0129/fuelgauge/pkg/gauge"
)

// Cache holds exactly one snapshot. Replace swaps a pointer to a private
// copy, so Read never observes a partially written snapshot.
type Cache struct {
	p atomic.Pointer[gauge.Snapshot]
}

// NewCache returns a Cache holding the placeholder snapshot.
func NewCache() *Cache {
	c := &Cache{}
	s := gauge.Placeholder()
	c.p.Store(&s)
	return c
}

// Replace installs s as the current snapshot.
func (c *Cache) Replace(s gauge.Snapshot) {
	c.p.Store(&s)
}

// Read returns a copy of the current snapshot.
func (c *Cache) Read() gauge.Snapshot {
	return *c.p.Load()
}
