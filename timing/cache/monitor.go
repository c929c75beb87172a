package cache

import (
	"github.com/ctrsim/ctrsim/mem"
)

// Monitor wraps a memory bus and mirrors its traffic into a cache model
// for hit/miss accounting. The wrapped bus stays authoritative for data
// and faults; the model only tracks line residency, so a fill that cannot
// complete (a line straddling a segment end) is skipped rather than
// surfaced, and model writebacks never reach the bus.
type Monitor struct {
	bus   mem.Bus
	cache *Cache
}

// NewMonitor creates a monitor over the given bus with the given cache
// geometry.
func NewMonitor(config Config, bus mem.Bus) *Monitor {
	return &Monitor{
		bus:   bus,
		cache: New(config, discardBacking{NewBusBacking(bus)}),
	}
}

// Stats returns the model's performance counters.
func (m *Monitor) Stats() Statistics {
	return m.cache.Stats()
}

// Reset invalidates the model and clears its counters. Bus contents are
// untouched.
func (m *Monitor) Reset() {
	m.cache.Reset()
}

// Read8 reads a byte through the bus, recording the access in the model.
func (m *Monitor) Read8(addr uint32) (uint8, error) {
	v, err := m.bus.Read8(addr)
	if err == nil {
		m.cache.Read(addr, 1)
	}
	return v, err
}

// Read16 reads a halfword through the bus, recording the access in the
// model.
func (m *Monitor) Read16(addr uint32) (uint16, error) {
	v, err := m.bus.Read16(addr)
	if err == nil {
		m.cache.Read(addr, 2)
	}
	return v, err
}

// Read32 reads a word through the bus, recording the access in the model.
func (m *Monitor) Read32(addr uint32) (uint32, error) {
	v, err := m.bus.Read32(addr)
	if err == nil {
		m.cache.Read(addr, 4)
	}
	return v, err
}

// Write8 writes a byte through the bus, recording the access in the
// model.
func (m *Monitor) Write8(addr uint32, value uint8) error {
	err := m.bus.Write8(addr, value)
	if err == nil {
		m.cache.Write(addr, 1, uint32(value))
	}
	return err
}

// Write16 writes a halfword through the bus, recording the access in the
// model.
func (m *Monitor) Write16(addr uint32, value uint16) error {
	err := m.bus.Write16(addr, value)
	if err == nil {
		m.cache.Write(addr, 2, uint32(value))
	}
	return err
}

// Write32 writes a word through the bus, recording the access in the
// model.
func (m *Monitor) Write32(addr uint32, value uint32) error {
	err := m.bus.Write32(addr, value)
	if err == nil {
		m.cache.Write(addr, 4, value)
	}
	return err
}

// discardBacking fills from the bus but drops writebacks, keeping the
// model's victim traffic away from authoritative memory.
type discardBacking struct {
	*BusBacking
}

func (discardBacking) Write(uint32, []byte) error {
	return nil
}
