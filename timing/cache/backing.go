package cache

import (
	"github.com/ctrsim/ctrsim/mem"
)

// BusBacking adapts a mem.Bus as a BackingStore, so the cache model fills
// and writes back lines through the same segmented memory the core sees.
type BusBacking struct {
	bus mem.Bus
}

// NewBusBacking creates a BackingStore over a memory bus.
func NewBusBacking(bus mem.Bus) *BusBacking {
	return &BusBacking{bus: bus}
}

// Read fetches size bytes starting at addr.
func (b *BusBacking) Read(addr uint32, size int) ([]byte, error) {
	data := make([]byte, size)
	for i := 0; i < size; i++ {
		v, err := b.bus.Read8(addr + uint32(i))
		if err != nil {
			return nil, err
		}
		data[i] = v
	}
	return data, nil
}

// Write stores data starting at addr.
func (b *BusBacking) Write(addr uint32, data []byte) error {
	for i, v := range data {
		if err := b.bus.Write8(addr+uint32(i), v); err != nil {
			return err
		}
	}
	return nil
}
