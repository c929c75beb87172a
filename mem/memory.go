package mem

import "encoding/binary"

// Physical memory map constants.
const (
	// FCRAMStart is the base of main RAM.
	FCRAMStart uint32 = 0x0000_0000
	// FCRAMSize is the size of main RAM.
	FCRAMSize = 128 * 1024 * 1024

	// VRAMStart is the base of video RAM.
	VRAMStart uint32 = 0x1F00_0000
	// VRAMSize is the size of video RAM.
	VRAMSize = 1024 * 1024

	// IOStart is the base of the memory-mapped IO window.
	IOStart uint32 = 0x1010_0000
	// IOSize is the size of the IO window.
	IOSize = 1024 * 1024

	// BIOSStart is the base of the boot ROM image.
	BIOSStart uint32 = 0x1FFF_0000
	// BIOSSize is the size of the boot ROM image.
	BIOSSize = 64 * 1024

	// ROMStart is the base address program images are mapped at.
	ROMStart uint32 = 0x0800_0000
)

type segmentKind uint8

const (
	segFCRAM segmentKind = iota
	segVRAM
	segIO
	segBIOS
	segROM
)

type segment struct {
	kind     segmentKind
	start    uint32
	end      uint32 // exclusive
	writable bool
	data     []byte
}

func (s *segment) contains(addr uint32) bool {
	return s.start <= addr && addr < s.end
}

// Memory is a segmented physical memory implementing Bus. Allocations are
// proportional to the mapped regions rather than the full 4 GiB space.
// Accesses that straddle a segment boundary or touch an unmapped address
// fault; stores to read-only segments fault as writes.
type Memory struct {
	segments []*segment
}

// NewMemory creates a Memory with the fixed FCRAM/VRAM/IO/BIOS segments
// mapped. ROM is mapped separately via MapROM.
func NewMemory() *Memory {
	m := &Memory{}
	m.mapSegment(segFCRAM, FCRAMStart, FCRAMSize, true)
	m.mapSegment(segVRAM, VRAMStart, VRAMSize, true)
	m.mapSegment(segIO, IOStart, IOSize, true)
	m.mapSegment(segBIOS, BIOSStart, BIOSSize, false)
	return m
}

func (m *Memory) mapSegment(kind segmentKind, start uint32, size int, writable bool) {
	m.segments = append(m.segments, &segment{
		kind:     kind,
		start:    start,
		end:      start + uint32(size),
		writable: writable,
		data:     make([]byte, size),
	})
}

// MapROM maps a program image read-only at ROMStart, replacing any
// previously mapped image.
func (m *Memory) MapROM(image []byte) {
	kept := m.segments[:0]
	for _, s := range m.segments {
		if s.kind != segROM {
			kept = append(kept, s)
		}
	}
	m.segments = kept

	data := make([]byte, len(image))
	copy(data, image)
	m.segments = append(m.segments, &segment{
		kind:     segROM,
		start:    ROMStart,
		end:      ROMStart + uint32(len(data)),
		writable: false,
		data:     data,
	})
}

func (m *Memory) find(addr uint32, size int) *segment {
	for _, s := range m.segments {
		if s.contains(addr) && s.contains(addr+uint32(size)-1) {
			return s
		}
	}
	return nil
}

// Read8 reads one byte.
func (m *Memory) Read8(addr uint32) (uint8, error) {
	s := m.find(addr, 1)
	if s == nil {
		return 0, &Fault{Addr: addr, Access: AccessRead, Size: 1}
	}
	return s.data[addr-s.start], nil
}

// Read16 reads a little-endian halfword.
func (m *Memory) Read16(addr uint32) (uint16, error) {
	s := m.find(addr, 2)
	if s == nil {
		return 0, &Fault{Addr: addr, Access: AccessRead, Size: 2}
	}
	off := addr - s.start
	return binary.LittleEndian.Uint16(s.data[off : off+2]), nil
}

// Read32 reads a little-endian word.
func (m *Memory) Read32(addr uint32) (uint32, error) {
	s := m.find(addr, 4)
	if s == nil {
		return 0, &Fault{Addr: addr, Access: AccessRead, Size: 4}
	}
	off := addr - s.start
	return binary.LittleEndian.Uint32(s.data[off : off+4]), nil
}

// Write8 writes one byte.
func (m *Memory) Write8(addr uint32, value uint8) error {
	s := m.find(addr, 1)
	if s == nil || !s.writable {
		return &Fault{Addr: addr, Access: AccessWrite, Size: 1}
	}
	s.data[addr-s.start] = value
	return nil
}

// Write16 writes a little-endian halfword.
func (m *Memory) Write16(addr uint32, value uint16) error {
	s := m.find(addr, 2)
	if s == nil || !s.writable {
		return &Fault{Addr: addr, Access: AccessWrite, Size: 2}
	}
	off := addr - s.start
	binary.LittleEndian.PutUint16(s.data[off:off+2], value)
	return nil
}

// Write32 writes a little-endian word.
func (m *Memory) Write32(addr uint32, value uint32) error {
	s := m.find(addr, 4)
	if s == nil || !s.writable {
		return &Fault{Addr: addr, Access: AccessWrite, Size: 4}
	}
	off := addr - s.start
	binary.LittleEndian.PutUint32(s.data[off:off+4], value)
	return nil
}

// LoadAt copies raw bytes into memory at the given address, ignoring
// segment write protection. It is intended for loaders and tests that
// assemble the initial machine image.
func (m *Memory) LoadAt(addr uint32, data []byte) error {
	s := m.find(addr, len(data))
	if s == nil {
		return &Fault{Addr: addr, Access: AccessWrite, Size: len(data)}
	}
	copy(s.data[addr-s.start:], data)
	return nil
}
