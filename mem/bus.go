// Package mem provides the physical memory bus the CPU core executes
// against: a flat 32-bit address space assembled from fixed segments.
package mem

import "fmt"

// Access identifies the kind of bus access that faulted.
type Access uint8

// Access kinds.
const (
	AccessRead Access = iota
	AccessWrite
	AccessExecute
)

func (a Access) String() string {
	switch a {
	case AccessRead:
		return "read"
	case AccessWrite:
		return "write"
	case AccessExecute:
		return "execute"
	default:
		return "unknown"
	}
}

// Fault reports an invalid bus access: an unmapped address or a write to
// a read-only segment. It is returned by Bus implementations and surfaced
// unchanged through the CPU step loop.
type Fault struct {
	// Addr is the faulting physical address.
	Addr uint32
	// Access is the kind of access that faulted.
	Access Access
	// Size is the access width in bytes.
	Size int
}

func (f *Fault) Error() string {
	return fmt.Sprintf("memory fault: %s of %d bytes at 0x%08X", f.Access, f.Size, f.Addr)
}

// Bus is the capability the CPU core calls through for all memory
// traffic. Addresses are physical; alignment of half/word accesses is the
// caller's responsibility. Implementations report invalid accesses with
// *Fault and must never silently substitute values.
type Bus interface {
	Read8(addr uint32) (uint8, error)
	Read16(addr uint32) (uint16, error)
	Read32(addr uint32) (uint32, error)

	Write8(addr uint32, value uint8) error
	Write16(addr uint32, value uint16) error
	Write32(addr uint32, value uint32) error
}
