package emu

import "errors"

// ErrUnsupportedCoprocessorRegister is returned by CP15 reads and writes
// that name a register outside the implemented subset. The faulting
// instruction does not complete and leaves register state unchanged.
var ErrUnsupportedCoprocessorRegister = errors.New("unsupported coprocessor register")

// CP15Key identifies a system-control coprocessor register by its CRn,
// CRm, and opcode-2 fields.
type CP15Key struct {
	CRn  uint8
	CRm  uint8
	Opc2 uint8
}

// Implemented CP15 registers.
var (
	CP15MainID    = CP15Key{CRn: 0, CRm: 0, Opc2: 0}
	CP15CacheType = CP15Key{CRn: 0, CRm: 0, Opc2: 1}
	CP15Control   = CP15Key{CRn: 1, CRm: 0, Opc2: 0}
	CP15TTBR0     = CP15Key{CRn: 2, CRm: 0, Opc2: 0}
	CP15DACR      = CP15Key{CRn: 3, CRm: 0, Opc2: 0}
	CP15DFSR      = CP15Key{CRn: 5, CRm: 0, Opc2: 0}
	CP15IFSR      = CP15Key{CRn: 5, CRm: 0, Opc2: 1}
	CP15FAR       = CP15Key{CRn: 6, CRm: 0, Opc2: 0}
	CP15ContextID = CP15Key{CRn: 13, CRm: 0, Opc2: 1}
)

// cp15MainIDValue is the reset value of the main ID register (ARM1176
// family identity).
const cp15MainIDValue = 0x410F_B767

// CP15 is the system-control coprocessor register bank: a keyed store of
// 32-bit values mutated only via MCR and read only via MRC. It has no
// side effects of its own.
type CP15 struct {
	regs map[CP15Key]uint32
}

// NewCP15 creates a coprocessor bank with the implemented register subset
// at reset values.
func NewCP15() *CP15 {
	c := &CP15{}
	c.Reset()
	return c
}

// Reset restores all implemented registers to their reset values.
func (c *CP15) Reset() {
	c.regs = map[CP15Key]uint32{
		CP15MainID:    cp15MainIDValue,
		CP15CacheType: 0,
		CP15Control:   0,
		CP15TTBR0:     0,
		CP15DACR:      0,
		CP15DFSR:      0,
		CP15IFSR:      0,
		CP15FAR:       0,
		CP15ContextID: 0,
	}
}

// Read returns the value of the named register, or fails with
// ErrUnsupportedCoprocessorRegister for identifiers outside the subset.
func (c *CP15) Read(key CP15Key) (uint32, error) {
	value, ok := c.regs[key]
	if !ok {
		return 0, ErrUnsupportedCoprocessorRegister
	}
	return value, nil
}

// Write stores a value into the named register, or fails with
// ErrUnsupportedCoprocessorRegister for identifiers outside the subset.
func (c *CP15) Write(key CP15Key, value uint32) error {
	if _, ok := c.regs[key]; !ok {
		return ErrUnsupportedCoprocessorRegister
	}
	c.regs[key] = value
	return nil
}

// Snapshot returns a copy of the register bank contents.
func (c *CP15) Snapshot() map[CP15Key]uint32 {
	out := make(map[CP15Key]uint32, len(c.regs))
	for k, v := range c.regs {
		out[k] = v
	}
	return out
}
