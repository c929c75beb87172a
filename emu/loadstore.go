package emu

import (
	"github.com/ctrsim/ctrsim/insts"
	"github.com/ctrsim/ctrsim/mem"
)

// LoadStoreUnit executes single and halfword data transfers against the
// memory bus, including pre/post-indexed addressing and base writeback.
type LoadStoreUnit struct {
	regFile *RegFile
	alu     *ALU
	bus     mem.Bus
}

// NewLoadStoreUnit creates a new LoadStoreUnit connected to the given
// register file and bus.
func NewLoadStoreUnit(regFile *RegFile, alu *ALU, bus mem.Bus) *LoadStoreUnit {
	return &LoadStoreUnit{
		regFile: regFile,
		alu:     alu,
		bus:     bus,
	}
}

// Transfer performs a decoded load or store. Pre-indexed addressing uses
// the updated address for the access; post-indexed uses the unmodified
// base. Base writeback happens only after the access succeeds, so a
// faulting transfer leaves the base register untouched.
func (l *LoadStoreUnit) Transfer(inst *insts.Instruction) error {
	base := l.regFile.R[inst.Rn]
	offset := l.offset(inst)

	updated := base + offset
	if !inst.AddOffset {
		updated = base - offset
	}

	addr := base
	if inst.PreIndex {
		addr = updated
	}

	if err := l.access(inst, addr); err != nil {
		return err
	}

	if inst.Writeback {
		l.regFile.R[inst.Rn] = updated
	}
	return nil
}

func (l *LoadStoreUnit) offset(inst *insts.Instruction) uint32 {
	if inst.ImmOperand {
		return inst.Imm
	}
	if inst.Format == insts.FormatHalfTransfer {
		return l.regFile.R[inst.Rm]
	}
	value, _ := l.alu.ShiftValue(
		l.regFile.R[inst.Rm], inst.ShiftType, uint32(inst.ShiftAmount))
	return value
}

func (l *LoadStoreUnit) access(inst *insts.Instruction, addr uint32) error {
	switch inst.Op {
	case insts.OpLDR:
		value, err := l.bus.Read32(addr)
		if err != nil {
			return err
		}
		l.regFile.R[inst.Rd] = value
	case insts.OpLDRB:
		value, err := l.bus.Read8(addr)
		if err != nil {
			return err
		}
		l.regFile.R[inst.Rd] = uint32(value)
	case insts.OpLDRH:
		value, err := l.bus.Read16(addr)
		if err != nil {
			return err
		}
		l.regFile.R[inst.Rd] = uint32(value)
	case insts.OpLDRSB:
		value, err := l.bus.Read8(addr)
		if err != nil {
			return err
		}
		l.regFile.R[inst.Rd] = uint32(int32(int8(value)))
	case insts.OpLDRSH:
		value, err := l.bus.Read16(addr)
		if err != nil {
			return err
		}
		l.regFile.R[inst.Rd] = uint32(int32(int16(value)))
	case insts.OpSTR:
		return l.bus.Write32(addr, l.regFile.R[inst.Rd])
	case insts.OpSTRB:
		return l.bus.Write8(addr, uint8(l.regFile.R[inst.Rd]))
	case insts.OpSTRH:
		return l.bus.Write16(addr, uint16(l.regFile.R[inst.Rd]))
	}
	return nil
}
