package emu

import "fmt"

// TrapKind is the architectural exception class taken by the core.
type TrapKind int

// Exception classes handled by the core.
const (
	TrapUndefined TrapKind = iota
	TrapSoftwareInterrupt
)

// String returns the name of the exception class.
func (k TrapKind) String() string {
	switch k {
	case TrapUndefined:
		return "Undefined"
	case TrapSoftwareInterrupt:
		return "SoftwareInterrupt"
	default:
		return fmt.Sprintf("TrapKind(%d)", int(k))
	}
}

// DefaultVectorBase is the base address of the exception vector table.
const DefaultVectorBase uint32 = 0x0010_0000

// Vector table offsets from the base address.
const (
	undefinedVectorOffset         uint32 = 0x4
	softwareInterruptVectorOffset uint32 = 0x8
)

// ExceptionRecord describes a single exception entry: what class of trap
// was taken, the address the handler should return to, and the mode the
// core switched into.
type ExceptionRecord struct {
	Kind       TrapKind
	ReturnAddr uint32
	Target     Mode
}

// ExceptionUnit performs exception entry and return sequencing against a
// register file.
type ExceptionUnit struct {
	regFile    *RegFile
	vectorBase uint32
}

// NewExceptionUnit creates an exception unit with the given vector table
// base address.
func NewExceptionUnit(regFile *RegFile, vectorBase uint32) *ExceptionUnit {
	return &ExceptionUnit{
		regFile:    regFile,
		vectorBase: vectorBase,
	}
}

// Vector returns the handler address for an exception class.
func (u *ExceptionUnit) Vector(kind TrapKind) uint32 {
	switch kind {
	case TrapSoftwareInterrupt:
		return u.vectorBase + softwareInterruptVectorOffset
	default:
		return u.vectorBase + undefinedVectorOffset
	}
}

// TargetMode returns the mode the core enters for an exception class.
func (u *ExceptionUnit) TargetMode(kind TrapKind) Mode {
	switch kind {
	case TrapSoftwareInterrupt:
		return ModeSupervisor
	default:
		return ModeUndefined
	}
}

// Enter performs the full exception entry sequence: the pre-exception
// CPSR is saved into the target mode's SPSR, the core switches into the
// target mode, the banked link register receives the return address, IRQs
// are masked, and the PC jumps to the vector.
func (u *ExceptionUnit) Enter(rec ExceptionRecord) {
	savedCPSR := u.regFile.CPSR

	u.regFile.SwitchMode(rec.Target)
	u.regFile.SetSPSR(savedCPSR)
	u.regFile.R[LRIndex] = rec.ReturnAddr
	u.regFile.SetFlag(FlagI, true)
	u.regFile.R[PCIndex] = u.Vector(rec.Kind)
}

// Return performs the exception return sequence: the current mode's SPSR
// is restored into the CPSR, with the implied mode switch re-banking sp
// and lr, and the PC is set to the return target. The restore is a single
// indivisible state change.
//
// An SPSR naming an unimplemented mode cannot re-bank; the current mode is
// kept while the flags and interrupt mask are still restored, matching the
// MSR mode-write rule.
func (u *ExceptionUnit) Return(target uint32) {
	saved := u.regFile.SPSR()

	newMode := Mode(saved & ModeMask)
	if !newMode.Implemented() {
		newMode = u.regFile.Mode()
		saved = (saved &^ ModeMask) | uint32(newMode)
	}

	u.regFile.SwitchMode(newMode)
	u.regFile.CPSR = saved
	u.regFile.R[PCIndex] = target
}
