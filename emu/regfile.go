// Package emu provides functional ARM11 CPU emulation.
package emu

import "fmt"

// Register indices with architectural roles.
const (
	// SPIndex is the stack pointer register (r13).
	SPIndex = 13
	// LRIndex is the link register (r14).
	LRIndex = 14
	// PCIndex is the program counter register (r15).
	PCIndex = 15
)

// CPSR bit masks.
const (
	// FlagN is the negative flag.
	FlagN uint32 = 1 << 31
	// FlagZ is the zero flag.
	FlagZ uint32 = 1 << 30
	// FlagC is the carry flag.
	FlagC uint32 = 1 << 29
	// FlagV is the overflow flag.
	FlagV uint32 = 1 << 28
	// FlagI is the IRQ disable bit.
	FlagI uint32 = 1 << 7
	// FlagT is the Thumb state bit. State switches are recorded here but
	// only the ARM decoding mode is implemented.
	FlagT uint32 = 1 << 5

	// ModeMask selects the CPSR mode field.
	ModeMask uint32 = 0x1F
	// FlagsMask selects the condition-flag field.
	FlagsMask uint32 = 0xF000_0000
)

// Mode is a CPSR processor-mode field value.
type Mode uint8

// Implemented processor modes.
const (
	ModeUser       Mode = 0b1_0000
	ModeSupervisor Mode = 0b1_0011
	ModeUndefined  Mode = 0b1_1011
)

func (m Mode) String() string {
	switch m {
	case ModeUser:
		return "usr"
	case ModeSupervisor:
		return "svc"
	case ModeUndefined:
		return "und"
	default:
		return fmt.Sprintf("Mode(0x%02X)", uint8(m))
	}
}

// Privileged reports whether the mode may access SPSRs and change modes.
func (m Mode) Privileged() bool {
	return m != ModeUser
}

// Implemented reports whether the mode is one of the banked modes.
func (m Mode) Implemented() bool {
	switch m {
	case ModeUser, ModeSupervisor, ModeUndefined:
		return true
	default:
		return false
	}
}

// Modes lists the implemented modes in bank order.
var Modes = []Mode{ModeUser, ModeSupervisor, ModeUndefined}

const numBanks = 3

// bankIndex maps a mode to its slot in the banked-register tables.
// Reaching an unbanked mode is a defect in the core, not an input error.
func bankIndex(m Mode) int {
	switch m {
	case ModeUser:
		return 0
	case ModeSupervisor:
		return 1
	case ModeUndefined:
		return 2
	default:
		panic(fmt.Sprintf("emu: unbanked mode 0x%02X", uint8(m)))
	}
}

// RegFile represents the ARM11 register file: sixteen general-purpose
// registers (r15 is the program counter), the current program status
// register, and per-mode banks for r13/r14 and the saved status register.
//
// R holds the active view for the current mode; bank slots hold the
// inactive r13/r14 values of the other modes. All banking goes through
// SwitchMode, keyed by the CPSR mode field.
type RegFile struct {
	// R holds the general-purpose registers as seen by the current mode.
	R [16]uint32

	// CPSR is the current program status register.
	CPSR uint32

	bankSP [numBanks]uint32
	bankLR [numBanks]uint32
	spsr   [numBanks]uint32 // user slot unused
}

// NewRegFile creates a register file in User mode with cleared registers.
func NewRegFile() *RegFile {
	return &RegFile{CPSR: uint32(ModeUser)}
}

// Reset clears all registers and banks and sets the program counter.
func (r *RegFile) Reset(pc uint32) {
	*r = RegFile{CPSR: uint32(ModeUser)}
	r.R[PCIndex] = pc
}

// Mode returns the current processor mode from the CPSR mode field.
func (r *RegFile) Mode() Mode {
	return Mode(r.CPSR & ModeMask)
}

// Flag reports whether the given CPSR bit mask is set.
func (r *RegFile) Flag(mask uint32) bool {
	return r.CPSR&mask != 0
}

// SetFlag sets or clears the given CPSR bit mask.
func (r *RegFile) SetFlag(mask uint32, set bool) {
	if set {
		r.CPSR |= mask
	} else {
		r.CPSR &^= mask
	}
}

// SwitchMode banks the current mode's r13/r14, activates the new mode's
// bank, and updates the CPSR mode field. Switching to the current mode is
// a no-op.
func (r *RegFile) SwitchMode(newMode Mode) {
	oldMode := r.Mode()
	if oldMode == newMode {
		return
	}

	oldBank := bankIndex(oldMode)
	newBank := bankIndex(newMode)

	r.bankSP[oldBank] = r.R[SPIndex]
	r.bankLR[oldBank] = r.R[LRIndex]
	r.R[SPIndex] = r.bankSP[newBank]
	r.R[LRIndex] = r.bankLR[newBank]

	r.CPSR = (r.CPSR &^ ModeMask) | uint32(newMode)
}

// SPSR returns the current mode's saved status register. In User mode,
// which has no SPSR, the CPSR is returned instead.
func (r *RegFile) SPSR() uint32 {
	mode := r.Mode()
	if !mode.Privileged() {
		return r.CPSR
	}
	return r.spsr[bankIndex(mode)]
}

// SetSPSR writes the current mode's saved status register. Writes in User
// mode are ignored.
func (r *RegFile) SetSPSR(value uint32) {
	mode := r.Mode()
	if !mode.Privileged() {
		return
	}
	r.spsr[bankIndex(mode)] = value
}

// SPSRFor returns the saved status register of the given privileged mode.
func (r *RegFile) SPSRFor(mode Mode) uint32 {
	return r.spsr[bankIndex(mode)]
}

// BankedSP returns the r13 value owned by the given mode, whether or not
// that mode is current.
func (r *RegFile) BankedSP(mode Mode) uint32 {
	if mode == r.Mode() {
		return r.R[SPIndex]
	}
	return r.bankSP[bankIndex(mode)]
}

// BankedLR returns the r14 value owned by the given mode, whether or not
// that mode is current.
func (r *RegFile) BankedLR(mode Mode) uint32 {
	if mode == r.Mode() {
		return r.R[LRIndex]
	}
	return r.bankLR[bankIndex(mode)]
}
