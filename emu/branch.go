package emu

import "github.com/ctrsim/ctrsim/insts"

// BranchUnit implements ARM branch operations and condition evaluation.
type BranchUnit struct {
	regFile *RegFile
}

// NewBranchUnit creates a new BranchUnit connected to the given register
// file.
func NewBranchUnit(regFile *RegFile) *BranchUnit {
	return &BranchUnit{regFile: regFile}
}

// B branches relative to the fetch address. The offset is relative to the
// fetch address plus 8, matching the PC value the instruction observes.
func (b *BranchUnit) B(fetchPC uint32, offset int32) {
	b.regFile.R[PCIndex] = fetchPC + 8 + uint32(offset)
}

// BL branches relative to the fetch address and banks the return address
// (the following instruction) into the current mode's link register.
func (b *BranchUnit) BL(fetchPC uint32, offset int32) {
	b.regFile.R[LRIndex] = fetchPC + 4
	b.B(fetchPC, offset)
}

// BX branches to the address in Rm. The low bit selects the instruction-
// set state; the switch is recorded in CPSR T but only ARM decoding is
// implemented, so its only further effect is address masking.
func (b *BranchUnit) BX(target uint32) {
	b.regFile.SetFlag(FlagT, target&1 != 0)
	b.regFile.R[PCIndex] = target &^ 1
}

// CheckCondition evaluates an ARM condition code against the current CPSR
// flags. Condition 1111 never executes.
func (b *BranchUnit) CheckCondition(cond insts.Cond) bool {
	n := b.regFile.Flag(FlagN)
	z := b.regFile.Flag(FlagZ)
	c := b.regFile.Flag(FlagC)
	v := b.regFile.Flag(FlagV)

	switch cond {
	case insts.CondEQ:
		return z
	case insts.CondNE:
		return !z
	case insts.CondCS:
		return c
	case insts.CondCC:
		return !c
	case insts.CondMI:
		return n
	case insts.CondPL:
		return !n
	case insts.CondVS:
		return v
	case insts.CondVC:
		return !v
	case insts.CondHI:
		return c && !z
	case insts.CondLS:
		return !c || z
	case insts.CondGE:
		return n == v
	case insts.CondLT:
		return n != v
	case insts.CondGT:
		return !z && (n == v)
	case insts.CondLE:
		return z || (n != v)
	case insts.CondAL:
		return true
	default:
		return false
	}
}
