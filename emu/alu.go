package emu

import "github.com/ctrsim/ctrsim/insts"

// ALU implements the ARM data-processing arithmetic, logic, and barrel
// shifter semantics, including NZCV flag derivation.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// Operand2 evaluates a data-processing second operand: either the rotated
// 8-bit immediate or a shifted register. It returns the value and the
// barrel shifter's carry-out, which logical operations fold into C.
func (a *ALU) Operand2(inst *insts.Instruction) (uint32, bool) {
	if inst.ImmOperand {
		carry := a.regFile.Flag(FlagC)
		if inst.Rotate != 0 {
			carry = inst.Imm&FlagN != 0
		}
		return inst.Imm, carry
	}
	return a.ShiftValue(a.regFile.R[inst.Rm], inst.ShiftType, uint32(inst.ShiftAmount))
}

// ShiftValue applies an immediate-amount barrel shift and returns the
// shifted value with the shifter carry-out. A zero amount encodes LSL #0
// (identity) and LSR/ASR #32 per the immediate shift rules.
func (a *ALU) ShiftValue(value uint32, shiftType insts.ShiftType, amount uint32) (uint32, bool) {
	switch shiftType {
	case insts.ShiftLSL:
		if amount == 0 {
			return value, a.regFile.Flag(FlagC)
		}
		return value << amount, (value>>(32-amount))&1 == 1
	case insts.ShiftLSR:
		if amount == 0 {
			amount = 32
		}
		if amount >= 32 {
			return 0, value>>31 == 1
		}
		return value >> amount, (value>>(amount-1))&1 == 1
	case insts.ShiftASR:
		if amount == 0 {
			amount = 32
		}
		if amount >= 32 {
			if value>>31 == 1 {
				return 0xFFFF_FFFF, true
			}
			return 0, false
		}
		return uint32(int32(value) >> amount), (value>>(amount-1))&1 == 1
	case insts.ShiftROR:
		if amount == 0 {
			amount = 1
		}
		result := (value >> amount) | (value << (32 - amount))
		return result, result&FlagN != 0
	default:
		return value, a.regFile.Flag(FlagC)
	}
}

// Add computes op1 + op2, optionally setting NZCV.
func (a *ALU) Add(op1, op2 uint32, setFlags bool) uint32 {
	result := op1 + op2
	if setFlags {
		a.setAddFlags(op1, op2, result, result < op1)
	}
	return result
}

// Adc computes op1 + op2 + C, optionally setting NZCV.
func (a *ALU) Adc(op1, op2 uint32, setFlags bool) uint32 {
	carryIn := uint32(0)
	if a.regFile.Flag(FlagC) {
		carryIn = 1
	}
	tmp := op1 + op2
	result := tmp + carryIn
	if setFlags {
		carry := tmp < op1 || result < tmp
		a.setAddFlags(op1, op2, result, carry)
	}
	return result
}

// Sub computes op1 - op2, optionally setting NZCV. Subtraction is addition
// of the two's complement, so C is NOT borrow.
func (a *ALU) Sub(op1, op2 uint32, setFlags bool) uint32 {
	result := op1 - op2
	if setFlags {
		a.setSubFlags(op1, op2, result, op1 >= op2)
	}
	return result
}

// Sbc computes op1 - op2 - NOT(C), optionally setting NZCV.
func (a *ALU) Sbc(op1, op2 uint32, setFlags bool) uint32 {
	borrowIn := uint32(1)
	if a.regFile.Flag(FlagC) {
		borrowIn = 0
	}
	tmp := op1 - op2
	result := tmp - borrowIn
	if setFlags {
		noBorrow := op1 >= op2 && tmp >= borrowIn
		a.setSubFlags(op1, op2, result, noBorrow)
	}
	return result
}

// Logical records the result of a logical operation (AND/EOR/ORR/MOV/BIC/
// MVN/TST/TEQ), optionally setting N and Z from the result and C from the
// shifter carry-out. V is left unmodified.
func (a *ALU) Logical(result uint32, shifterCarry, setFlags bool) uint32 {
	if setFlags {
		a.regFile.SetFlag(FlagN, result&FlagN != 0)
		a.regFile.SetFlag(FlagZ, result == 0)
		a.regFile.SetFlag(FlagC, shifterCarry)
	}
	return result
}

// MultiplyFlags sets N and Z from a multiply result. C and V keep their
// prior values; the architecture leaves them unpredictable and this core
// pins them to "unchanged" so behavior stays exactly assertable.
func (a *ALU) MultiplyFlags(result uint32) {
	a.regFile.SetFlag(FlagN, result&FlagN != 0)
	a.regFile.SetFlag(FlagZ, result == 0)
}

// setAddFlags sets NZCV for addition.
func (a *ALU) setAddFlags(op1, op2, result uint32, carry bool) {
	a.regFile.SetFlag(FlagN, result&FlagN != 0)
	a.regFile.SetFlag(FlagZ, result == 0)
	a.regFile.SetFlag(FlagC, carry)
	// Signed overflow: operands same sign, result differs.
	a.regFile.SetFlag(FlagV, (^(op1^op2))&(op1^result)&FlagN != 0)
}

// setSubFlags sets NZCV for subtraction.
func (a *ALU) setSubFlags(op1, op2, result uint32, noBorrow bool) {
	a.regFile.SetFlag(FlagN, result&FlagN != 0)
	a.regFile.SetFlag(FlagZ, result == 0)
	a.regFile.SetFlag(FlagC, noBorrow)
	a.regFile.SetFlag(FlagV, (op1^op2)&(op1^result)&FlagN != 0)
}
