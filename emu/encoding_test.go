package emu_test

import (
	"encoding/binary"
	"errors"

	. "github.com/onsi/gomega"

	"github.com/ctrsim/ctrsim/mem"
)

// errorsAs adapts errors.As for use inside Expect chains.
func errorsAs(err error, target any) bool {
	return errors.As(err, target)
}

// condAL is the always-execute condition nibble.
const condAL uint32 = 0xE

// Data-processing opcode fields.
const (
	opAND uint32 = 0x0
	opEOR uint32 = 0x1
	opSUB uint32 = 0x2
	opRSB uint32 = 0x3
	opADD uint32 = 0x4
	opADC uint32 = 0x5
	opSBC uint32 = 0x6
	opTST uint32 = 0x8
	opTEQ uint32 = 0x9
	opCMP uint32 = 0xA
	opCMN uint32 = 0xB
	opORR uint32 = 0xC
	opMOV uint32 = 0xD
	opBIC uint32 = 0xE
	opMVN uint32 = 0xF
)

// encodeDPImm builds a data-processing instruction with a rotated 8-bit
// immediate operand.
func encodeDPImm(cond, opcode uint32, s bool, rn, rd uint8, rotate4, imm8 uint32) uint32 {
	word := cond<<28 | 1<<25 | opcode<<21
	if s {
		word |= 1 << 20
	}
	word |= uint32(rn)<<16 | uint32(rd)<<12 | rotate4<<8 | imm8
	return word
}

// encodeDPReg builds a data-processing instruction with an immediate-
// shifted register operand.
func encodeDPReg(cond, opcode uint32, s bool, rn, rd, rm uint8, shiftType uint32, amount uint8) uint32 {
	word := cond<<28 | opcode<<21
	if s {
		word |= 1 << 20
	}
	word |= uint32(rn)<<16 | uint32(rd)<<12
	word |= uint32(amount)<<7 | shiftType<<5 | uint32(rm)
	return word
}

// encodeBranch builds B/BL with a byte offset relative to pc+8.
func encodeBranch(cond uint32, link bool, offset int32) uint32 {
	word := cond<<28 | 0b101<<25
	if link {
		word |= 1 << 24
	}
	word |= uint32(offset>>2) & 0x00FF_FFFF
	return word
}

// encodeSWI builds a software interrupt with a 24-bit comment.
func encodeSWI(imm24 uint32) uint32 {
	return condAL<<28 | 0xF<<24 | (imm24 & 0x00FF_FFFF)
}

// encodeMRC/encodeMCR build coprocessor register transfers.
func encodeMRC(cpNum, crn, rd, crm, opc2 uint8) uint32 {
	return coproc(cpNum, crn, rd, crm, opc2) | 1<<20
}

func encodeMCR(cpNum, crn, rd, crm, opc2 uint8) uint32 {
	return coproc(cpNum, crn, rd, crm, opc2)
}

func coproc(cpNum, crn, rd, crm, opc2 uint8) uint32 {
	return condAL<<28 | 0b1110<<24 |
		uint32(crn)<<16 | uint32(rd)<<12 | uint32(cpNum)<<8 |
		uint32(opc2)<<5 | 1<<4 | uint32(crm)
}

// loadWords assembles little-endian words into memory at addr.
func loadWords(memory *mem.Memory, addr uint32, words ...uint32) {
	data := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(data[i*4:], w)
	}
	ExpectWithOffset(1, memory.LoadAt(addr, data)).To(Succeed())
}
