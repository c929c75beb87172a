// Package insts provides ARM instruction definitions and decoding.
//
// This package implements decoding of 32-bit ARM machine code into
// structured instruction representations. It supports:
//   - Data processing: AND, EOR, SUB, RSB, ADD, ADC, SBC, TST, TEQ,
//     CMP, CMN, ORR, MOV, BIC, MVN with immediate or shifted-register
//     operands
//   - Branch instructions: B, BL, BX
//   - Single data transfer: LDR, STR, LDRB, STRB with pre/post-indexed
//     addressing and writeback
//   - Halfword/signed transfer: LDRH, STRH, LDRSB, LDRSH
//   - Multiply: MUL, MLA
//   - System: MRS, MSR, SWI, WFI
//   - Coprocessor register transfer: MRC, MCR
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst, err := decoder.Decode(0xE2810005) // ADD r0, r1, #5
//	if err != nil {
//		// word does not match any implemented encoding
//	}
//	fmt.Printf("Op: %v, Rd: %d, Rn: %d, Imm: %d\n", inst.Op, inst.Rd, inst.Rn, inst.Imm)
package insts
