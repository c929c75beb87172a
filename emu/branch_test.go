package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ctrsim/ctrsim/emu"
	"github.com/ctrsim/ctrsim/insts"
)

var _ = Describe("BranchUnit", func() {
	var (
		rf *emu.RegFile
		bu *emu.BranchUnit
	)

	BeforeEach(func() {
		rf = emu.NewRegFile()
		bu = emu.NewBranchUnit(rf)
	})

	Describe("B", func() {
		It("should branch relative to the fetch address plus 8", func() {
			bu.B(0x8000, 8)
			Expect(rf.R[emu.PCIndex]).To(Equal(uint32(0x8010)))
		})

		It("should branch backwards", func() {
			bu.B(0x8000, -8)
			Expect(rf.R[emu.PCIndex]).To(Equal(uint32(0x8000)))
		})
	})

	Describe("BL", func() {
		It("should bank the following instruction into the link register", func() {
			bu.BL(0x8000, 0x100)

			Expect(rf.R[emu.LRIndex]).To(Equal(uint32(0x8004)))
			Expect(rf.R[emu.PCIndex]).To(Equal(uint32(0x8108)))
		})
	})

	Describe("BX", func() {
		It("should record the state switch and mask the low bit", func() {
			bu.BX(0x9001)

			Expect(rf.Flag(emu.FlagT)).To(BeTrue())
			Expect(rf.R[emu.PCIndex]).To(Equal(uint32(0x9000)))
		})

		It("should clear T for an even target", func() {
			rf.SetFlag(emu.FlagT, true)
			bu.BX(0x9000)

			Expect(rf.Flag(emu.FlagT)).To(BeFalse())
			Expect(rf.R[emu.PCIndex]).To(Equal(uint32(0x9000)))
		})
	})

	Describe("CheckCondition", func() {
		setFlags := func(n, z, c, v bool) {
			rf.SetFlag(emu.FlagN, n)
			rf.SetFlag(emu.FlagZ, z)
			rf.SetFlag(emu.FlagC, c)
			rf.SetFlag(emu.FlagV, v)
		}

		// ARM condition truth table, indexed by the condition field value.
		truth := [16]func(n, z, c, v bool) bool{
			insts.CondEQ: func(n, z, c, v bool) bool { return z },
			insts.CondNE: func(n, z, c, v bool) bool { return !z },
			insts.CondCS: func(n, z, c, v bool) bool { return c },
			insts.CondCC: func(n, z, c, v bool) bool { return !c },
			insts.CondMI: func(n, z, c, v bool) bool { return n },
			insts.CondPL: func(n, z, c, v bool) bool { return !n },
			insts.CondVS: func(n, z, c, v bool) bool { return v },
			insts.CondVC: func(n, z, c, v bool) bool { return !v },
			insts.CondHI: func(n, z, c, v bool) bool { return c && !z },
			insts.CondLS: func(n, z, c, v bool) bool { return !c || z },
			insts.CondGE: func(n, z, c, v bool) bool { return n == v },
			insts.CondLT: func(n, z, c, v bool) bool { return n != v },
			insts.CondGT: func(n, z, c, v bool) bool { return !z && n == v },
			insts.CondLE: func(n, z, c, v bool) bool { return z || n != v },
			insts.CondAL: func(n, z, c, v bool) bool { return true },
			insts.CondNV: func(n, z, c, v bool) bool { return false },
		}

		It("should match the truth table for every condition and flag combination", func() {
			for cond := 0; cond < 16; cond++ {
				for flags := 0; flags < 16; flags++ {
					n := flags&0b1000 != 0
					z := flags&0b0100 != 0
					c := flags&0b0010 != 0
					v := flags&0b0001 != 0

					setFlags(n, z, c, v)

					Expect(bu.CheckCondition(insts.Cond(cond))).To(
						Equal(truth[cond](n, z, c, v)),
						"cond %04b with N=%v Z=%v C=%v V=%v", cond, n, z, c, v)
				}
			}
		})
	})
})
