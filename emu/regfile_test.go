package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ctrsim/ctrsim/emu"
)

var _ = Describe("RegFile", func() {
	var rf *emu.RegFile

	BeforeEach(func() {
		rf = emu.NewRegFile()
	})

	It("should start in User mode", func() {
		Expect(rf.Mode()).To(Equal(emu.ModeUser))
	})

	Describe("flags", func() {
		It("should set and clear individual CPSR bits", func() {
			rf.SetFlag(emu.FlagZ, true)
			Expect(rf.Flag(emu.FlagZ)).To(BeTrue())
			Expect(rf.Flag(emu.FlagN)).To(BeFalse())

			rf.SetFlag(emu.FlagZ, false)
			Expect(rf.Flag(emu.FlagZ)).To(BeFalse())
		})

		It("should not disturb the mode field", func() {
			rf.SetFlag(emu.FlagN|emu.FlagC, true)
			Expect(rf.Mode()).To(Equal(emu.ModeUser))
		})
	})

	Describe("mode banking", func() {
		It("should give each mode its own r13/r14", func() {
			rf.R[emu.SPIndex] = 0x1000
			rf.R[emu.LRIndex] = 0x2000

			rf.SwitchMode(emu.ModeSupervisor)
			Expect(rf.R[emu.SPIndex]).To(Equal(uint32(0)))
			Expect(rf.R[emu.LRIndex]).To(Equal(uint32(0)))

			rf.R[emu.SPIndex] = 0x3000
			rf.R[emu.LRIndex] = 0x4000

			rf.SwitchMode(emu.ModeUndefined)
			rf.R[emu.SPIndex] = 0x5000

			rf.SwitchMode(emu.ModeUser)
			Expect(rf.R[emu.SPIndex]).To(Equal(uint32(0x1000)))
			Expect(rf.R[emu.LRIndex]).To(Equal(uint32(0x2000)))

			rf.SwitchMode(emu.ModeSupervisor)
			Expect(rf.R[emu.SPIndex]).To(Equal(uint32(0x3000)))
			Expect(rf.R[emu.LRIndex]).To(Equal(uint32(0x4000)))
		})

		It("should not bank r0-r12", func() {
			rf.R[0] = 0xAA
			rf.R[12] = 0xBB

			rf.SwitchMode(emu.ModeSupervisor)
			Expect(rf.R[0]).To(Equal(uint32(0xAA)))
			Expect(rf.R[12]).To(Equal(uint32(0xBB)))
		})

		It("should update the CPSR mode field", func() {
			rf.SwitchMode(emu.ModeUndefined)
			Expect(rf.Mode()).To(Equal(emu.ModeUndefined))
		})

		It("should treat switching to the current mode as a no-op", func() {
			rf.R[emu.SPIndex] = 0x1000
			rf.SwitchMode(emu.ModeUser)
			Expect(rf.R[emu.SPIndex]).To(Equal(uint32(0x1000)))
		})

		It("should expose banked values of inactive modes", func() {
			rf.SwitchMode(emu.ModeSupervisor)
			rf.R[emu.SPIndex] = 0x3000
			rf.SwitchMode(emu.ModeUser)

			Expect(rf.BankedSP(emu.ModeSupervisor)).To(Equal(uint32(0x3000)))
			Expect(rf.BankedSP(emu.ModeUser)).To(Equal(rf.R[emu.SPIndex]))
		})
	})

	Describe("SPSR", func() {
		It("should keep one SPSR per privileged mode", func() {
			rf.SwitchMode(emu.ModeSupervisor)
			rf.SetSPSR(0x11)

			rf.SwitchMode(emu.ModeUndefined)
			rf.SetSPSR(0x22)

			Expect(rf.SPSRFor(emu.ModeSupervisor)).To(Equal(uint32(0x11)))
			Expect(rf.SPSRFor(emu.ModeUndefined)).To(Equal(uint32(0x22)))
		})

		It("should fall back to the CPSR in User mode", func() {
			rf.SetFlag(emu.FlagN, true)
			Expect(rf.SPSR()).To(Equal(rf.CPSR))
		})

		It("should ignore SPSR writes in User mode", func() {
			rf.SetSPSR(0xFFFF_FFFF)
			Expect(rf.SPSRFor(emu.ModeSupervisor)).To(Equal(uint32(0)))
		})
	})

	Describe("Reset", func() {
		It("should clear all state and set the PC", func() {
			rf.R[0] = 99
			rf.SwitchMode(emu.ModeSupervisor)
			rf.SetSPSR(0x55)

			rf.Reset(0x8000)

			Expect(rf.Mode()).To(Equal(emu.ModeUser))
			Expect(rf.R[0]).To(Equal(uint32(0)))
			Expect(rf.R[emu.PCIndex]).To(Equal(uint32(0x8000)))
			Expect(rf.SPSRFor(emu.ModeSupervisor)).To(Equal(uint32(0)))
		})
	})

	Describe("Mode", func() {
		It("should report privilege", func() {
			Expect(emu.ModeUser.Privileged()).To(BeFalse())
			Expect(emu.ModeSupervisor.Privileged()).To(BeTrue())
			Expect(emu.ModeUndefined.Privileged()).To(BeTrue())
		})

		It("should report implemented modes", func() {
			Expect(emu.ModeSupervisor.Implemented()).To(BeTrue())
			Expect(emu.Mode(0b1_0001).Implemented()).To(BeFalse())
		})
	})
})
