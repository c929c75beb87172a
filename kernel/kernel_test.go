package kernel_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ctrsim/ctrsim/emu"
	"github.com/ctrsim/ctrsim/kernel"
)

var _ = Describe("Dispatcher", func() {
	var (
		rf    *emu.RegFile
		ticks uint64
		d     *kernel.Dispatcher
	)

	BeforeEach(func() {
		rf = emu.NewRegFile()
		ticks = 0
		d = kernel.NewDispatcher(rf, func() uint64 { return ticks })
	})

	Describe("GetTick", func() {
		It("should write the tick count to r0 and r1", func() {
			ticks = 0x1_2345_6789

			d.HandleService(emu.ServiceRequest{Number: uint32(kernel.CallGetTick)})

			Expect(rf.R[0]).To(Equal(uint32(0x2345_6789)))
			Expect(rf.R[1]).To(Equal(uint32(0x1)))
		})

		It("should report zero ticks without a tick source", func() {
			d = kernel.NewDispatcher(rf, nil)
			rf.R[0] = 99

			d.HandleService(emu.ServiceRequest{Number: uint32(kernel.CallGetTick)})

			Expect(rf.R[0]).To(Equal(uint32(0)))
		})
	})

	Describe("Yield", func() {
		It("should leave registers untouched", func() {
			rf.R[0] = 42

			d.HandleService(emu.ServiceRequest{Number: uint32(kernel.CallYield)})

			Expect(rf.R[0]).To(Equal(uint32(42)))
		})
	})

	Describe("unknown calls", func() {
		It("should record the call without register effects", func() {
			rf.R[0] = 7

			d.HandleService(emu.ServiceRequest{Number: 0xBEEF})

			Expect(rf.R[0]).To(Equal(uint32(7)))
			log := d.Log()
			Expect(log).To(HaveLen(1))
			Expect(log[0].Call.String()).To(ContainSubstring("Unknown"))
		})
	})

	Describe("service log", func() {
		It("should record calls with the caller's r0", func() {
			req := emu.ServiceRequest{Number: uint32(kernel.CallYield)}
			req.Regs[0] = 123

			d.HandleService(req)

			log := d.Log()
			Expect(log).To(HaveLen(1))
			Expect(log[0].Call).To(Equal(kernel.CallYield))
			Expect(log[0].R0).To(Equal(uint32(123)))
		})

		It("should keep only the most recent entries", func() {
			for i := 0; i < 100; i++ {
				req := emu.ServiceRequest{Number: uint32(kernel.CallYield)}
				req.Regs[0] = uint32(i)
				d.HandleService(req)
			}

			log := d.Log()
			Expect(log).To(HaveLen(64))
			Expect(log[0].R0).To(Equal(uint32(36)))
			Expect(log[63].R0).To(Equal(uint32(99)))
		})
	})

	Describe("Call", func() {
		It("should name the implemented calls", func() {
			Expect(kernel.CallYield.String()).To(Equal("Yield"))
			Expect(kernel.CallGetTick.String()).To(Equal("GetTick"))
		})
	})
})
