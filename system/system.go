// Package system wires the CPU core to its collaborators: the segmented
// memory, the interrupt controller, the kernel service dispatcher, and
// the timing model. It owns the external stepping loop.
package system

import (
	"github.com/ctrsim/ctrsim/emu"
	"github.com/ctrsim/ctrsim/irq"
	"github.com/ctrsim/ctrsim/kernel"
	"github.com/ctrsim/ctrsim/loader"
	"github.com/ctrsim/ctrsim/mem"
	"github.com/ctrsim/ctrsim/timing"
	"github.com/ctrsim/ctrsim/timing/cache"
)

// System is a complete emulated machine.
type System struct {
	memory    *mem.Memory
	cpu       *emu.CPU
	irq       *irq.Controller
	clock     *timing.Clock
	scheduler *timing.Scheduler
	kernel    *kernel.Dispatcher
	l1        *cache.Monitor
}

// Option is a functional option for configuring the System.
type Option func(*config)

type config struct {
	cpuOpts  []emu.Option
	l1Config *cache.Config
}

// WithCPUOptions forwards options to the core constructor.
func WithCPUOptions(opts ...emu.Option) Option {
	return func(c *config) {
		c.cpuOpts = append(c.cpuOpts, opts...)
	}
}

// WithL1Cache routes the core's bus traffic through an L1 cache model
// with the given geometry, for hit/miss accounting. Data and faults still
// come from memory; cycle costs are unchanged.
func WithL1Cache(cacheConfig cache.Config) Option {
	return func(c *config) {
		c.l1Config = &cacheConfig
	}
}

// New creates a machine with an empty memory map and the first video
// frame already scheduled.
func New(opts ...Option) *System {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	memory := mem.NewMemory()
	clock := timing.NewClock()

	var bus mem.Bus = memory
	var l1 *cache.Monitor
	if cfg.l1Config != nil {
		l1 = cache.NewMonitor(*cfg.l1Config, memory)
		bus = l1
	}

	cpu := emu.NewCPU(bus, cfg.cpuOpts...)

	s := &System{
		memory:    memory,
		cpu:       cpu,
		irq:       irq.NewController(),
		clock:     clock,
		scheduler: timing.NewScheduler(),
		l1:        l1,
	}

	s.kernel = kernel.NewDispatcher(cpu.RegFile(), clock.Cycles)
	cpu.SetServiceHandler(s.kernel)

	s.scheduler.Schedule(timing.CyclesPerVideoFrame, timing.EventVBlank)

	return s
}

// CPU returns the machine's core.
func (s *System) CPU() *emu.CPU {
	return s.cpu
}

// Memory returns the machine's memory map.
func (s *System) Memory() *mem.Memory {
	return s.memory
}

// IRQ returns the machine's interrupt controller.
func (s *System) IRQ() *irq.Controller {
	return s.irq
}

// Clock returns the machine's master clock.
func (s *System) Clock() *timing.Clock {
	return s.clock
}

// Kernel returns the machine's service-call dispatcher.
func (s *System) Kernel() *kernel.Dispatcher {
	return s.kernel
}

// L1 returns the machine's cache monitor, or nil when the machine was
// built without one.
func (s *System) L1() *cache.Monitor {
	return s.l1
}

// LoadProgram maps a parsed ROM image and resets the core at its entry
// point. The cache monitor, if any, is invalidated since mapping may
// replace a segment.
func (s *System) LoadProgram(prog *loader.Program) {
	s.memory.MapROM(prog.Payload)
	if s.l1 != nil {
		s.l1.Reset()
	}
	s.cpu.Reset(prog.EntryPoint)
}

// ScheduleTimer queues a timer expiry the given number of cycles from
// now.
func (s *System) ScheduleTimer(delta uint64) {
	s.scheduler.Schedule(s.clock.Cycles()+delta, timing.EventTimerExpiry)
}

// ScheduleDMACompletion queues a DMA completion the given number of
// cycles from now.
func (s *System) ScheduleDMACompletion(delta uint64) {
	s.scheduler.Schedule(s.clock.Cycles()+delta, timing.EventDMACompletion)
}

// RunReport summarizes a RunCycles call.
type RunReport struct {
	// Cycles is the number of cycles consumed.
	Cycles uint64
	// Steps is the number of core steps taken.
	Steps uint64
	// Exceptions counts exception entries observed.
	Exceptions uint64
	// Halted is true if the core ended the run waiting for an interrupt.
	Halted bool
}

// RunCycles steps the machine until at least budget cycles have elapsed,
// delivering due device events and the interrupt-pending signal before
// each step. It stops early only on an execution error.
func (s *System) RunCycles(budget uint64) (RunReport, error) {
	var report RunReport

	for report.Cycles < budget {
		s.deliverDueEvents()

		if s.irq.Pending() {
			s.cpu.SignalInterrupt()
			for _, line := range s.irq.PendingLines() {
				s.irq.Acknowledge(line)
			}
		}

		result := s.cpu.Step()
		s.clock.Advance(uint64(result.Cycles))
		report.Cycles += uint64(result.Cycles)
		report.Steps++
		if result.Exception != nil {
			report.Exceptions++
		}
		if result.Err != nil {
			report.Halted = s.cpu.State() == emu.StateHalted
			return report, result.Err
		}
	}

	report.Halted = s.cpu.State() == emu.StateHalted
	return report, nil
}

// deliverDueEvents fires scheduled device events, raising their interrupt
// lines. VBlank is periodic and reschedules itself one frame ahead.
func (s *System) deliverDueEvents() {
	for _, event := range s.scheduler.PopDue(s.clock.Cycles()) {
		switch event.Kind {
		case timing.EventTimerExpiry:
			s.irq.Raise(irq.LineTimer0)
		case timing.EventVBlank:
			s.irq.Raise(irq.LineVBlank)
			s.scheduler.Schedule(
				event.Cycle+timing.CyclesPerVideoFrame, timing.EventVBlank)
		case timing.EventDMACompletion:
			s.irq.Raise(irq.LineDMA0)
		}
	}
}
