package emu

import (
	"errors"
	"fmt"

	"github.com/ctrsim/ctrsim/insts"
	"github.com/ctrsim/ctrsim/mem"
)

// RunState is the core's execution state.
type RunState int

// Execution states.
const (
	StateRunning RunState = iota
	StateHalted
)

func (s RunState) String() string {
	switch s {
	case StateRunning:
		return "Running"
	case StateHalted:
		return "Halted"
	default:
		return fmt.Sprintf("RunState(%d)", int(s))
	}
}

// Per-instruction cycle costs.
const (
	cyclesData        uint32 = 1
	cyclesSystem      uint32 = 1
	cyclesSkipped     uint32 = 1
	cyclesBranch      uint32 = 2
	cyclesMultiply    uint32 = 2
	cyclesCoprocessor uint32 = 2
	cyclesMemory      uint32 = 3
	cyclesTrap        uint32 = 3
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Cycles is the cycle cost charged for this step.
	Cycles uint32

	// Exception is set when the step entered an exception handler.
	Exception *ExceptionRecord

	// Err is set if an error occurred during execution. The faulting
	// instruction is rolled back: the PC points back at it and no
	// register or memory writeback took place.
	Err error
}

// CPU executes ARM11 instructions functionally against a memory bus.
type CPU struct {
	regFile        *RegFile
	bus            mem.Bus
	decoder        *insts.Decoder
	cp15           *CP15
	serviceHandler ServiceHandler

	// Execution units
	alu        *ALU
	lsu        *LoadStoreUnit
	branchUnit *BranchUnit
	exceptions *ExceptionUnit

	// Execution state
	state            RunState
	pendingInterrupt bool
	cycles           uint64
	vectorBase       uint32
	trace            *traceRing
}

// Option is a functional option for configuring the CPU.
type Option func(*CPU)

// WithVectorBase sets the base address of the exception vector table.
func WithVectorBase(base uint32) Option {
	return func(c *CPU) {
		c.vectorBase = base
	}
}

// WithServiceHandler sets the handler that receives software-interrupt
// requests after exception entry.
func WithServiceHandler(handler ServiceHandler) Option {
	return func(c *CPU) {
		c.serviceHandler = handler
	}
}

// WithTraceLimit enables the instruction trace ring, keeping the most
// recent limit fetches. Tracing is off by default.
func WithTraceLimit(limit int) Option {
	return func(c *CPU) {
		if limit > 0 {
			c.trace = newTraceRing(limit)
		}
	}
}

// NewCPU creates a new ARM11 core in User mode, connected to the given
// memory bus.
func NewCPU(bus mem.Bus, opts ...Option) *CPU {
	regFile := NewRegFile()

	c := &CPU{
		regFile:    regFile,
		bus:        bus,
		decoder:    insts.NewDecoder(),
		cp15:       NewCP15(),
		vectorBase: DefaultVectorBase,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.alu = NewALU(regFile)
	c.lsu = NewLoadStoreUnit(regFile, c.alu, bus)
	c.branchUnit = NewBranchUnit(regFile)
	c.exceptions = NewExceptionUnit(regFile, c.vectorBase)

	return c
}

// SetServiceHandler attaches the handler that receives software-interrupt
// requests. It exists for wiring handlers that themselves need the core's
// register file.
func (c *CPU) SetServiceHandler(handler ServiceHandler) {
	c.serviceHandler = handler
}

// RegFile returns the core's register file.
func (c *CPU) RegFile() *RegFile {
	return c.regFile
}

// CP15 returns the system-control coprocessor bank.
func (c *CPU) CP15() *CP15 {
	return c.cp15
}

// State returns the core's execution state.
func (c *CPU) State() RunState {
	return c.state
}

// Cycles returns the total cycles consumed since reset.
func (c *CPU) Cycles() uint64 {
	return c.cycles
}

// Trace returns the recorded fetch trace, oldest first. It is empty when
// tracing is disabled.
func (c *CPU) Trace() []TraceEntry {
	if c.trace == nil {
		return nil
	}
	return c.trace.snapshot()
}

// Reset returns the core to User mode with cleared registers, reset CP15
// state, and the PC at the given entry point.
func (c *CPU) Reset(pc uint32) {
	c.regFile.Reset(pc)
	c.cp15.Reset()
	c.state = StateRunning
	c.pendingInterrupt = false
	c.cycles = 0
	if c.trace != nil {
		c.trace.reset()
	}
}

// SignalInterrupt latches the external interrupt-pending signal. A halted
// core wakes on its next step; a running core is unaffected.
func (c *CPU) SignalInterrupt() {
	c.pendingInterrupt = true
}

// Step executes a single instruction: fetch, decode, condition check,
// execute, PC advance. A halted core idles for one cycle per step until
// an interrupt has been signalled.
func (c *CPU) Step() StepResult {
	if c.state == StateHalted {
		if c.pendingInterrupt {
			c.pendingInterrupt = false
			c.state = StateRunning
		}
		return c.retire(StepResult{Cycles: cyclesSkipped})
	}

	fetchPC := c.regFile.R[PCIndex]

	word, err := c.bus.Read32(fetchPC)
	if err != nil {
		return c.retire(StepResult{
			Cycles: cyclesSkipped,
			Err:    asExecuteFault(err),
		})
	}

	if c.trace != nil {
		c.trace.record(TraceEntry{PC: fetchPC, Opcode: word})
	}

	inst, err := c.decoder.Decode(word)
	if err != nil {
		return c.retire(c.enterTrap(TrapUndefined, fetchPC))
	}

	// PC advances past the fetched word before execution, so reads of
	// r15 as an operand observe the following instruction's address.
	c.regFile.R[PCIndex] = fetchPC + 4

	if !c.branchUnit.CheckCondition(inst.Cond) {
		return c.retire(StepResult{Cycles: cyclesSkipped})
	}

	return c.retire(c.execute(fetchPC, inst))
}

// retire charges a step's cycles to the running counter.
func (c *CPU) retire(result StepResult) StepResult {
	c.cycles += uint64(result.Cycles)
	return result
}

// execute dispatches a decoded instruction.
func (c *CPU) execute(fetchPC uint32, inst *insts.Instruction) StepResult {
	switch inst.Format {
	case insts.FormatDataProcessing:
		return c.executeDataProcessing(inst)
	case insts.FormatBranch:
		return c.executeBranch(fetchPC, inst)
	case insts.FormatBranchExchange:
		c.branchUnit.BX(c.regFile.R[inst.Rm])
		return StepResult{Cycles: cyclesBranch}
	case insts.FormatMemTransfer, insts.FormatHalfTransfer:
		return c.executeMemTransfer(fetchPC, inst)
	case insts.FormatMultiply:
		return c.executeMultiply(inst)
	case insts.FormatSystem:
		return c.executeSystem(fetchPC, inst)
	case insts.FormatCoprocessor:
		return c.executeCoprocessor(fetchPC, inst)
	default:
		return c.enterTrap(TrapUndefined, fetchPC)
	}
}

// enterTrap performs exception entry and reports the taken exception.
func (c *CPU) enterTrap(kind TrapKind, returnAddr uint32) StepResult {
	rec := ExceptionRecord{
		Kind:       kind,
		ReturnAddr: returnAddr,
		Target:     c.exceptions.TargetMode(kind),
	}
	c.exceptions.Enter(rec)

	return StepResult{Cycles: cyclesTrap, Exception: &rec}
}

func (c *CPU) executeDataProcessing(inst *insts.Instruction) StepResult {
	op2, shifterCarry := c.alu.Operand2(inst)
	op1 := c.regFile.R[inst.Rn]

	// A flag-setting write to the PC in a privileged mode is the
	// exception-return idiom (MOVS pc, lr): the SPSR restore and the PC
	// write happen as one indivisible update, with no flag derivation
	// from the result.
	exceptionReturn := inst.Rd == PCIndex && inst.SetFlags &&
		c.regFile.Mode().Privileged() && dpWritesRd(inst.Op)

	result, writesRd := c.dataProcess(
		inst.Op, op1, op2, shifterCarry, inst.SetFlags && !exceptionReturn)

	switch {
	case exceptionReturn:
		c.exceptions.Return(result)
	case writesRd:
		c.regFile.R[inst.Rd] = result
	}

	return StepResult{Cycles: cyclesData}
}

// dataProcess computes a data-processing result and derives flags. The
// second return value reports whether the operation writes Rd.
func (c *CPU) dataProcess(
	op insts.Op,
	op1, op2 uint32,
	shifterCarry, setFlags bool,
) (uint32, bool) {
	switch op {
	case insts.OpAND:
		return c.alu.Logical(op1&op2, shifterCarry, setFlags), true
	case insts.OpEOR:
		return c.alu.Logical(op1^op2, shifterCarry, setFlags), true
	case insts.OpSUB:
		return c.alu.Sub(op1, op2, setFlags), true
	case insts.OpRSB:
		return c.alu.Sub(op2, op1, setFlags), true
	case insts.OpADD:
		return c.alu.Add(op1, op2, setFlags), true
	case insts.OpADC:
		return c.alu.Adc(op1, op2, setFlags), true
	case insts.OpSBC:
		return c.alu.Sbc(op1, op2, setFlags), true
	case insts.OpTST:
		c.alu.Logical(op1&op2, shifterCarry, setFlags)
		return 0, false
	case insts.OpTEQ:
		c.alu.Logical(op1^op2, shifterCarry, setFlags)
		return 0, false
	case insts.OpCMP:
		c.alu.Sub(op1, op2, setFlags)
		return 0, false
	case insts.OpCMN:
		c.alu.Add(op1, op2, setFlags)
		return 0, false
	case insts.OpORR:
		return c.alu.Logical(op1|op2, shifterCarry, setFlags), true
	case insts.OpMOV:
		return c.alu.Logical(op2, shifterCarry, setFlags), true
	case insts.OpBIC:
		return c.alu.Logical(op1&^op2, shifterCarry, setFlags), true
	case insts.OpMVN:
		return c.alu.Logical(^op2, shifterCarry, setFlags), true
	default:
		return 0, false
	}
}

// dpWritesRd reports whether a data-processing opcode writes its result
// to Rd. Compare and test operations only derive flags.
func dpWritesRd(op insts.Op) bool {
	switch op {
	case insts.OpTST, insts.OpTEQ, insts.OpCMP, insts.OpCMN:
		return false
	default:
		return true
	}
}

func (c *CPU) executeBranch(fetchPC uint32, inst *insts.Instruction) StepResult {
	if inst.Link {
		c.branchUnit.BL(fetchPC, inst.BranchOffset)
	} else {
		c.branchUnit.B(fetchPC, inst.BranchOffset)
	}
	return StepResult{Cycles: cyclesBranch}
}

func (c *CPU) executeMemTransfer(fetchPC uint32, inst *insts.Instruction) StepResult {
	if err := c.lsu.Transfer(inst); err != nil {
		c.regFile.R[PCIndex] = fetchPC
		return StepResult{Cycles: cyclesMemory, Err: err}
	}
	return StepResult{Cycles: cyclesMemory}
}

func (c *CPU) executeMultiply(inst *insts.Instruction) StepResult {
	result := c.regFile.R[inst.Rm] * c.regFile.R[inst.Rs]
	if inst.Accumulate {
		result += c.regFile.R[inst.Rn]
	}
	c.regFile.R[inst.Rd] = result

	if inst.SetFlags {
		c.alu.MultiplyFlags(result)
	}

	return StepResult{Cycles: cyclesMultiply}
}

func (c *CPU) executeSystem(fetchPC uint32, inst *insts.Instruction) StepResult {
	switch inst.Op {
	case insts.OpSWI:
		return c.executeSWI(inst)
	case insts.OpWFI:
		c.state = StateHalted
		return StepResult{Cycles: cyclesSystem}
	case insts.OpMRS:
		if inst.SPSR {
			c.regFile.R[inst.Rd] = c.regFile.SPSR()
		} else {
			c.regFile.R[inst.Rd] = c.regFile.CPSR
		}
		return StepResult{Cycles: cyclesSystem}
	case insts.OpMSR:
		c.executeMSR(inst)
		return StepResult{Cycles: cyclesSystem}
	default:
		return c.enterTrap(TrapUndefined, fetchPC)
	}
}

// executeSWI performs the software-interrupt exception entry, then hands
// the pre-entry register snapshot to the service handler.
func (c *CPU) executeSWI(inst *insts.Instruction) StepResult {
	req := ServiceRequest{
		Number: inst.Imm24,
		Regs:   c.regFile.R,
	}

	// The return address is the instruction after the SWI, which is
	// where the PC already points.
	result := c.enterTrap(TrapSoftwareInterrupt, c.regFile.R[PCIndex])

	if c.serviceHandler != nil {
		c.serviceHandler.HandleService(req)
	}

	return result
}

// executeMSR writes a general register into a status register. Condition
// flags are always writable; the mode field and the interrupt mask change
// only from a privileged mode, and only to an implemented mode.
func (c *CPU) executeMSR(inst *insts.Instruction) {
	value := c.regFile.R[inst.Rm]

	if inst.SPSR {
		c.regFile.SetSPSR(value)
		return
	}

	privileged := c.regFile.Mode().Privileged()

	newMode := Mode(value & ModeMask)
	if privileged && newMode.Implemented() {
		c.regFile.SwitchMode(newMode)
	}

	c.regFile.CPSR = (c.regFile.CPSR &^ FlagsMask) | (value & FlagsMask)
	if privileged {
		c.regFile.SetFlag(FlagI, value&FlagI != 0)
	}
}

func (c *CPU) executeCoprocessor(fetchPC uint32, inst *insts.Instruction) StepResult {
	if inst.CopNum != 15 {
		return c.enterTrap(TrapUndefined, fetchPC)
	}

	key := CP15Key{CRn: inst.CRn, CRm: inst.CRm, Opc2: inst.Opc2}

	switch inst.Op {
	case insts.OpMRC:
		value, err := c.cp15.Read(key)
		if err != nil {
			c.regFile.R[PCIndex] = fetchPC
			return StepResult{Cycles: cyclesCoprocessor, Err: err}
		}
		c.regFile.R[inst.Rd] = value
	case insts.OpMCR:
		if err := c.cp15.Write(key, c.regFile.R[inst.Rd]); err != nil {
			c.regFile.R[PCIndex] = fetchPC
			return StepResult{Cycles: cyclesCoprocessor, Err: err}
		}
	}

	return StepResult{Cycles: cyclesCoprocessor}
}

// asExecuteFault relabels a fetch-path read fault as an execute fault.
func asExecuteFault(err error) error {
	var fault *mem.Fault
	if errors.As(err, &fault) {
		return &mem.Fault{Addr: fault.Addr, Access: mem.AccessExecute, Size: fault.Size}
	}
	return err
}
