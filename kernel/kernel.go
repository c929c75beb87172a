// Package kernel interprets software-interrupt service calls raised by
// the core and writes results back into the register file.
package kernel

import (
	"fmt"

	"github.com/ctrsim/ctrsim/emu"
)

// Call is a service-call number, taken from the SWI comment field.
type Call uint32

// Implemented service calls.
const (
	CallYield   Call = 0x0
	CallGetTick Call = 0x1
)

func (c Call) String() string {
	switch c {
	case CallYield:
		return "Yield"
	case CallGetTick:
		return "GetTick"
	default:
		return fmt.Sprintf("Unknown(0x%X)", uint32(c))
	}
}

// Record is one entry in the service log.
type Record struct {
	Call Call
	R0   uint32 // caller's r0 at the time of the call
}

// serviceLogLimit bounds the service log; older entries are dropped.
const serviceLogLimit = 64

// TickSource supplies the current system tick count for GetTick.
type TickSource func() uint64

// Dispatcher handles service calls against a register file. It runs in
// the core's software-interrupt path, after exception entry, so result
// registers land in the handler's view of r0-r3.
type Dispatcher struct {
	regFile *emu.RegFile
	ticks   TickSource
	log     []Record
}

// NewDispatcher creates a service-call dispatcher. The tick source backs
// GetTick; a nil source reports zero ticks.
func NewDispatcher(regFile *emu.RegFile, ticks TickSource) *Dispatcher {
	return &Dispatcher{
		regFile: regFile,
		ticks:   ticks,
	}
}

// HandleService dispatches one service call.
func (d *Dispatcher) HandleService(req emu.ServiceRequest) {
	call := Call(req.Number)

	switch call {
	case CallYield:
		// Cooperative yield: no register effects; the stepping loop
		// owns scheduling.
	case CallGetTick:
		tick := uint64(0)
		if d.ticks != nil {
			tick = d.ticks()
		}
		d.regFile.R[0] = uint32(tick)
		d.regFile.R[1] = uint32(tick >> 32)
	}

	d.record(Record{Call: call, R0: req.Regs[0]})
}

func (d *Dispatcher) record(rec Record) {
	d.log = append(d.log, rec)
	if len(d.log) > serviceLogLimit {
		d.log = d.log[len(d.log)-serviceLogLimit:]
	}
}

// Log returns the retained service-call records, oldest first.
func (d *Dispatcher) Log() []Record {
	return append([]Record(nil), d.log...)
}
