package emu

// ServiceRequest carries the information a software-interrupt handler
// needs: the 24-bit comment field of the SWI instruction and the general
// register values at the time of the call.
type ServiceRequest struct {
	Number uint32
	Regs   [16]uint32
}

// ServiceHandler receives software-interrupt requests raised by the core.
// The handler runs after the architectural exception entry completes, so
// it observes the core already in Supervisor mode.
type ServiceHandler interface {
	HandleService(req ServiceRequest)
}
