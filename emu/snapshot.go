package emu

// Snapshot is a copy of the core's complete architectural state, keyed by
// mode for the banked registers.
type Snapshot struct {
	R    [16]uint32
	CPSR uint32

	SPSR     map[Mode]uint32
	BankedSP map[Mode]uint32
	BankedLR map[Mode]uint32

	CP15 map[CP15Key]uint32

	State  RunState
	Cycles uint64
}

// Snapshot captures the core's architectural state for inspection. The
// copy is independent of the live core.
func (c *CPU) Snapshot() Snapshot {
	snap := Snapshot{
		R:        c.regFile.R,
		CPSR:     c.regFile.CPSR,
		SPSR:     make(map[Mode]uint32),
		BankedSP: make(map[Mode]uint32),
		BankedLR: make(map[Mode]uint32),
		CP15:     c.cp15.Snapshot(),
		State:    c.state,
		Cycles:   c.cycles,
	}

	for _, mode := range Modes {
		snap.BankedSP[mode] = c.regFile.BankedSP(mode)
		snap.BankedLR[mode] = c.regFile.BankedLR(mode)
		if mode.Privileged() {
			snap.SPSR[mode] = c.regFile.SPSRFor(mode)
		}
	}

	return snap
}
