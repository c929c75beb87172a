// Package timing provides cycle bookkeeping for the emulated system: the
// master clock with its derived audio and video pacing, and a
// cycle-ordered scheduler for device events.
package timing

// Clock rates of the emulated system.
const (
	CPUHz   = 268_000_000
	AudioHz = 48_000
	VideoHz = 60

	// CyclesPerAudioSample is the CPU-cycle period of one audio sample.
	CyclesPerAudioSample = CPUHz / AudioHz
	// CyclesPerVideoFrame is the CPU-cycle period of one video frame.
	CyclesPerVideoFrame = CPUHz / VideoHz
)

// Clock tracks elapsed CPU cycles and derives how many audio samples and
// video frames are due at the current cycle count.
type Clock struct {
	cycles uint64
}

// NewClock creates a clock at cycle zero.
func NewClock() *Clock {
	return &Clock{}
}

// Advance adds elapsed CPU cycles.
func (c *Clock) Advance(cycles uint64) {
	c.cycles += cycles
}

// Cycles returns the elapsed CPU cycle count.
func (c *Clock) Cycles() uint64 {
	return c.cycles
}

// AudioSamplesDue returns the total audio samples elapsed so far.
func (c *Clock) AudioSamplesDue() uint64 {
	return c.cycles / CyclesPerAudioSample
}

// VideoFramesDue returns the total video frames elapsed so far.
func (c *Clock) VideoFramesDue() uint64 {
	return c.cycles / CyclesPerVideoFrame
}
