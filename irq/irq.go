// Package irq models the interrupt controller: a set of latched request
// lines behind an enable mask, collapsed into the single pending signal
// the stepping loop delivers to the core.
package irq

import "fmt"

// Line identifies an interrupt request line.
type Line uint8

// Interrupt request lines.
const (
	LineTimer0 Line = iota
	LineVBlank
	LineDMA0

	numLines
)

func (l Line) String() string {
	switch l {
	case LineTimer0:
		return "Timer0"
	case LineVBlank:
		return "VBlank"
	case LineDMA0:
		return "DMA0"
	default:
		return fmt.Sprintf("Line(%d)", uint8(l))
	}
}

func (l Line) mask() uint32 {
	return 1 << uint32(l)
}

// Controller latches raised lines until acknowledged. Only enabled lines
// contribute to the pending signal; a line raised while disabled stays
// latched and becomes pending if later enabled.
type Controller struct {
	raised  uint32
	enabled uint32
}

// NewController creates a controller with every line enabled and none
// raised.
func NewController() *Controller {
	return &Controller{enabled: (1 << uint32(numLines)) - 1}
}

// Raise latches an interrupt request on the given line.
func (c *Controller) Raise(line Line) {
	c.raised |= line.mask()
}

// Acknowledge clears the latched request on the given line.
func (c *Controller) Acknowledge(line Line) {
	c.raised &^= line.mask()
}

// SetEnabled enables or disables a line's contribution to the pending
// signal without clearing its latch.
func (c *Controller) SetEnabled(line Line, enabled bool) {
	if enabled {
		c.enabled |= line.mask()
	} else {
		c.enabled &^= line.mask()
	}
}

// Raised reports whether the given line is latched.
func (c *Controller) Raised(line Line) bool {
	return c.raised&line.mask() != 0
}

// Pending reports whether any enabled line is latched.
func (c *Controller) Pending() bool {
	return c.raised&c.enabled != 0
}

// PendingLines returns the enabled latched lines in line order.
func (c *Controller) PendingLines() []Line {
	var lines []Line
	for l := Line(0); l < numLines; l++ {
		if c.raised&c.enabled&l.mask() != 0 {
			lines = append(lines, l)
		}
	}
	return lines
}
