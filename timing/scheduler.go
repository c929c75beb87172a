package timing

import (
	"container/heap"
	"fmt"
)

// EventKind identifies a scheduled device event.
type EventKind int

// Device events.
const (
	EventTimerExpiry EventKind = iota
	EventVBlank
	EventDMACompletion
)

func (k EventKind) String() string {
	switch k {
	case EventTimerExpiry:
		return "TimerExpiry"
	case EventVBlank:
		return "VBlank"
	case EventDMACompletion:
		return "DMACompletion"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is a device event due at an absolute cycle count.
type Event struct {
	Cycle uint64
	Kind  EventKind

	seq uint64
}

// eventHeap orders events by due cycle, then by scheduling order.
type eventHeap []Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Cycle != h[j].Cycle {
		return h[i].Cycle < h[j].Cycle
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(Event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Scheduler is a cycle-ordered queue of device events. Events scheduled
// for the same cycle fire in scheduling order.
type Scheduler struct {
	events eventHeap
	seq    uint64
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Schedule queues an event at an absolute cycle count.
func (s *Scheduler) Schedule(cycle uint64, kind EventKind) {
	heap.Push(&s.events, Event{Cycle: cycle, Kind: kind, seq: s.seq})
	s.seq++
}

// Next returns the earliest queued event without removing it.
func (s *Scheduler) Next() (Event, bool) {
	if len(s.events) == 0 {
		return Event{}, false
	}
	return s.events[0], true
}

// PopDue removes and returns all events due at or before the given cycle,
// in firing order.
func (s *Scheduler) PopDue(now uint64) []Event {
	var due []Event
	for len(s.events) > 0 && s.events[0].Cycle <= now {
		due = append(due, heap.Pop(&s.events).(Event))
	}
	return due
}

// Len returns the number of queued events.
func (s *Scheduler) Len() int {
	return len(s.events)
}
