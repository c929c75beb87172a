package emu

// TraceEntry records one fetched instruction word.
type TraceEntry struct {
	PC     uint32
	Opcode uint32
}

// traceRing is a bounded ring of the most recent fetches.
type traceRing struct {
	entries []TraceEntry
	next    int
	full    bool
}

func newTraceRing(limit int) *traceRing {
	return &traceRing{entries: make([]TraceEntry, limit)}
}

func (t *traceRing) record(entry TraceEntry) {
	t.entries[t.next] = entry
	t.next++
	if t.next == len(t.entries) {
		t.next = 0
		t.full = true
	}
}

// snapshot returns the recorded entries in fetch order, oldest first.
func (t *traceRing) snapshot() []TraceEntry {
	if !t.full {
		return append([]TraceEntry(nil), t.entries[:t.next]...)
	}
	out := make([]TraceEntry, 0, len(t.entries))
	out = append(out, t.entries[t.next:]...)
	out = append(out, t.entries[:t.next]...)
	return out
}

func (t *traceRing) reset() {
	t.next = 0
	t.full = false
}
