package recv

// Verdict classifies an inbound sequence number against the gate state.
type Verdict int

const (
	// Apply means the packet is newer than anything seen and must be applied.
	Apply Verdict = iota
	// Duplicate means the packet repeats the last applied sequence.
	Duplicate
	// OutOfOrder means the packet is older than the last applied sequence.
	OutOfOrder
)

// Stats are observability counters maintained by a Gate and the receive
// loop. They never influence gating decisions.
type Stats struct {
	Received   uint64
	Applied    uint64
	Bad        uint64
	Duplicate  uint64
	OutOfOrder uint64
	LostEst    uint64
}

// Gate tracks the last applied sequence number for one source device and
// decides whether an inbound packet supersedes it. Sequence numbers live in
// a circular 16-bit space; "newer" is the half-range wraparound comparison,
// so the space never needs draining or reset.
type Gate struct {
	initialized bool
	lastSeq     uint16
	Stats       Stats
}

// NewGate returns a gate in the uninitialized state; the first sequence it
// sees is always applied.
func NewGate() *Gate {
	return &Gate{}
}

// Check classifies seq and advances the gate when the verdict is Apply.
// A gap between consecutive applied sequences adds its size minus one to
// the lost estimate (estimated, not confirmed).
func (g *Gate) Check(seq uint16) Verdict {
	if !g.initialized {
		g.initialized = true
		g.lastSeq = seq
		g.Stats.Applied++
		return Apply
	}
	if seq == g.lastSeq {
		g.Stats.Duplicate++
		return Duplicate
	}
	if !newer16(seq, g.lastSeq) {
		g.Stats.OutOfOrder++
		return OutOfOrder
	}
	diff := seq - g.lastSeq
	if diff > 1 {
		g.Stats.LostEst += uint64(diff - 1)
	}
	g.lastSeq = seq
	g.Stats.Applied++
	return Apply
}

// LastSeq reports the last applied sequence; ok is false before the first
// packet.
func (g *Gate) LastSeq() (seq uint16, ok bool) {
	return g.lastSeq, g.initialized
}

// newer16 reports whether a supersedes b in circular 16-bit sequence space:
// the forward distance from b to a is non-zero and below half the range.
func newer16(a, b uint16) bool {
	diff := a - b
	return diff != 0 && diff < 0x8000
}
