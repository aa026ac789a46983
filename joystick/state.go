// Package joystick models the control surface of one physical joystick:
// eight absolute axes, one hat, and up to 128 buttons. The State type is the
// shared unit between a capture goroutine (writer) and the pacer (reader);
// readers always take a full copy under the lock so no torn snapshot can be
// observed.
package joystick

import "sync"

// NumAxes is the number of logical axis slots carried on the wire.
const NumAxes = 8

// MaxButtons is the size of the button id space (1-based ids).
const MaxButtons = 128

// ButtonBytes is the size of the button bitset in bytes.
const ButtonBytes = MaxButtons / 8

// AxisMax is the upper bound of the normalized axis range (0..=32768),
// matching the vJoy axis scale on the consuming side.
const AxisMax uint16 = 0x8000

// AxisRange holds the raw min/max reported by the kernel for one axis.
// Built once at startup from device capability queries, never mutated.
type AxisRange struct {
	Min int32
	Max int32
}

// Snapshot is the complete state of one device at an instant. It is a plain
// value type; copying it copies everything.
type Snapshot struct {
	AxesRaw  [NumAxes]int32
	HatX     int8
	HatY     int8
	Buttons  [ButtonBytes]byte
	Revision uint64
}

// State is a mutex-guarded Snapshot. Mutators compare before writing and
// advance Revision only on an actual value change, so revision jumps map 1:1
// to real state transitions.
type State struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewState returns a State with zeroed axes, centered hat and no buttons
// pressed.
func NewState() *State {
	return &State{}
}

// Snapshot returns a copy of the current state. The lock is held only for
// the duration of the copy.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// SetAxis stores the raw value for the given slot. Out-of-range slots are
// ignored; unchanged values do not advance the revision.
func (s *State) SetAxis(slot int, value int32) {
	if slot < 0 || slot >= NumAxes {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.AxesRaw[slot] != value {
		s.snap.AxesRaw[slot] = value
		s.snap.Revision++
	}
}

// SetHatX stores the hat X direction, clamped to -1..1.
func (s *State) SetHatX(value int32) {
	v := clampHat(value)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.HatX != v {
		s.snap.HatX = v
		s.snap.Revision++
	}
}

// SetHatY stores the hat Y direction, clamped to -1..1.
func (s *State) SetHatY(value int32) {
	v := clampHat(value)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.HatY != v {
		s.snap.HatY = v
		s.snap.Revision++
	}
}

// SetButton sets or clears the bit for a 1-based button id. Ids outside
// 1..MaxButtons are ignored.
func (s *State) SetButton(id int, pressed bool) {
	if id < 1 || id > MaxButtons {
		return
	}
	byteIdx, bitIdx := ButtonBit(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.snap.Buttons[byteIdx]&(1<<bitIdx) != 0
	if old == pressed {
		return
	}
	if pressed {
		s.snap.Buttons[byteIdx] |= 1 << bitIdx
	} else {
		s.snap.Buttons[byteIdx] &^= 1 << bitIdx
	}
	s.snap.Revision++
}

// ButtonBit returns the byte and bit index for a 1-based button id:
// button 1 is bit 0 of byte 0, button 9 is bit 0 of byte 1.
func ButtonBit(id int) (byteIdx int, bitIdx uint) {
	zero := id - 1
	return zero / 8, uint(zero % 8)
}

func clampHat(v int32) int8 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return int8(v)
}

// Normalize rescales raw from [r.Min, r.Max] to [0, AxisMax] using 64-bit
// intermediates, clamped to the output range. A degenerate range (Min == Max)
// yields the midpoint instead of dividing by zero.
func Normalize(raw int32, r AxisRange) uint16 {
	if r.Max == r.Min {
		return AxisMax / 2
	}
	num := (int64(raw) - int64(r.Min)) * int64(AxisMax)
	den := int64(r.Max) - int64(r.Min)
	out := num / den
	if out < 0 {
		out = 0
	}
	if out > int64(AxisMax) {
		out = int64(AxisMax)
	}
	return uint16(out)
}
