// Package capture turns raw joystick hardware events into updates on a
// shared joystick.State. Hardware access goes through the narrow Device
// interface so the loop can be driven by a fake in tests; the evdev-backed
// implementation lives in evdev_linux.go.
package capture

import (
	"context"
	"fmt"
	"sort"

	"github.com/vkbtools/vkbridge/joystick"
)

// Event type codes and the axis codes we care about, as defined by
// input-event-codes.h. These values are the canonical numeric codes used
// for the stable button numbering.
const (
	EvKey uint16 = 0x01
	EvAbs uint16 = 0x03

	AbsX        uint16 = 0x00
	AbsY        uint16 = 0x01
	AbsZ        uint16 = 0x02
	AbsRX       uint16 = 0x03
	AbsRY       uint16 = 0x04
	AbsRZ       uint16 = 0x05
	AbsThrottle uint16 = 0x06
	AbsRudder   uint16 = 0x07
	AbsHat0X    uint16 = 0x10
	AbsHat0Y    uint16 = 0x11
)

// AxisCodes lists the absolute axis codes carried on the wire, in slot
// order. The table is fixed; axes a device reports beyond these are ignored.
var AxisCodes = [joystick.NumAxes]uint16{
	AbsX, AbsY, AbsZ, AbsRX, AbsRY, AbsRZ, AbsThrottle, AbsRudder,
}

// AxisSlot maps an absolute axis code to its wire slot.
func AxisSlot(code uint16) (int, bool) {
	for i, c := range AxisCodes {
		if c == code {
			return i, true
		}
	}
	return 0, false
}

// Event is one raw hardware event.
type Event struct {
	Type  uint16
	Code  uint16
	Value int32
}

// Device is the capability surface of one physical input device.
type Device interface {
	Name() string
	// ID returns the vendor and product id.
	ID() (vendor, product uint16)
	// SupportedKeys returns all key/button codes the device can emit.
	SupportedKeys() []uint16
	// AbsRange returns the raw min/max for an absolute axis code.
	AbsRange(code uint16) (joystick.AxisRange, error)
	// NextEvents blocks until at least one event is available and returns
	// the batch.
	NextEvents() ([]Event, error)
	Close() error
}

// BuildButtonMap assigns stable 1-based button ids to a device's key codes:
// codes are sorted ascending and numbered from 1, capped at
// joystick.MaxButtons. As long as the device capabilities do not change the
// numbering is identical across runs.
func BuildButtonMap(keys []uint16) map[uint16]int {
	sorted := make([]uint16, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	m := make(map[uint16]int, len(sorted))
	for i, code := range sorted {
		if i >= joystick.MaxButtons {
			break
		}
		m[code] = i + 1
	}
	return m
}

// BuildAxisRanges queries the raw range of every wire axis slot. A missing
// axis is an error: the normalization table must be complete before any
// frame is sent.
func BuildAxisRanges(dev Device) ([joystick.NumAxes]joystick.AxisRange, error) {
	var out [joystick.NumAxes]joystick.AxisRange
	for i, code := range AxisCodes {
		r, err := dev.AbsRange(code)
		if err != nil {
			return out, fmt.Errorf("abs info for axis code 0x%02x: %w", code, err)
		}
		out[i] = r
	}
	return out, nil
}

// Run consumes event batches from dev and applies them to st until the
// device fails or ctx is done. A read error is fatal to this device only;
// the caller decides process-level policy.
func Run(ctx context.Context, dev Device, st *joystick.State, buttons map[uint16]int) error {
	for {
		events, err := dev.NextEvents()
		if err != nil {
			return fmt.Errorf("read events from %s: %w", dev.Name(), err)
		}
		for _, ev := range events {
			applyEvent(ev, st, buttons)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// applyEvent routes a single event into the shared state. State mutators
// compare old and new values and bump the revision only on change, so
// repeated identical events are free.
func applyEvent(ev Event, st *joystick.State, buttons map[uint16]int) {
	switch ev.Type {
	case EvAbs:
		switch ev.Code {
		case AbsHat0X:
			st.SetHatX(ev.Value)
		case AbsHat0Y:
			st.SetHatY(ev.Value)
		default:
			if slot, ok := AxisSlot(ev.Code); ok {
				st.SetAxis(slot, ev.Value)
			}
		}
	case EvKey:
		if id, ok := buttons[ev.Code]; ok {
			st.SetButton(id, ev.Value != 0)
		}
	}
}
