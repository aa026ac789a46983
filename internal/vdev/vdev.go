// Package vdev abstracts the virtual joystick the receiver feeds. The
// interface mirrors the vJoy-style control surface: per-axis writes, a hat
// that is either discrete 4-way or continuous centi-degree, individual
// button writes, and an explicit flush that commits pending changes.
package vdev

import "github.com/vkbtools/vkbridge/joystick"

// Device is the narrow control surface of one virtual joystick. All writes
// may be buffered until Flush; any failed write or flush means the backing
// driver is gone and the caller must treat it as fatal.
type Device interface {
	// AxisCount, ButtonCount and HatCount report what the target actually
	// exposes; the applicator warns when they fall short of the wire format.
	AxisCount() int
	ButtonCount() int
	HatCount() int
	// HatMode reports how SetHat values are interpreted.
	HatMode() joystick.HatMode

	// SetAxis writes a normalized value (0..=32768) to axis slot 0..7.
	SetAxis(slot int, value int32) error
	// SetDiscreteHat positions a 4-way hat.
	SetDiscreteHat(dir joystick.FourWay) error
	// SetContinuousHat positions a continuous hat in 1/100 degree units;
	// joystick.ContinuousCentered means neutral.
	SetContinuousHat(centideg uint32) error
	// SetButton presses or releases a 1-based button id.
	SetButton(id int, pressed bool) error
	// Flush commits all pending changes to the driver.
	Flush() error

	Close() error
}
