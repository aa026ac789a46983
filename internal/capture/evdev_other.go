//go:build !linux

package capture

import (
	"errors"

	"github.com/vkbtools/vkbridge/joystick"
)

var errUnsupported = errors.New("joystick capture requires Linux evdev")

// Evdev is a placeholder on non-Linux platforms; constructors always fail.
type Evdev struct{}

func List() ([]*Evdev, error) { return nil, errUnsupported }

func OpenByID(vendor, product uint16) (*Evdev, error) { return nil, errUnsupported }

func Open(path string) (*Evdev, error) { return nil, errUnsupported }

func (e *Evdev) Name() string                 { return "" }
func (e *Evdev) Path() string                 { return "" }
func (e *Evdev) ID() (vendor, product uint16) { return 0, 0 }
func (e *Evdev) SupportedKeys() []uint16      { return nil }
func (e *Evdev) SupportedAxes() []uint16      { return nil }
func (e *Evdev) AbsRange(code uint16) (joystick.AxisRange, error) {
	return joystick.AxisRange{}, errUnsupported
}
func (e *Evdev) NextEvents() ([]Event, error) { return nil, errUnsupported }
func (e *Evdev) Close() error                 { return nil }
