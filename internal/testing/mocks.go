// Package testing holds fakes shared by the package tests: an in-memory
// capture device and a recording virtual device.
package testing

import (
	"io"

	"github.com/vkbtools/vkbridge/internal/capture"
	"github.com/vkbtools/vkbridge/joystick"
)

// FakeDevice implements capture.Device from queued event batches. NextEvents
// blocks on the channel like real hardware blocks on the kernel; closing the
// channel ends the stream with io.EOF.
type FakeDevice struct {
	DeviceName string
	Vendor     uint16
	Product    uint16
	Keys       []uint16
	Ranges     map[uint16]joystick.AxisRange

	Batches chan []capture.Event
}

// NewFakeDevice returns a fake with sane joystick-ish capabilities.
func NewFakeDevice() *FakeDevice {
	ranges := make(map[uint16]joystick.AxisRange, len(capture.AxisCodes))
	for _, code := range capture.AxisCodes {
		ranges[code] = joystick.AxisRange{Min: 0, Max: 4095}
	}
	return &FakeDevice{
		DeviceName: "fake joystick",
		Vendor:     0x231d,
		Product:    0x0200,
		Keys:       []uint16{0x120, 0x121, 0x122, 0x123},
		Ranges:     ranges,
		Batches:    make(chan []capture.Event, 16),
	}
}

func (f *FakeDevice) Name() string                 { return f.DeviceName }
func (f *FakeDevice) ID() (vendor, product uint16) { return f.Vendor, f.Product }
func (f *FakeDevice) SupportedKeys() []uint16      { return f.Keys }

func (f *FakeDevice) AbsRange(code uint16) (joystick.AxisRange, error) {
	r, ok := f.Ranges[code]
	if !ok {
		return joystick.AxisRange{}, io.ErrUnexpectedEOF
	}
	return r, nil
}

func (f *FakeDevice) NextEvents() ([]capture.Event, error) {
	batch, ok := <-f.Batches
	if !ok {
		return nil, io.EOF
	}
	return batch, nil
}

func (f *FakeDevice) Close() error { return nil }

// ButtonWrite records one SetButton call on a FakeVDev.
type ButtonWrite struct {
	ID      int
	Pressed bool
}

// FakeVDev implements vdev.Device and records everything written to it.
type FakeVDev struct {
	Mode    joystick.HatMode
	Axes    [joystick.NumAxes]int32
	Hat     joystick.FourWay
	HatCont uint32

	ButtonWrites []ButtonWrite
	Flushes      int

	// Err, when set, is returned by every mutating call.
	Err error
}

// NewFakeVDev returns a discrete-hat fake with the full control surface.
func NewFakeVDev() *FakeVDev {
	return &FakeVDev{HatCont: joystick.ContinuousCentered}
}

func (f *FakeVDev) AxisCount() int            { return joystick.NumAxes }
func (f *FakeVDev) ButtonCount() int          { return joystick.MaxButtons }
func (f *FakeVDev) HatCount() int             { return 1 }
func (f *FakeVDev) HatMode() joystick.HatMode { return f.Mode }

func (f *FakeVDev) SetAxis(slot int, value int32) error {
	if f.Err != nil {
		return f.Err
	}
	f.Axes[slot] = value
	return nil
}

func (f *FakeVDev) SetDiscreteHat(dir joystick.FourWay) error {
	if f.Err != nil {
		return f.Err
	}
	f.Hat = dir
	return nil
}

func (f *FakeVDev) SetContinuousHat(centideg uint32) error {
	if f.Err != nil {
		return f.Err
	}
	f.HatCont = centideg
	return nil
}

func (f *FakeVDev) SetButton(id int, pressed bool) error {
	if f.Err != nil {
		return f.Err
	}
	f.ButtonWrites = append(f.ButtonWrites, ButtonWrite{ID: id, Pressed: pressed})
	return nil
}

func (f *FakeVDev) Flush() error {
	if f.Err != nil {
		return f.Err
	}
	f.Flushes++
	return nil
}

func (f *FakeVDev) Close() error { return nil }
