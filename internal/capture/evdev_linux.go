//go:build linux

package capture

import (
	"fmt"
	"unsafe"

	evdev "github.com/gvalkov/golang-evdev"
	"golang.org/x/sys/unix"

	"github.com/vkbtools/vkbridge/joystick"
)

// Evdev adapts a kernel input device to the Device interface.
type Evdev struct {
	dev *evdev.InputDevice
}

// List enumerates all readable input devices.
func List() ([]*Evdev, error) {
	devs, err := evdev.ListInputDevices()
	if err != nil {
		return nil, fmt.Errorf("enumerate input devices: %w", err)
	}
	out := make([]*Evdev, len(devs))
	for i, d := range devs {
		out[i] = &Evdev{dev: d}
	}
	return out, nil
}

// OpenByID finds the first input device matching vendor/product. Candidates
// that cannot be opened (permissions) are skipped.
func OpenByID(vendor, product uint16) (*Evdev, error) {
	devs, err := List()
	if err != nil {
		return nil, err
	}
	for _, d := range devs {
		v, p := d.ID()
		if v == vendor && p == product {
			return d, nil
		}
		_ = d.Close()
	}
	return nil, fmt.Errorf("no input device with vendor=%04x product=%04x; check /dev/input permissions", vendor, product)
}

// Open opens a single device node, e.g. /dev/input/event3.
func Open(path string) (*Evdev, error) {
	d, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Evdev{dev: d}, nil
}

func (e *Evdev) Name() string { return e.dev.Name }

// Path returns the device node path.
func (e *Evdev) Path() string { return e.dev.Fn }

func (e *Evdev) ID() (vendor, product uint16) {
	return e.dev.Vendor, e.dev.Product
}

func (e *Evdev) SupportedKeys() []uint16 {
	var keys []uint16
	for typ, codes := range e.dev.Capabilities {
		if typ.Type != int(EvKey) {
			continue
		}
		for _, c := range codes {
			keys = append(keys, uint16(c.Code))
		}
	}
	return keys
}

// SupportedAxes returns the absolute axis codes the device reports.
func (e *Evdev) SupportedAxes() []uint16 {
	var axes []uint16
	for typ, codes := range e.dev.Capabilities {
		if typ.Type != int(EvAbs) {
			continue
		}
		for _, c := range codes {
			axes = append(axes, uint16(c.Code))
		}
	}
	return axes
}

// input_absinfo from input.h.
type absInfo struct {
	Value      int32
	Minimum    int32
	Maximum    int32
	Fuzz       int32
	Flat       int32
	Resolution int32
}

// eviocgabsBase is EVIOCGABS(0): _IOR('E', 0x40, struct input_absinfo).
const eviocgabsBase = 0x80184540

// AbsRange reads the kernel abs info for one axis code. The evdev library
// exposes capabilities but not ranges, so this goes straight to the ioctl.
func (e *Evdev) AbsRange(code uint16) (joystick.AxisRange, error) {
	var info absInfo
	req := uintptr(eviocgabsBase + uint32(code))
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, e.dev.File.Fd(), req, uintptr(unsafe.Pointer(&info)))
	if errno != 0 {
		return joystick.AxisRange{}, fmt.Errorf("EVIOCGABS(0x%02x): %w", code, errno)
	}
	return joystick.AxisRange{Min: info.Minimum, Max: info.Maximum}, nil
}

func (e *Evdev) NextEvents() ([]Event, error) {
	raw, err := e.dev.Read()
	if err != nil {
		return nil, err
	}
	events := make([]Event, 0, len(raw))
	for _, ev := range raw {
		events = append(events, Event{Type: ev.Type, Code: ev.Code, Value: ev.Value})
	}
	return events, nil
}

func (e *Evdev) Close() error {
	return e.dev.File.Close()
}
