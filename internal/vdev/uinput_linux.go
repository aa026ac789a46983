//go:build linux

package vdev

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/vkbtools/vkbridge/joystick"
)

// Constants from uinput.h / input-event-codes.h.
const (
	uinputMaxNameSize = 80
	uiDevCreate       = 0x5501
	uiDevDestroy      = 0x5502
	uiSetEvBit        = 0x40045564
	uiSetKeyBit       = 0x40045565
	uiSetAbsBit       = 0x40045567
	busUSB            = 0x03

	evSyn = 0x00
	evKey = 0x01
	evAbs = 0x03

	synReport = 0

	absX        = 0x00
	absY        = 0x01
	absZ        = 0x02
	absRX       = 0x03
	absRY       = 0x04
	absRZ       = 0x05
	absThrottle = 0x06
	absRudder   = 0x07
	absHat0X    = 0x10
	absHat0Y    = 0x11

	btnJoystick     = 0x120
	btnTriggerHappy = 0x2c0

	absArraySize = 64
)

// axisCodes maps axis slot 0..7 to its evdev ABS code, in wire order.
var axisCodes = [joystick.NumAxes]uint16{
	absX, absY, absZ, absRX, absRY, absRZ, absThrottle, absRudder,
}

// buttonCodes maps 1-based button ids to evdev key codes. Ids 1..64 take the
// joystick/gamepad block starting at BTN_JOYSTICK, ids 65..128 the 64 codes
// starting at BTN_TRIGGER_HAPPY. The assignment is a fixed policy so button
// numbering is stable across runs.
func buttonCode(id int) uint16 {
	if id <= 64 {
		return btnJoystick + uint16(id-1)
	}
	return btnTriggerHappy + uint16(id-65)
}

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

type uinputUserDev struct {
	Name       [uinputMaxNameSize]byte
	ID         inputID
	EffectsMax uint32
	Absmax     [absArraySize]int32
	Absmin     [absArraySize]int32
	Absfuzz    [absArraySize]int32
	Absflat    [absArraySize]int32
}

type inputEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

// Uinput is a virtual joystick backed by /dev/uinput: 8 absolute axes
// (0..=32768), a discrete hat on ABS_HAT0X/Y, and 128 buttons. Events are
// written per control; Flush emits the SYN_REPORT that makes the kernel
// publish them as one update.
type Uinput struct {
	f *os.File
}

// NewUinput creates and registers the virtual device. The name shows up in
// /proc/bus/input/devices; vendor/product identify it to consumers.
func NewUinput(name string, vendor, product uint16) (*Uinput, error) {
	f, err := os.OpenFile("/dev/uinput", os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/uinput: %w", err)
	}
	u := &Uinput{f: f}

	if err := u.ioctl(uiSetEvBit, evKey); err != nil {
		return nil, u.setupFailed(err)
	}
	if err := u.ioctl(uiSetEvBit, evAbs); err != nil {
		return nil, u.setupFailed(err)
	}
	for id := 1; id <= joystick.MaxButtons; id++ {
		if err := u.ioctl(uiSetKeyBit, uintptr(buttonCode(id))); err != nil {
			return nil, u.setupFailed(err)
		}
	}
	for _, code := range axisCodes {
		if err := u.ioctl(uiSetAbsBit, uintptr(code)); err != nil {
			return nil, u.setupFailed(err)
		}
	}
	if err := u.ioctl(uiSetAbsBit, absHat0X); err != nil {
		return nil, u.setupFailed(err)
	}
	if err := u.ioctl(uiSetAbsBit, absHat0Y); err != nil {
		return nil, u.setupFailed(err)
	}

	var dev uinputUserDev
	copy(dev.Name[:uinputMaxNameSize-1], name)
	dev.ID = inputID{Bustype: busUSB, Vendor: vendor, Product: product, Version: 1}
	for _, code := range axisCodes {
		dev.Absmin[code] = 0
		dev.Absmax[code] = int32(joystick.AxisMax)
	}
	dev.Absmin[absHat0X], dev.Absmax[absHat0X] = -1, 1
	dev.Absmin[absHat0Y], dev.Absmax[absHat0Y] = -1, 1

	buf := (*[unsafe.Sizeof(dev)]byte)(unsafe.Pointer(&dev))[:]
	if _, err := f.Write(buf); err != nil {
		return nil, u.setupFailed(fmt.Errorf("write uinput_user_dev: %w", err))
	}
	if err := u.ioctl(uiDevCreate, 0); err != nil {
		return nil, u.setupFailed(err)
	}
	return u, nil
}

func (u *Uinput) setupFailed(err error) error {
	_ = u.f.Close()
	return fmt.Errorf("uinput setup: %w", err)
}

func (u *Uinput) ioctl(req, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, u.f.Fd(), req, arg)
	if errno != 0 {
		return fmt.Errorf("ioctl 0x%x: %w", req, errno)
	}
	return nil
}

func (u *Uinput) AxisCount() int            { return joystick.NumAxes }
func (u *Uinput) ButtonCount() int          { return joystick.MaxButtons }
func (u *Uinput) HatCount() int             { return 1 }
func (u *Uinput) HatMode() joystick.HatMode { return joystick.HatDiscrete }

func (u *Uinput) emit(typ, code uint16, value int32) error {
	ev := inputEvent{Type: typ, Code: code, Value: value}
	buf := (*[unsafe.Sizeof(ev)]byte)(unsafe.Pointer(&ev))[:]
	if _, err := u.f.Write(buf); err != nil {
		return fmt.Errorf("uinput write: %w", err)
	}
	return nil
}

func (u *Uinput) SetAxis(slot int, value int32) error {
	if slot < 0 || slot >= joystick.NumAxes {
		return fmt.Errorf("uinput: axis slot %d out of range", slot)
	}
	return u.emit(evAbs, axisCodes[slot], value)
}

func (u *Uinput) SetDiscreteHat(dir joystick.FourWay) error {
	var x, y int32
	switch dir {
	case joystick.HatNorth:
		y = -1
	case joystick.HatSouth:
		y = 1
	case joystick.HatEast:
		x = 1
	case joystick.HatWest:
		x = -1
	}
	if err := u.emit(evAbs, absHat0X, x); err != nil {
		return err
	}
	return u.emit(evAbs, absHat0Y, y)
}

func (u *Uinput) SetContinuousHat(centideg uint32) error {
	return fmt.Errorf("uinput: continuous hat not supported")
}

func (u *Uinput) SetButton(id int, pressed bool) error {
	if id < 1 || id > joystick.MaxButtons {
		return fmt.Errorf("uinput: button id %d out of range", id)
	}
	var v int32
	if pressed {
		v = 1
	}
	return u.emit(evKey, buttonCode(id), v)
}

func (u *Uinput) Flush() error {
	return u.emit(evSyn, synReport, 0)
}

func (u *Uinput) Close() error {
	_ = u.ioctl(uiDevDestroy, 0)
	return u.f.Close()
}
