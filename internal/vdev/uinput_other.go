//go:build !linux

package vdev

import "errors"

// NewUinput is unavailable off Linux; vJoy-style backends would slot in
// here via the Device interface.
func NewUinput(name string, vendor, product uint16) (Device, error) {
	return nil, errors.New("uinput virtual devices require Linux")
}
