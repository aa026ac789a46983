package recv

import (
	"fmt"

	"github.com/vkbtools/vkbridge/internal/vdev"
	"github.com/vkbtools/vkbridge/joystick"
	"github.com/vkbtools/vkbridge/wire"
)

// Applicator maps accepted packets onto one virtual device. It remembers the
// last button set it wrote so repeated states cost no driver calls: only the
// XOR-diff of the two bitsets is written out.
type Applicator struct {
	dev         vdev.Device
	hats        bool
	lastButtons [joystick.ButtonBytes]byte
}

// NewApplicator wraps a virtual device. Hat updates are skipped entirely
// when the target exposes no hat.
func NewApplicator(dev vdev.Device) *Applicator {
	return &Applicator{dev: dev, hats: dev.HatCount() >= 1}
}

// Apply writes a packet's axes, hat and changed buttons to the device and
// flushes. Any device error is returned as-is; the caller treats it as
// fatal, there is no degraded mode once the driver rejects a write.
func (a *Applicator) Apply(p wire.Packet) error {
	for i, v := range p.Axes {
		if err := a.dev.SetAxis(i, int32(v)); err != nil {
			return fmt.Errorf("set axis %d: %w", i, err)
		}
	}

	if a.hats {
		var err error
		switch a.dev.HatMode() {
		case joystick.HatContinuous:
			err = a.dev.SetContinuousHat(joystick.ContinuousFromXY(p.HatX, p.HatY))
		default:
			err = a.dev.SetDiscreteHat(joystick.FourWayFromXY(p.HatX, p.HatY))
		}
		if err != nil {
			return fmt.Errorf("set hat: %w", err)
		}
	}

	for byteIdx := 0; byteIdx < joystick.ButtonBytes; byteIdx++ {
		changed := p.Buttons[byteIdx] ^ a.lastButtons[byteIdx]
		if changed == 0 {
			continue
		}
		for bit := uint(0); bit < 8; bit++ {
			if changed&(1<<bit) == 0 {
				continue
			}
			id := byteIdx*8 + int(bit) + 1
			pressed := p.Buttons[byteIdx]&(1<<bit) != 0
			if err := a.dev.SetButton(id, pressed); err != nil {
				return fmt.Errorf("set button %d: %w", id, err)
			}
		}
	}
	a.lastButtons = p.Buttons

	if err := a.dev.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}
