// Package send paces the outbound side of the bridge: at a fixed rate it
// snapshots every device's shared state, encodes a VKB2 frame per device
// and fires one datagram each.
package send

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/vkbtools/vkbridge/internal/log"
	"github.com/vkbtools/vkbridge/joystick"
	"github.com/vkbtools/vkbridge/wire"
)

// DeviceSlot binds one device id to its shared state and calibration. The
// sequence counter is owned by the pacer goroutine; nothing else touches it.
type DeviceSlot struct {
	ID     uint8
	State  *joystick.State
	Ranges [joystick.NumAxes]joystick.AxisRange

	seq uint16
}

// Pacer wakes on a fixed wall-clock period and transmits the latest state
// of every configured device. Wake times accumulate (next += period) so the
// rate does not drift; when a tick overruns, the schedule resets to now
// instead of bursting to catch up.
type Pacer struct {
	conn    io.Writer
	period  time.Duration
	devices []*DeviceSlot
	legacy  bool
	raw     log.RawLogger
}

// New builds a pacer sending at rateHz. In legacy mode frames are the
// 42-byte single-device variant (valid only with exactly one device);
// otherwise every frame carries its device id.
func New(conn io.Writer, rateHz int, devices []*DeviceSlot, legacy bool, raw log.RawLogger) (*Pacer, error) {
	if rateHz <= 0 {
		return nil, fmt.Errorf("send rate must be positive, got %d", rateHz)
	}
	if legacy && len(devices) != 1 {
		return nil, fmt.Errorf("legacy frames carry no device id; got %d devices", len(devices))
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no devices to send")
	}
	return &Pacer{
		conn:    conn,
		period:  time.Second / time.Duration(rateHz),
		devices: devices,
		legacy:  legacy,
		raw:     raw,
	}, nil
}

// Run transmits until ctx is done. A send failure is returned immediately:
// retrying would only deliver stale state, so the policy is fail-fast.
func (p *Pacer) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	next := time.Now()
	for {
		next = next.Add(p.period)

		if err := p.tick(); err != nil {
			return err
		}

		now := time.Now()
		if next.After(now) {
			timer.Reset(next.Sub(now))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
			}
		} else {
			next = now
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
	}
}

func (p *Pacer) tick() error {
	for _, d := range p.devices {
		snap := d.State.Snapshot()

		var frame []byte
		if p.legacy {
			var buf [wire.FrameLen]byte
			wire.Encode(&buf, d.seq, snap, d.Ranges)
			frame = buf[:]
		} else {
			var buf [wire.MultiFrameLen]byte
			wire.EncodeMulti(&buf, d.seq, d.ID, snap, d.Ranges)
			frame = buf[:]
		}
		d.seq++

		if _, err := p.conn.Write(frame); err != nil {
			return fmt.Errorf("send frame for device %d: %w", d.ID, err)
		}
		p.raw.Log(false, frame)
	}
	return nil
}
