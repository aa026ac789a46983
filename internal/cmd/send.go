package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/vkbtools/vkbridge/internal/capture"
	"github.com/vkbtools/vkbridge/internal/log"
	"github.com/vkbtools/vkbridge/internal/send"
	"github.com/vkbtools/vkbridge/joystick"
)

// Send is the producer command: one capture goroutine per physical device
// feeding a shared state, one pacer transmitting all of them.
type Send struct {
	Dest    string   `help:"Destination address (host:port)" default:"127.0.0.1:46000" env:"VKBRIDGE_DEST"`
	Rate    int      `help:"Send rate in Hz" default:"250" env:"VKBRIDGE_RATE"`
	Devices []string `name:"device" help:"Physical device to bridge, as id=vendor:product with hex ids (e.g. 1=231d:0200); repeatable"`
	Legacy  bool     `help:"Emit 42-byte frames without a device id byte (single device only)"`
}

// DeviceSpec is one parsed --device entry.
type DeviceSpec struct {
	ID      uint8
	Vendor  uint16
	Product uint16
}

// ParseDeviceSpec parses "id=vendor:product" with hex vendor/product ids.
func ParseDeviceSpec(s string) (DeviceSpec, error) {
	var spec DeviceSpec
	idPart, idsPart, ok := strings.Cut(s, "=")
	if !ok {
		return spec, fmt.Errorf("device spec %q: want id=vendor:product", s)
	}
	id, err := strconv.ParseUint(idPart, 10, 8)
	if err != nil {
		return spec, fmt.Errorf("device spec %q: bad device id: %w", s, err)
	}
	vendorPart, productPart, ok := strings.Cut(idsPart, ":")
	if !ok {
		return spec, fmt.Errorf("device spec %q: want id=vendor:product", s)
	}
	vendor, err := strconv.ParseUint(vendorPart, 16, 16)
	if err != nil {
		return spec, fmt.Errorf("device spec %q: bad vendor id: %w", s, err)
	}
	product, err := strconv.ParseUint(productPart, 16, 16)
	if err != nil {
		return spec, fmt.Errorf("device spec %q: bad product id: %w", s, err)
	}
	spec.ID = uint8(id)
	spec.Vendor = uint16(vendor)
	spec.Product = uint16(product)
	return spec, nil
}

// Run is called by kong when the send command is executed.
func (c *Send) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.run(ctx, logger, rawLogger)
}

func (c *Send) run(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	if len(c.Devices) == 0 {
		return fmt.Errorf("no --device configured")
	}

	specs := make([]DeviceSpec, 0, len(c.Devices))
	seen := map[uint8]bool{}
	for _, raw := range c.Devices {
		spec, err := ParseDeviceSpec(raw)
		if err != nil {
			return err
		}
		if seen[spec.ID] {
			return fmt.Errorf("duplicate device id %d", spec.ID)
		}
		seen[spec.ID] = true
		specs = append(specs, spec)
	}

	conn, err := net.Dial("udp", c.Dest)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.Dest, err)
	}
	defer conn.Close()
	logger.Info("sending to", "dest", c.Dest, "rate_hz", c.Rate, "devices", len(specs))

	var slots []*send.DeviceSlot
	for _, spec := range specs {
		dev, err := capture.OpenByID(spec.Vendor, spec.Product)
		if err != nil {
			return fmt.Errorf("device %d: %w", spec.ID, err)
		}
		defer dev.Close()

		ranges, err := capture.BuildAxisRanges(dev)
		if err != nil {
			return fmt.Errorf("device %d (%s): %w", spec.ID, dev.Name(), err)
		}
		buttons := capture.BuildButtonMap(dev.SupportedKeys())
		st := joystick.NewState()

		logger.Info("capturing device",
			"id", spec.ID,
			"name", dev.Name(),
			"vendor", fmt.Sprintf("%04x", spec.Vendor),
			"product", fmt.Sprintf("%04x", spec.Product),
			"buttons", len(buttons),
		)

		slots = append(slots, &send.DeviceSlot{ID: spec.ID, State: st, Ranges: ranges})

		// Failure isolation: a dead device stops only its own goroutine,
		// the pacer keeps sending the last known state of the others.
		go func(id uint8, dev capture.Device) {
			if err := capture.Run(ctx, dev, st, buttons); err != nil && ctx.Err() == nil {
				logger.Error("capture stopped", "id", id, "device", dev.Name(), "error", err)
			}
		}(spec.ID, dev)
	}

	pacer, err := send.New(conn, c.Rate, slots, c.Legacy, rawLogger)
	if err != nil {
		return err
	}
	if err := pacer.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
