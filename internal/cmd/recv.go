package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/vkbtools/vkbridge/internal/log"
	"github.com/vkbtools/vkbridge/internal/recv"
	"github.com/vkbtools/vkbridge/internal/vdev"
)

// Recv is the consumer command: a UDP receive loop feeding one virtual
// joystick per source device id.
type Recv struct {
	Listen  string `help:"UDP listen address" default:"0.0.0.0:46000" env:"VKBRIDGE_LISTEN"`
	Name    string `help:"Base name for created virtual devices" default:"vkbridge joystick"`
	Vendor  uint16 `help:"Vendor id reported by the virtual devices" default:"8989"`
	Product uint16 `help:"Product id reported by the virtual devices" default:"1"`
}

// Run is called by kong when the recv command is executed.
func (c *Recv) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.run(ctx, logger, rawLogger)
}

func (c *Recv) run(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	pc, err := net.ListenPacket("udp", c.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", c.Listen, err)
	}
	logger.Info("listening", "addr", pc.LocalAddr())

	open := func(deviceID uint8) (vdev.Device, error) {
		name := c.Name
		if deviceID != 0 {
			name = fmt.Sprintf("%s %d", c.Name, deviceID)
		}
		return vdev.NewUinput(name, c.Vendor, c.Product+uint16(deviceID))
	}

	srv := recv.New(pc, open, logger, rawLogger)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
