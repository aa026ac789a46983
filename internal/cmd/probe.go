package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/vkbtools/vkbridge/internal/capture"
)

// Probe is the debug/enumeration command: it lists input devices, picks one
// (interactively or via --path), prints its capabilities with the button
// ids the bridge would assign, and then dumps events live.
type Probe struct {
	Path string `help:"Device node to probe (e.g. /dev/input/event3); prompts interactively when omitted"`
	List bool   `help:"Only list devices and exit"`
}

// Run is called by kong when the probe command is executed.
func (c *Probe) Run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.run(ctx, logger)
}

func (c *Probe) run(ctx context.Context, logger *slog.Logger) error {
	var dev *capture.Evdev

	if c.Path != "" {
		d, err := capture.Open(c.Path)
		if err != nil {
			return err
		}
		dev = d
	} else {
		devices, err := capture.List()
		if err != nil {
			return err
		}
		if len(devices) == 0 {
			return fmt.Errorf("no input devices found; check /dev/input permissions")
		}
		for i, d := range devices {
			vendor, product := d.ID()
			fmt.Printf("[%d] %s vendor=%04x product=%04x (%s)\n", i+1, d.Name(), vendor, product, d.Path())
		}
		if c.List {
			for _, d := range devices {
				_ = d.Close()
			}
			return nil
		}
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("stdin is not a terminal; use --path or --list")
		}
		idx, err := promptIndex(len(devices))
		if err != nil {
			return err
		}
		for i, d := range devices {
			if i == idx {
				dev = d
			} else {
				_ = d.Close()
			}
		}
	}
	defer dev.Close()

	vendor, product := dev.ID()
	logger.Info("probing device", "name", dev.Name(), "vendor", fmt.Sprintf("%04x", vendor), "product", fmt.Sprintf("%04x", product))

	for _, code := range dev.SupportedAxes() {
		r, err := dev.AbsRange(code)
		if err != nil {
			return err
		}
		slot, bridged := capture.AxisSlot(code)
		switch {
		case bridged:
			fmt.Printf("axis 0x%02x: slot %d, range [%d, %d]\n", code, slot, r.Min, r.Max)
		case code == capture.AbsHat0X || code == capture.AbsHat0Y:
			fmt.Printf("axis 0x%02x: hat, range [%d, %d]\n", code, r.Min, r.Max)
		default:
			fmt.Printf("axis 0x%02x: not bridged, range [%d, %d]\n", code, r.Min, r.Max)
		}
	}

	buttons := capture.BuildButtonMap(dev.SupportedKeys())
	codes := make([]uint16, 0, len(buttons))
	for code := range buttons {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	for _, code := range codes {
		fmt.Printf("key 0x%03x: button %d\n", code, buttons[code])
	}

	fmt.Println("dumping events, ctrl-c to stop")
	for {
		events, err := dev.NextEvents()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read events: %w", err)
		}
		for _, ev := range events {
			switch ev.Type {
			case capture.EvAbs:
				fmt.Printf("ABS 0x%02x = %d\n", ev.Code, ev.Value)
			case capture.EvKey:
				if id, ok := buttons[ev.Code]; ok {
					fmt.Printf("KEY 0x%03x (button %d) = %d\n", ev.Code, id, ev.Value)
				} else {
					fmt.Printf("KEY 0x%03x = %d\n", ev.Code, ev.Value)
				}
			}
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}

func promptIndex(n int) (int, error) {
	fmt.Print("select device to probe: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return 0, fmt.Errorf("read selection: %w", err)
	}
	line = strings.TrimSpace(line)
	idx, err := strconv.Atoi(line)
	if err != nil || idx < 1 || idx > n {
		return 0, fmt.Errorf("invalid selection %q", line)
	}
	return idx - 1, nil
}
