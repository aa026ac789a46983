// Package recv implements the consuming side of the bridge: a blocking UDP
// receive loop feeding decoded frames through a per-device sequence gate
// into a virtual-device applicator.
package recv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/vkbtools/vkbridge/internal/log"
	"github.com/vkbtools/vkbridge/internal/vdev"
	"github.com/vkbtools/vkbridge/joystick"
	"github.com/vkbtools/vkbridge/wire"
)

// statsInterval is how often a summary line is logged.
const statsInterval = time.Second

// session is the per-source-device receive state: one virtual device, one
// sequence gate, one applicator holding the last written button set.
type session struct {
	dev  vdev.Device
	gate *Gate
	app  *Applicator
}

// Server owns the receive loop. Virtual devices are created lazily, one per
// device id observed on the wire, through the injected opener.
type Server struct {
	conn     net.PacketConn
	open     func(deviceID uint8) (vdev.Device, error)
	logger   *slog.Logger
	raw      log.RawLogger
	sessions map[uint8]*session

	received uint64
	bad      uint64
}

// New builds a server reading from conn. open is called once per new device
// id; its device lives until the server stops.
func New(conn net.PacketConn, open func(deviceID uint8) (vdev.Device, error), logger *slog.Logger, raw log.RawLogger) *Server {
	return &Server{
		conn:     conn,
		open:     open,
		logger:   logger,
		raw:      raw,
		sessions: make(map[uint8]*session),
	}
}

// Run receives until ctx is done. Malformed frames are counted and dropped;
// ordering anomalies are normal and tracked per device. A virtual-device
// write failure is returned: the driver is gone and continuing would
// silently desynchronize the control surface.
func (s *Server) Run(ctx context.Context) error {
	defer s.closeSessions()

	go func() {
		<-ctx.Done()
		_ = s.conn.Close()
	}()

	buf := make([]byte, 2048)
	lastReport := time.Now()
	var from net.Addr

	for {
		n, addr, err := s.conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return ctx.Err()
			}
			return fmt.Errorf("receive datagram: %w", err)
		}
		from = addr
		s.received++
		s.raw.Log(true, buf[:n])

		pkt, err := wire.Decode(buf[:n])
		if err != nil {
			s.bad++
			s.logger.Log(ctx, log.LevelTrace, "dropped malformed frame", "len", n, "error", err)
		} else if err := s.handle(pkt); err != nil {
			return err
		}

		if time.Since(lastReport) >= statsInterval {
			lastReport = time.Now()
			s.report(from)
		}
	}
}

func (s *Server) handle(pkt wire.Packet) error {
	sess, ok := s.sessions[pkt.DeviceID]
	if !ok {
		dev, err := s.open(pkt.DeviceID)
		if err != nil {
			return fmt.Errorf("open virtual device %d: %w", pkt.DeviceID, err)
		}
		if dev.AxisCount() < joystick.NumAxes {
			s.logger.Warn("virtual device has fewer axes than the wire format", "device", pkt.DeviceID, "axes", dev.AxisCount())
		}
		if dev.ButtonCount() < joystick.MaxButtons {
			s.logger.Warn("virtual device has fewer buttons than the wire format", "device", pkt.DeviceID, "buttons", dev.ButtonCount())
		}
		sess = &session{dev: dev, gate: NewGate(), app: NewApplicator(dev)}
		s.sessions[pkt.DeviceID] = sess
		s.logger.Info("created virtual device", "device", pkt.DeviceID,
			"axes", dev.AxisCount(), "buttons", dev.ButtonCount(), "hats", dev.HatCount())
	}

	if sess.gate.Check(pkt.Seq) != Apply {
		return nil
	}
	if err := sess.app.Apply(pkt); err != nil {
		return fmt.Errorf("apply frame for device %d: %w", pkt.DeviceID, err)
	}
	return nil
}

func (s *Server) report(from net.Addr) {
	for id, sess := range s.sessions {
		st := sess.gate.Stats
		last := "-"
		if seq, ok := sess.gate.LastSeq(); ok {
			last = fmt.Sprintf("%d", seq)
		}
		s.logger.Info("stats",
			"from", from,
			"device", id,
			"recv", s.received,
			"applied", st.Applied,
			"bad", s.bad,
			"dup", st.Duplicate,
			"ooo", st.OutOfOrder,
			"lost_est", st.LostEst,
			"last_seq", last,
		)
	}
	if len(s.sessions) == 0 {
		s.logger.Info("stats", "from", from, "recv", s.received, "bad", s.bad)
	}
}

func (s *Server) closeSessions() {
	for _, sess := range s.sessions {
		_ = sess.dev.Close()
	}
}
