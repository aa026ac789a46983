package send_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkbtools/vkbridge/internal/log"
	"github.com/vkbtools/vkbridge/internal/send"
	"github.com/vkbtools/vkbridge/joystick"
	"github.com/vkbtools/vkbridge/wire"
)

// frameRecorder collects written frames and signals once it has enough.
type frameRecorder struct {
	mu     sync.Mutex
	frames [][]byte
	want   int
	done   chan struct{}
	once   sync.Once
}

func newFrameRecorder(want int) *frameRecorder {
	return &frameRecorder{want: want, done: make(chan struct{})}
}

func (r *frameRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	frame := make([]byte, len(p))
	copy(frame, p)
	r.frames = append(r.frames, frame)
	if len(r.frames) >= r.want {
		r.once.Do(func() { close(r.done) })
	}
	return len(p), nil
}

func (r *frameRecorder) recorded() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]byte, len(r.frames))
	copy(out, r.frames)
	return out
}

func identityRanges() [joystick.NumAxes]joystick.AxisRange {
	var out [joystick.NumAxes]joystick.AxisRange
	for i := range out {
		out[i] = joystick.AxisRange{Min: 0, Max: int32(joystick.AxisMax)}
	}
	return out
}

func TestNewValidation(t *testing.T) {
	st := joystick.NewState()
	slot := &send.DeviceSlot{ID: 1, State: st, Ranges: identityRanges()}

	_, err := send.New(nil, 0, []*send.DeviceSlot{slot}, false, log.NewRaw(nil))
	assert.Error(t, err, "rate must be positive")

	_, err = send.New(nil, 250, nil, false, log.NewRaw(nil))
	assert.Error(t, err, "at least one device required")

	two := []*send.DeviceSlot{slot, {ID: 2, State: st, Ranges: identityRanges()}}
	_, err = send.New(nil, 250, two, true, log.NewRaw(nil))
	assert.Error(t, err, "legacy frames cannot carry multiple devices")
}

func TestPacerTransmitsEveryDevicePerTick(t *testing.T) {
	stA, stB := joystick.NewState(), joystick.NewState()
	stA.SetAxis(0, 1234)
	stB.SetButton(10, true)

	slots := []*send.DeviceSlot{
		{ID: 1, State: stA, Ranges: identityRanges()},
		{ID: 2, State: stB, Ranges: identityRanges()},
	}

	rec := newFrameRecorder(6)
	pacer, err := send.New(rec, 1000, slots, false, log.NewRaw(nil))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- pacer.Run(ctx) }()

	select {
	case <-rec.done:
	case <-time.After(5 * time.Second):
		t.Fatal("pacer produced no frames")
	}
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	frames := rec.recorded()
	require.GreaterOrEqual(t, len(frames), 6)

	seqs := map[uint8][]uint16{}
	for _, frame := range frames {
		require.Len(t, frame, wire.MultiFrameLen)
		pkt, err := wire.Decode(frame)
		require.NoError(t, err)
		seqs[pkt.DeviceID] = append(seqs[pkt.DeviceID], pkt.Seq)

		switch pkt.DeviceID {
		case 1:
			assert.Equal(t, uint16(1234), pkt.Axes[0])
		case 2:
			assert.Equal(t, byte(0x02), pkt.Buttons[1], "button 10 is bit 1 of byte 1")
		default:
			t.Fatalf("unexpected device id %d", pkt.DeviceID)
		}
	}

	// Per-device sequences start at 0 and increment by one per tick.
	for id, s := range seqs {
		for i, seq := range s {
			assert.Equal(t, uint16(i), seq, "device %d frame %d", id, i)
		}
	}
}

func TestPacerLegacyFrames(t *testing.T) {
	st := joystick.NewState()
	slots := []*send.DeviceSlot{{ID: 0, State: st, Ranges: identityRanges()}}

	rec := newFrameRecorder(2)
	pacer, err := send.New(rec, 1000, slots, true, log.NewRaw(nil))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- pacer.Run(ctx) }()

	select {
	case <-rec.done:
	case <-time.After(5 * time.Second):
		t.Fatal("pacer produced no frames")
	}
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	for _, frame := range rec.recorded() {
		require.Len(t, frame, wire.FrameLen)
		pkt, err := wire.Decode(frame)
		require.NoError(t, err)
		assert.Equal(t, uint8(0), pkt.DeviceID)
	}
}

func TestPacerFailsFastOnSendError(t *testing.T) {
	st := joystick.NewState()
	slots := []*send.DeviceSlot{{ID: 1, State: st, Ranges: identityRanges()}}

	pacer, err := send.New(failingWriter{}, 1000, slots, false, log.NewRaw(nil))
	require.NoError(t, err)

	err = pacer.Run(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, assert.AnError
}
