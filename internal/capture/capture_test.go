package capture_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkbtools/vkbridge/internal/capture"
	th "github.com/vkbtools/vkbridge/internal/testing"
	"github.com/vkbtools/vkbridge/joystick"
)

func TestBuildButtonMap(t *testing.T) {
	t.Run("ids follow sorted codes", func(t *testing.T) {
		m := capture.BuildButtonMap([]uint16{0x2c0, 0x120, 0x123})
		assert.Equal(t, map[uint16]int{0x120: 1, 0x123: 2, 0x2c0: 3}, m)
	})

	t.Run("input order does not matter", func(t *testing.T) {
		a := capture.BuildButtonMap([]uint16{1, 2, 3})
		b := capture.BuildButtonMap([]uint16{3, 1, 2})
		assert.Equal(t, a, b)
	})

	t.Run("capped at 128 ids", func(t *testing.T) {
		keys := make([]uint16, 200)
		for i := range keys {
			keys[i] = uint16(0x100 + i)
		}
		m := capture.BuildButtonMap(keys)
		assert.Len(t, m, joystick.MaxButtons)
		assert.Equal(t, 1, m[0x100])
		assert.Equal(t, 128, m[0x17f])
		_, ok := m[0x180]
		assert.False(t, ok, "keys beyond 128 are dropped")
	})
}

func TestAxisSlot(t *testing.T) {
	slot, ok := capture.AxisSlot(capture.AbsX)
	require.True(t, ok)
	assert.Equal(t, 0, slot)

	slot, ok = capture.AxisSlot(capture.AbsRudder)
	require.True(t, ok)
	assert.Equal(t, 7, slot)

	_, ok = capture.AxisSlot(0x3f)
	assert.False(t, ok)
}

func TestBuildAxisRanges(t *testing.T) {
	dev := th.NewFakeDevice()
	dev.Ranges[capture.AbsRudder] = joystick.AxisRange{Min: -255, Max: 255}

	ranges, err := capture.BuildAxisRanges(dev)
	require.NoError(t, err)
	assert.Equal(t, joystick.AxisRange{Min: 0, Max: 4095}, ranges[0])
	assert.Equal(t, joystick.AxisRange{Min: -255, Max: 255}, ranges[7])

	delete(dev.Ranges, capture.AbsZ)
	_, err = capture.BuildAxisRanges(dev)
	assert.Error(t, err, "a missing axis must fail startup")
}

func runLoop(t *testing.T, dev *th.FakeDevice, st *joystick.State, buttons map[uint16]int) chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		done <- capture.Run(context.Background(), dev, st, buttons)
	}()
	return done
}

func waitRevision(t *testing.T, st *joystick.State, want uint64) joystick.Snapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := st.Snapshot()
		if snap.Revision >= want {
			return snap
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("state never reached revision %d (at %d)", want, st.Snapshot().Revision)
	return joystick.Snapshot{}
}

func TestRunAppliesEvents(t *testing.T) {
	dev := th.NewFakeDevice()
	st := joystick.NewState()
	buttons := capture.BuildButtonMap(dev.SupportedKeys())
	done := runLoop(t, dev, st, buttons)

	dev.Batches <- []capture.Event{
		{Type: capture.EvAbs, Code: capture.AbsX, Value: 1000},
		{Type: capture.EvAbs, Code: capture.AbsHat0X, Value: -7}, // clamped
		{Type: capture.EvKey, Code: 0x121, Value: 1},             // button 2
		{Type: capture.EvAbs, Code: 0x3f, Value: 9},              // unknown axis, ignored
		{Type: capture.EvKey, Code: 0x999, Value: 1},             // unmapped key, ignored
	}

	snap := waitRevision(t, st, 3)
	assert.Equal(t, uint64(3), snap.Revision, "ignored events must not advance the revision")
	assert.Equal(t, int32(1000), snap.AxesRaw[0])
	assert.Equal(t, int8(-1), snap.HatX)
	assert.Equal(t, byte(0x02), snap.Buttons[0])

	// A repeat of the same values changes nothing.
	dev.Batches <- []capture.Event{
		{Type: capture.EvAbs, Code: capture.AbsX, Value: 1000},
		{Type: capture.EvKey, Code: 0x121, Value: 1},
	}
	// One real change after the repeats pins the final revision.
	dev.Batches <- []capture.Event{
		{Type: capture.EvAbs, Code: capture.AbsY, Value: 5},
	}
	snap = waitRevision(t, st, 4)
	assert.Equal(t, uint64(4), snap.Revision)

	close(dev.Batches)
	err := <-done
	assert.ErrorIs(t, err, io.EOF, "device failure ends the loop")
}

func TestRunStopsOnDeviceError(t *testing.T) {
	dev := th.NewFakeDevice()
	st := joystick.NewState()
	done := runLoop(t, dev, st, nil)

	close(dev.Batches)
	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("capture loop did not stop on device error")
	}
}
