package recv_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkbtools/vkbridge/internal/recv"
	th "github.com/vkbtools/vkbridge/internal/testing"
	"github.com/vkbtools/vkbridge/joystick"
	"github.com/vkbtools/vkbridge/wire"
)

func TestApplyWritesAxes(t *testing.T) {
	dev := th.NewFakeVDev()
	app := recv.NewApplicator(dev)

	pkt := wire.Packet{Axes: [joystick.NumAxes]uint16{0, 16384, 32768, 1, 2, 3, 4, 5}}
	require.NoError(t, app.Apply(pkt))

	assert.Equal(t, [joystick.NumAxes]int32{0, 16384, 32768, 1, 2, 3, 4, 5}, dev.Axes)
	assert.Equal(t, 1, dev.Flushes)
}

func TestApplyButtonDiff(t *testing.T) {
	dev := th.NewFakeVDev()
	app := recv.NewApplicator(dev)

	var first wire.Packet
	first.Buttons[0] = 0x01 // button 1
	require.NoError(t, app.Apply(first))
	require.Equal(t, []th.ButtonWrite{{ID: 1, Pressed: true}}, dev.ButtonWrites)

	// Second snapshot differs only in bit 9 (byte 1, bit 0): exactly one
	// write, to button 10.
	second := first
	second.Buttons[1] = 0x01
	dev.ButtonWrites = nil
	require.NoError(t, app.Apply(second))
	assert.Equal(t, []th.ButtonWrite{{ID: 10, Pressed: true}}, dev.ButtonWrites)

	// Identical state again: no writes at all.
	dev.ButtonWrites = nil
	require.NoError(t, app.Apply(second))
	assert.Empty(t, dev.ButtonWrites)

	// Releasing button 1 writes only that release.
	third := second
	third.Buttons[0] = 0x00
	dev.ButtonWrites = nil
	require.NoError(t, app.Apply(third))
	assert.Equal(t, []th.ButtonWrite{{ID: 1, Pressed: false}}, dev.ButtonWrites)
}

func TestApplyDiscreteHat(t *testing.T) {
	dev := th.NewFakeVDev()
	app := recv.NewApplicator(dev)

	pkt := wire.Packet{HatX: 1, HatY: -1}
	require.NoError(t, app.Apply(pkt))
	assert.Equal(t, joystick.HatNorth, dev.Hat)

	pkt = wire.Packet{}
	require.NoError(t, app.Apply(pkt))
	assert.Equal(t, joystick.HatCentered, dev.Hat)
}

func TestApplyContinuousHat(t *testing.T) {
	dev := th.NewFakeVDev()
	dev.Mode = joystick.HatContinuous
	app := recv.NewApplicator(dev)

	pkt := wire.Packet{HatX: 1}
	require.NoError(t, app.Apply(pkt))
	assert.Equal(t, uint32(9000), dev.HatCont)

	pkt = wire.Packet{}
	require.NoError(t, app.Apply(pkt))
	assert.Equal(t, joystick.ContinuousCentered, dev.HatCont)
}

func TestApplyPropagatesDeviceErrors(t *testing.T) {
	dev := th.NewFakeVDev()
	app := recv.NewApplicator(dev)

	dev.Err = errors.New("driver detached")
	err := app.Apply(wire.Packet{})
	assert.ErrorIs(t, err, dev.Err)
}
