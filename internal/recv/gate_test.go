package recv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkbtools/vkbridge/internal/recv"
)

func trackingGate(t *testing.T, seq uint16) *recv.Gate {
	t.Helper()
	g := recv.NewGate()
	require.Equal(t, recv.Apply, g.Check(seq))
	return g
}

func TestGateBootstrap(t *testing.T) {
	g := recv.NewGate()

	_, ok := g.LastSeq()
	assert.False(t, ok)

	// The first sequence is always applied, whatever its value.
	assert.Equal(t, recv.Apply, g.Check(40000))
	last, ok := g.LastSeq()
	assert.True(t, ok)
	assert.Equal(t, uint16(40000), last)
	assert.Equal(t, uint64(0), g.Stats.LostEst)
}

func TestGateVerdicts(t *testing.T) {
	t.Run("next sequence applies with no loss", func(t *testing.T) {
		g := trackingGate(t, 100)
		assert.Equal(t, recv.Apply, g.Check(101))
		assert.Equal(t, uint64(0), g.Stats.LostEst)
		assert.Equal(t, uint64(2), g.Stats.Applied)
	})

	t.Run("repeated sequence is a duplicate", func(t *testing.T) {
		g := trackingGate(t, 100)
		assert.Equal(t, recv.Duplicate, g.Check(100))
		assert.Equal(t, uint64(1), g.Stats.Duplicate)
		last, _ := g.LastSeq()
		assert.Equal(t, uint16(100), last)
	})

	t.Run("older sequence is out of order", func(t *testing.T) {
		g := trackingGate(t, 100)
		assert.Equal(t, recv.OutOfOrder, g.Check(50))
		assert.Equal(t, uint64(1), g.Stats.OutOfOrder)
		last, _ := g.LastSeq()
		assert.Equal(t, uint16(100), last, "gate must not move backwards")
	})

	t.Run("wraparound applies without false loss", func(t *testing.T) {
		g := trackingGate(t, 65535)
		assert.Equal(t, recv.Apply, g.Check(0))
		assert.Equal(t, uint64(0), g.Stats.LostEst)
		assert.Equal(t, uint64(0), g.Stats.OutOfOrder)
	})

	t.Run("gap adds to the loss estimate", func(t *testing.T) {
		g := trackingGate(t, 5)
		assert.Equal(t, recv.Apply, g.Check(200))
		assert.Equal(t, uint64(194), g.Stats.LostEst)
	})

	t.Run("gap across the wrap boundary", func(t *testing.T) {
		g := trackingGate(t, 65534)
		assert.Equal(t, recv.Apply, g.Check(2))
		assert.Equal(t, uint64(3), g.Stats.LostEst)
	})

	t.Run("half range away is out of order", func(t *testing.T) {
		g := trackingGate(t, 0)
		assert.Equal(t, recv.OutOfOrder, g.Check(32768))
	})

	t.Run("just under half range is newer", func(t *testing.T) {
		g := trackingGate(t, 0)
		assert.Equal(t, recv.Apply, g.Check(32767))
	})
}
