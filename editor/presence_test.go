package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceKeepsOnlyLatestValue(t *testing.T) {
	var slot presenceSlot

	slot.SetCursorPos(Vec2{X: 1, Y: 1})
	slot.SetCursorPos(Vec2{X: 2, Y: 2})
	slot.SetCursorPos(Vec2{X: 3, Y: 3})

	state := slot.Load()
	require.NotNil(t, state)
	assert.Equal(t, Vec2{X: 3, Y: 3}, *state.CursorPos)
}

func TestPresencePreservesOtherFieldAcrossUpdates(t *testing.T) {
	var slot presenceSlot

	slot.SetCursorPos(Vec2{X: 10, Y: 20})
	slot.SetCurrentTime(4200)

	state := slot.Load()
	require.NotNil(t, state)
	require.NotNil(t, state.CursorPos)
	assert.Equal(t, Vec2{X: 10, Y: 20}, *state.CursorPos)
	assert.Equal(t, 4200, state.CurrentTime)

	slot.SetCursorPos(Vec2{X: 11, Y: 21})
	state = slot.Load()
	assert.Equal(t, 4200, state.CurrentTime)
	assert.Equal(t, Vec2{X: 11, Y: 21}, *state.CursorPos)
}

func TestPresenceStartsEmpty(t *testing.T) {
	var slot presenceSlot
	assert.Nil(t, slot.Load())
}

func TestCollectUserTicksOmitsSilentMembers(t *testing.T) {
	alice := newTestClient(1, "alice")
	bob := newTestClient(2, "bob")
	carol := newTestClient(3, "carol")

	alice.presence.SetCursorPos(Vec2{X: 5, Y: 5})
	alice.presence.SetCurrentTime(1000)
	carol.presence.SetCurrentTime(2000)

	ticks := collectUserTicks([]*Client{alice, bob, carol})

	require.Len(t, ticks, 2)
	assert.Equal(t, 1, ticks[0].Id)
	require.NotNil(t, ticks[0].CursorPos)
	assert.Equal(t, Vec2{X: 5, Y: 5}, *ticks[0].CursorPos)
	assert.Equal(t, 1000, ticks[0].CurrentTime)

	// bob never reported anything, so he does not appear at all
	assert.Equal(t, 3, ticks[1].Id)
	assert.Nil(t, ticks[1].CursorPos)
	assert.Equal(t, 2000, ticks[1].CurrentTime)
}
