package playback

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const idleTestDelay = 30 * time.Millisecond

func newTestIdleUI(playing *atomic.Bool) *idleUI {
	return newIdleUI(idleTestDelay, playing.Load)
}

func TestIdleUIStartsVisible(t *testing.T) {
	var playing atomic.Bool
	ui := newTestIdleUI(&playing)
	defer ui.stop()

	assert.True(t, ui.Visible())
}

func TestIdleUIHidesAfterDelayWhilePlaying(t *testing.T) {
	var playing atomic.Bool
	playing.Store(true)
	ui := newTestIdleUI(&playing)
	defer ui.stop()

	ui.Poke()
	assert.True(t, ui.Visible())

	time.Sleep(3 * idleTestDelay)
	assert.False(t, ui.Visible())
}

func TestIdleUIStaysVisibleWhilePaused(t *testing.T) {
	var playing atomic.Bool
	ui := newTestIdleUI(&playing)
	defer ui.stop()

	ui.Poke()
	time.Sleep(3 * idleTestDelay)
	assert.True(t, ui.Visible())
}

func TestIdleUIPokeRestartsCountdown(t *testing.T) {
	var playing atomic.Bool
	playing.Store(true)
	ui := newTestIdleUI(&playing)
	defer ui.stop()

	ui.Poke()
	for i := 0; i < 4; i++ {
		time.Sleep(idleTestDelay / 3)
		ui.Poke()
	}
	assert.True(t, ui.Visible())

	time.Sleep(3 * idleTestDelay)
	assert.False(t, ui.Visible())
}

func TestIdleUILockSuppressesHide(t *testing.T) {
	var playing atomic.Bool
	playing.Store(true)
	ui := newTestIdleUI(&playing)
	defer ui.stop()

	ui.Poke()
	ui.SetLock(true)
	time.Sleep(3 * idleTestDelay)
	assert.True(t, ui.Visible())

	// clearing the lock restarts the countdown
	ui.SetLock(false)
	assert.True(t, ui.Visible())
	time.Sleep(3 * idleTestDelay)
	assert.False(t, ui.Visible())
}

func TestIdleUIReappearsOnPoke(t *testing.T) {
	var playing atomic.Bool
	playing.Store(true)
	ui := newTestIdleUI(&playing)
	defer ui.stop()

	ui.Poke()
	time.Sleep(3 * idleTestDelay)
	assert.False(t, ui.Visible())

	ui.Poke()
	assert.True(t, ui.Visible())
}

func TestIdleUIPokeAfterStopIsInert(t *testing.T) {
	var playing atomic.Bool
	playing.Store(true)
	ui := newTestIdleUI(&playing)

	ui.Poke()
	ui.stop()

	// controls may still poke on unmount races; no timer must come back
	ui.Poke()
	assert.Nil(t, ui.timer)

	ui.SetLock(false) // clearing a lock pokes too
	assert.Nil(t, ui.timer)
}
