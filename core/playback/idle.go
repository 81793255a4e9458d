package playback

import (
	"sync"
	"time"
)

// idleUI decides whether the on-screen transport controls are rendered.
// Controls start visible, hide after `delay` without a poke while playback is
// running, and stay visible whenever playback is paused. A lock (an open
// sub-menu) suppresses auto-hide entirely until cleared.
type idleUI struct {
	delay   time.Duration
	playing func() bool

	mu      sync.Mutex
	visible bool
	locked  bool
	stopped bool
	timer   *time.Timer
}

func newIdleUI(delay time.Duration, playing func() bool) *idleUI {
	return &idleUI{
		delay:   delay,
		playing: playing,
		visible: true,
	}
}

// Poke records user activity: it shows the controls and restarts the hide
// countdown. Pokes are ignored while locked.
func (ui *idleUI) Poke() {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	ui.pokeLocked()
}

func (ui *idleUI) pokeLocked() {
	if ui.locked || ui.stopped {
		return
	}
	ui.visible = true
	if ui.timer != nil {
		ui.timer.Stop()
	}
	ui.timer = time.AfterFunc(ui.delay, ui.hide)
}

func (ui *idleUI) hide() {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	// hiding is only permitted mid-playback
	if ui.locked || !ui.playing() {
		return
	}
	ui.visible = false
}

// SetLock toggles the auto-hide suppression. Clearing the lock counts as a
// poke so the countdown restarts from the interaction that closed the menu.
func (ui *idleUI) SetLock(locked bool) {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	ui.locked = locked
	if !locked {
		ui.pokeLocked()
	}
}

// Visible reports whether the controls are rendered. Controls are always
// visible while playback is paused.
func (ui *idleUI) Visible() bool {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	if !ui.playing() {
		return true
	}
	return ui.visible
}

// stop tears the countdown down for good; later pokes are inert.
func (ui *idleUI) stop() {
	ui.mu.Lock()
	defer ui.mu.Unlock()
	ui.stopped = true
	if ui.timer != nil {
		ui.timer.Stop()
		ui.timer = nil
	}
}
