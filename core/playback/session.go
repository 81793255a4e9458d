package playback

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/user"
)

// Rates is the closed set of selectable playback rates.
var Rates = []float64{0.5, 1, 1.25, 1.5, 2}

const (
	defaultReadyPollInterval = 120 * time.Millisecond
	defaultProgressInterval  = time.Second
	defaultBufferInterval    = 500 * time.Millisecond
	defaultIdleHideDelay     = 3 * time.Second

	// minRestoreVolume is the floor applied when unmuting, so unmute is
	// always audible.
	minRestoreVolume = 30
)

// Options identifies what is being watched and by whom.
type Options struct {
	VideoURL        string
	VideoID         string
	UserID          string
	Role            user.Role
	InitialProgress int // seconds, applied once on ready
}

// State is a point-in-time snapshot of the session for rendering.
type State struct {
	Ready      bool
	Playing    bool
	Position   int // seconds
	Duration   int // seconds; 0 while unknown
	Buffered   float64
	Percent    int
	Volume     int
	Muted      bool
	Rate       float64
	Fullscreen bool
	UIVisible  bool
}

// Session is the single source of truth for one mounted player: it issues
// commands to the embedded player, mirrors its callbacks into local state,
// keeps the surface fitted to the viewport, and reports watch progress for
// student viewers. All methods are safe for concurrent use. A Session must
// be Closed when unmounted.
type Session struct {
	conf     core.PlaybackConfig
	opts     Options
	loader   Loader
	viewport Viewport
	sink     ProgressSink
	log      core.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	ui     *idleUI

	mu          sync.Mutex
	player      Player
	ready       bool
	playing     bool
	position    int
	duration    int
	buffered    float64
	volume      int
	preMuteVol  int
	muted       bool
	rate        float64
	fullscreen  bool
	closed      bool
	releaseMenu func()
	releaseView func()
}

var _ ViewportListener = (*Session)(nil)

func NewSession(
	conf core.PlaybackConfig,
	opts Options,
	loader Loader,
	viewport Viewport,
	sink ProgressSink,
	log core.Logger,
) *Session {
	if conf.ReadyPollInterval <= 0 {
		conf.ReadyPollInterval = defaultReadyPollInterval
	}
	if conf.ProgressInterval <= 0 {
		conf.ProgressInterval = defaultProgressInterval
	}
	if conf.BufferInterval <= 0 {
		conf.BufferInterval = defaultBufferInterval
	}
	if conf.IdleHideDelay <= 0 {
		conf.IdleHideDelay = defaultIdleHideDelay
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		conf:       conf,
		opts:       opts,
		loader:     loader,
		viewport:   viewport,
		sink:       BestEffort(sink, log),
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		position:   opts.InitialProgress,
		buffered:   1,
		volume:     100,
		preMuteVol: 100,
		rate:       1,
	}
	s.ui = newIdleUI(conf.IdleHideDelay, s.isPlaying)
	return s
}

// Open starts player initialization. When the video URL carries no playable
// source ID the session stays inert: no player is constructed and no error
// is surfaced.
func (s *Session) Open() {
	sourceID, ok := ExtractSourceID(s.opts.VideoURL)
	if !ok {
		s.log.Debug(fmt.Sprintf("no playable source in %q; player stays inert", s.opts.VideoURL))
		return
	}

	s.mu.Lock()
	s.releaseMenu = s.viewport.SuppressContextMenu()
	s.releaseView = s.viewport.Subscribe(s)
	s.mu.Unlock()

	go s.pollReady(sourceID)
	s.ui.Poke()
}

// pollReady waits for the player library to load and the player instance to
// be constructible, then stops. There is no retry cap: the poll runs until
// it succeeds or the session closes.
func (s *Session) pollReady(sourceID string) {
	t := time.NewTicker(s.conf.ReadyPollInterval)
	defer t.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-t.C:
			api, ok := s.loader.API()
			if !ok {
				continue
			}
			p, err := api.NewPlayer(sourceID, Events{
				OnReady:       s.onReady,
				OnStateChange: s.onStateChange,
			})
			if err != nil {
				continue
			}

			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				p.Destroy()
				return
			}
			s.player = p
			s.mu.Unlock()
			return
		}
	}
}

// onReady establishes initial duration, applies the one-shot initial seek,
// fits the surface, and starts the two lifetime pollers.
func (s *Session) onReady(p Player) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.ready = true
	p.SetVolume(s.volume)
	p.SetPlaybackRate(s.rate)
	if s.opts.InitialProgress > 0 {
		p.SeekTo(s.opts.InitialProgress)
		s.position = s.opts.InitialProgress
	}
	s.duration = p.Duration()
	s.mu.Unlock()

	fitPlayer(p, s.viewport)

	go s.runProgressTicks(p)
	go s.runBufferTicks(p)
	s.ui.Poke()
}

func (s *Session) onStateChange(p Player, state PlayerState) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.playing = state == StatePlaying
	s.mu.Unlock()
	s.ui.Poke()

	// the terminal upsert fires from here, independent of the periodic tick,
	// so an ended video is not lost to tick timing
	if state == StateEnded && s.reportsProgress() {
		cur := int(math.Floor(p.CurrentTime()))
		dur := p.Duration()
		completed := progress.IsCompleted(cur, dur)
		if dur == 0 {
			// duration never became known; ended means watched by policy
			completed = true
		}
		_ = s.sink.SaveProgress(s.ctx, s.opts.UserID, s.opts.VideoID, cur, completed)
	}
}

// runProgressTicks mirrors the playhead and persists student progress once
// per interval for the lifetime of the session.
func (s *Session) runProgressTicks(p Player) {
	t := time.NewTicker(s.conf.ProgressInterval)
	defer t.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-t.C:
			cur := int(math.Floor(p.CurrentTime()))
			dur := p.Duration()

			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				return
			}
			s.position = cur
			if dur > 0 {
				s.duration = dur
			}
			s.mu.Unlock()

			if s.reportsProgress() {
				_ = s.sink.SaveProgress(s.ctx, s.opts.UserID, s.opts.VideoID, cur, progress.IsCompleted(cur, dur))
			}
		}
	}
}

// runBufferTicks mirrors the preloaded fraction for the progress bar.
func (s *Session) runBufferTicks(p Player) {
	t := time.NewTicker(s.conf.BufferInterval)
	defer t.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-t.C:
			frac := p.LoadedFraction()
			if frac < 0 {
				frac = 0
			} else if frac > 1 {
				frac = 1
			}

			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				return
			}
			s.buffered = frac
			s.mu.Unlock()
		}
	}
}

// reportsProgress gates persistence to student viewers.
func (s *Session) reportsProgress() bool {
	switch s.opts.Role {
	case user.RoleStudent:
		return true
	case user.RoleOwner, user.RoleAdministrator, user.RoleSupervisor:
		return false
	}
	return false
}

func (s *Session) isPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// TogglePlay plays or pauses depending on the live player state. No-op until
// the player is ready.
func (s *Session) TogglePlay() {
	s.mu.Lock()
	p := s.player
	s.mu.Unlock()
	if p == nil {
		return
	}

	if p.State() == StatePlaying {
		p.Pause()
	} else {
		p.Play()
	}
	s.ui.Poke()
}

// Seek moves the playhead, updating local position optimistically before the
// player confirms. The player clamps the target to [0, duration].
func (s *Session) Seek(seconds int) {
	if seconds < 0 {
		seconds = 0
	}

	s.mu.Lock()
	s.position = seconds
	p := s.player
	s.mu.Unlock()

	if p != nil {
		p.SeekTo(seconds)
	}
	s.ui.Poke()
}

// SeekByPointerRatio converts a pointer position along the progress track
// into a seek target. No-op while the duration is unknown.
func (s *Session) SeekByPointerRatio(ratio float64) {
	if ratio < 0 {
		ratio = 0
	} else if ratio > 1 {
		ratio = 1
	}

	s.mu.Lock()
	dur := s.duration
	s.mu.Unlock()
	if dur == 0 {
		return
	}
	s.Seek(int(math.Floor(float64(dur) * ratio)))
}

// SetVolume sets the level, clamped to [0,100]. Level 0 implies muted; any
// higher level implies unmuted.
func (s *Session) SetVolume(level int) {
	if level < 0 {
		level = 0
	} else if level > 100 {
		level = 100
	}

	s.mu.Lock()
	s.volume = level
	s.muted = level == 0
	if level > 0 {
		s.preMuteVol = level
	}
	p := s.player
	s.mu.Unlock()

	if p != nil {
		p.SetVolume(level)
		if level > 0 {
			p.Unmute()
		} else {
			p.Mute()
		}
	}
	s.ui.Poke()
}

// ToggleMute mutes (reporting volume 0 to the player while remembering the
// prior level) or unmutes restoring at least minRestoreVolume.
func (s *Session) ToggleMute() {
	s.mu.Lock()
	p := s.player
	if s.muted {
		restored := s.preMuteVol
		if restored < minRestoreVolume {
			restored = minRestoreVolume
		}
		s.muted = false
		s.volume = restored
		s.preMuteVol = restored
		s.mu.Unlock()

		if p != nil {
			p.Unmute()
			p.SetVolume(restored)
		}
	} else {
		s.preMuteVol = s.volume
		s.muted = true
		s.volume = 0
		s.mu.Unlock()

		if p != nil {
			p.Mute()
			p.SetVolume(0)
		}
	}
	s.ui.Poke()
}

// SetPlaybackRate applies one of Rates; out-of-set values are snapped to the
// nearest allowed rate rather than rejected.
func (s *Session) SetPlaybackRate(rate float64) {
	rate = nearestRate(rate)

	s.mu.Lock()
	s.rate = rate
	p := s.player
	s.mu.Unlock()

	if p != nil {
		p.SetPlaybackRate(rate)
	}
	s.ui.Poke()
}

// ToggleFullscreen requests or exits fullscreen on the host viewport. The
// transition is observed asynchronously via FullscreenChanged.
func (s *Session) ToggleFullscreen() {
	var err error
	if s.viewport.Fullscreen() {
		err = s.viewport.ExitFullscreen()
	} else {
		err = s.viewport.RequestFullscreen()
	}
	if err != nil {
		s.log.Debug(fmt.Sprintf("fullscreen transition: %v", err))
	}
	s.ui.Poke()
}

// SetUILock suppresses idle auto-hide while a control sub-menu (such as the
// rate picker) is open.
func (s *Session) SetUILock(locked bool) {
	s.ui.SetLock(locked)
}

// Poke records user activity (pointer movement, click, control interaction)
// and resets the idle-hide countdown.
func (s *Session) Poke() {
	s.ui.Poke()
}

// ViewportResized implements ViewportListener.
func (s *Session) ViewportResized() {
	s.mu.Lock()
	p := s.player
	s.mu.Unlock()
	if p != nil {
		fitPlayer(p, s.viewport)
	}
}

// FullscreenChanged implements ViewportListener.
func (s *Session) FullscreenChanged(fullscreen bool) {
	s.mu.Lock()
	s.fullscreen = fullscreen
	p := s.player
	s.mu.Unlock()
	if p != nil {
		fitPlayer(p, s.viewport)
	}
}

// Snapshot returns the current UI state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	var percent int
	if s.duration > 0 {
		percent = int(math.Round(float64(s.position) / float64(s.duration) * 100))
	}
	st := State{
		Ready:      s.ready,
		Playing:    s.playing,
		Position:   s.position,
		Duration:   s.duration,
		Buffered:   s.buffered,
		Percent:    percent,
		Volume:     s.volume,
		Muted:      s.muted,
		Rate:       s.rate,
		Fullscreen: s.fullscreen,
	}
	s.mu.Unlock()

	st.UIVisible = s.ui.Visible()
	return st
}

// Close tears the session down: it cancels the ready poll, both lifetime
// pollers and the idle-hide timer, releases viewport subscriptions, and
// destroys the player instance. No state mutation or progress write happens
// after Close returns. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	p := s.player
	s.player = nil
	releaseMenu, releaseView := s.releaseMenu, s.releaseView
	s.releaseMenu, s.releaseView = nil, nil
	s.mu.Unlock()

	s.cancel()
	close(s.done)
	s.ui.stop()
	if releaseView != nil {
		releaseView()
	}
	if releaseMenu != nil {
		releaseMenu()
	}
	if p != nil {
		p.Destroy()
	}
}

func nearestRate(rate float64) float64 {
	best := Rates[0]
	for _, r := range Rates[1:] {
		if math.Abs(r-rate) < math.Abs(best-rate) {
			best = r
		}
	}
	return best
}
