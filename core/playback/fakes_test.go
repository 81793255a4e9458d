package playback

import (
	"context"
	"sync"
)

type fakePlayer struct {
	mu        sync.Mutex
	state     PlayerState
	current   float64
	duration  int
	fraction  float64
	volume    int
	muted     bool
	rate      float64
	width     int
	height    int
	seeks     []int
	destroyed bool
}

var _ Player = (*fakePlayer)(nil)

func (p *fakePlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StatePlaying
}

func (p *fakePlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = StatePaused
}

func (p *fakePlayer) SeekTo(seconds int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = float64(seconds)
	p.seeks = append(p.seeks, seconds)
}

func (p *fakePlayer) SetVolume(level int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = level
}

func (p *fakePlayer) Mute() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = true
}

func (p *fakePlayer) Unmute() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.muted = false
}

func (p *fakePlayer) SetPlaybackRate(rate float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rate = rate
}

func (p *fakePlayer) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *fakePlayer) Duration() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

func (p *fakePlayer) LoadedFraction() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fraction
}

func (p *fakePlayer) State() PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *fakePlayer) SetSize(w, h int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.width, p.height = w, h
}

func (p *fakePlayer) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.destroyed = true
}

func (p *fakePlayer) set(fn func(*fakePlayer)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(p)
}

func (p *fakePlayer) isDestroyed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.destroyed
}

type fakeAPI struct {
	mu       sync.Mutex
	player   *fakePlayer
	events   Events
	newCalls int
}

var _ API = (*fakeAPI)(nil)

func newFakeAPI() *fakeAPI {
	return &fakeAPI{player: &fakePlayer{state: StateUnstarted, fraction: 1}}
}

func (a *fakeAPI) NewPlayer(sourceID string, events Events) (Player, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.newCalls++
	a.events = events
	return a.player, nil
}

func (a *fakeAPI) calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.newCalls
}

func (a *fakeAPI) fireReady() {
	a.mu.Lock()
	onReady, p := a.events.OnReady, a.player
	a.mu.Unlock()
	if onReady != nil {
		onReady(p)
	}
}

func (a *fakeAPI) fireStateChange(state PlayerState) {
	a.mu.Lock()
	onChange, p := a.events.OnStateChange, a.player
	a.mu.Unlock()
	p.set(func(fp *fakePlayer) { fp.state = state })
	if onChange != nil {
		onChange(p, state)
	}
}

type upsertCall struct {
	studentID string
	videoID   string
	watched   int
	completed bool
}

type fakeSink struct {
	mu    sync.Mutex
	calls []upsertCall
	err   error
}

var _ ProgressSink = (*fakeSink)(nil)

func (s *fakeSink) SaveProgress(_ context.Context, studentID, videoID string, watchedSeconds int, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, upsertCall{studentID, videoID, watchedSeconds, completed})
	return s.err
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *fakeSink) last() (upsertCall, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return upsertCall{}, false
	}
	return s.calls[len(s.calls)-1], true
}

type fakeViewport struct {
	mu         sync.Mutex
	width      int
	height     int
	fullscreen bool
	listeners  []ViewportListener
	suppressed int
	filled     int
}

var _ Viewport = (*fakeViewport)(nil)

func newFakeViewport() *fakeViewport {
	return &fakeViewport{width: 1280, height: 720}
}

func (vp *fakeViewport) Bounds() (int, int) {
	vp.mu.Lock()
	defer vp.mu.Unlock()
	return vp.width, vp.height
}

func (vp *fakeViewport) Fullscreen() bool {
	vp.mu.Lock()
	defer vp.mu.Unlock()
	return vp.fullscreen
}

func (vp *fakeViewport) RequestFullscreen() error {
	vp.mu.Lock()
	vp.fullscreen = true
	listeners := append([]ViewportListener(nil), vp.listeners...)
	vp.mu.Unlock()
	for _, l := range listeners {
		l.FullscreenChanged(true)
	}
	return nil
}

func (vp *fakeViewport) ExitFullscreen() error {
	vp.mu.Lock()
	vp.fullscreen = false
	listeners := append([]ViewportListener(nil), vp.listeners...)
	vp.mu.Unlock()
	for _, l := range listeners {
		l.FullscreenChanged(false)
	}
	return nil
}

func (vp *fakeViewport) FillSurface() {
	vp.mu.Lock()
	defer vp.mu.Unlock()
	vp.filled++
}

func (vp *fakeViewport) SuppressContextMenu() func() {
	vp.mu.Lock()
	vp.suppressed++
	vp.mu.Unlock()
	return func() {
		vp.mu.Lock()
		defer vp.mu.Unlock()
		vp.suppressed--
	}
}

func (vp *fakeViewport) Subscribe(l ViewportListener) func() {
	vp.mu.Lock()
	vp.listeners = append(vp.listeners, l)
	vp.mu.Unlock()
	return func() {
		vp.mu.Lock()
		defer vp.mu.Unlock()
		for i, reg := range vp.listeners {
			if reg == l {
				vp.listeners = append(vp.listeners[:i], vp.listeners[i+1:]...)
				break
			}
		}
	}
}

func (vp *fakeViewport) resize(w, h int) {
	vp.mu.Lock()
	vp.width, vp.height = w, h
	listeners := append([]ViewportListener(nil), vp.listeners...)
	vp.mu.Unlock()
	for _, l := range listeners {
		l.ViewportResized()
	}
}

// loadedLoader yields the API immediately.
type loadedLoader struct {
	api API
}

func (l loadedLoader) API() (API, bool) { return l.api, true }
