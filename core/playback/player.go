package playback

import "sync"

// PlayerState mirrors the embedded player's numeric state codes.
type PlayerState int

const (
	StateUnstarted PlayerState = -1
	StateEnded     PlayerState = 0
	StatePlaying   PlayerState = 1
	StatePaused    PlayerState = 2
	StateBuffering PlayerState = 3
	StateCued      PlayerState = 5
)

// Player is the imperative control surface of an embedded player instance.
// Implementations bridge to the third-party player API; all methods must be
// safe to call from any goroutine once the instance is ready.
type Player interface {
	Play()
	Pause()
	SeekTo(seconds int)
	SetVolume(level int) // 0..100
	Mute()
	Unmute()
	SetPlaybackRate(rate float64)

	CurrentTime() float64
	Duration() int // 0 while unknown
	LoadedFraction() float64
	State() PlayerState

	SetSize(width, height int)
	Destroy()
}

// Events are the lifecycle callbacks fired by an embedded player instance.
type Events struct {
	OnReady       func(Player)
	OnStateChange func(Player, PlayerState)
}

// API is the loaded third-party player library; it constructs player
// instances bound to the host surface.
type API interface {
	NewPlayer(sourceID string, events Events) (Player, error)
}

// Loader reports availability of the player library. The library loads
// asynchronously; sessions poll Loader until it yields an API.
type Loader interface {
	// API triggers the load on first call and reports the library once it
	// has finished loading. It never blocks.
	API() (API, bool)
}

// SharedLoader is a process-wide load gate: many sessions may poll it
// concurrently, the underlying load runs exactly once and its result is
// shared by all of them.
type SharedLoader struct {
	load func() (API, error)

	once sync.Once
	mu   sync.Mutex
	api  API
	err  error
}

var _ Loader = (*SharedLoader)(nil)

func NewSharedLoader(load func() (API, error)) *SharedLoader {
	return &SharedLoader{load: load}
}

func (l *SharedLoader) API() (API, bool) {
	l.once.Do(func() {
		go func() {
			api, err := l.load()
			l.mu.Lock()
			l.api, l.err = api, err
			l.mu.Unlock()
		}()
	})

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil || l.api == nil {
		return nil, false
	}
	return l.api, true
}
