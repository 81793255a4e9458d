package playback

// ViewportListener receives host-surface notifications. A Session subscribes
// itself for the lifetime of its player.
type ViewportListener interface {
	ViewportResized()
	FullscreenChanged(fullscreen bool)
}

// Viewport is the rectangular host surface the embedded player renders into.
// Implementations bridge to the host environment (a browser container
// element, a native view, a test fake).
type Viewport interface {
	// Bounds returns the current pixel box of the surface.
	Bounds() (width, height int)

	Fullscreen() bool
	RequestFullscreen() error
	ExitFullscreen() error

	// FillSurface forces the embedded rendering surface to absolutely fill
	// the viewport: zero border, 100% width/height, absolute positioning.
	FillSurface()

	// SuppressContextMenu intercepts context-menu input over the surface,
	// both locally and at the document level so the interception holds in
	// fullscreen. The returned release undoes the interception.
	SuppressContextMenu() (release func())

	// Subscribe registers a listener for resize and fullscreen transitions.
	// The returned release unregisters it.
	Subscribe(l ViewportListener) (release func())
}

// fitPlayer commands the embedded player to match the viewport's pixel box
// and re-asserts that its surface fills the viewport. A degenerate box is
// clamped to 1x1 rather than skipped so the player never holds a stale size.
func fitPlayer(p Player, vp Viewport) {
	w, h := vp.Bounds()
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	p.SetSize(w, h)
	vp.FillSurface()
}
