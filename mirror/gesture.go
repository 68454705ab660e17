package mirror

import (
	"math"
	"time"
)

const (
	// swipeThreshold is the pointer travel (render pixels) beyond which a
	// press resolves as a swipe instead of a tap. Strictly greater-than:
	// travel of exactly the threshold is still a tap.
	swipeThreshold = 20.0

	// DefaultSwipeDuration is attached to every recognized swipe.
	DefaultSwipeDuration = 300 * time.Millisecond
)

// GestureKind discriminates resolved gestures.
type GestureKind int

const (
	GestureTap GestureKind = iota
	GestureSwipe
)

func (k GestureKind) String() string {
	switch k {
	case GestureTap:
		return "tap"
	case GestureSwipe:
		return "swipe"
	default:
		return "unknown"
	}
}

// Gesture is a resolved pointer interaction. Start and End are in the
// coordinate space the caller supplied on pointer-down/up (device logical or
// frame pixel). End and Duration are only meaningful for swipes.
type Gesture struct {
	Kind     GestureKind
	Start    Point
	End      Point
	Duration time.Duration
}

// PendingGesture marks a press in progress. Its presence is the sole
// discriminator between "no gesture" and "gesture in progress".
type PendingGesture struct {
	StartDevice Point
	StartRender Point
}

// SwipePreview is transient visual feedback while the pointer is dragged
// past the swipe threshold. Points are in render space.
type SwipePreview struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// GestureRecognizer classifies pointer-down/move/up sequences into taps and
// swipes. It holds no locks; the owning controller serializes access.
type GestureRecognizer struct {
	interactive bool
	pending     *PendingGesture
	preview     *SwipePreview
}

func NewGestureRecognizer() *GestureRecognizer {
	return &GestureRecognizer{}
}

// SetInteractive enables or disables gesture capture. Disabling clears any
// pending gesture and preview.
func (g *GestureRecognizer) SetInteractive(on bool) {
	g.interactive = on
	if !on {
		g.pending = nil
		g.preview = nil
	}
}

func (g *GestureRecognizer) Interactive() bool {
	return g.interactive
}

// Pending reports whether a press is currently unresolved.
func (g *GestureRecognizer) Pending() bool {
	return g.pending != nil
}

// PointerDown captures the press origin in both render space and the
// dispatch target space. Ignored outside interactive mode.
func (g *GestureRecognizer) PointerDown(render, device Point) {
	if !g.interactive {
		return
	}
	g.pending = &PendingGesture{StartDevice: device, StartRender: render}
	g.preview = nil
}

// PointerMove updates the transient swipe preview. It returns the preview
// when the pointer has traveled past the threshold, nil otherwise. State is
// unchanged either way.
func (g *GestureRecognizer) PointerMove(render Point) *SwipePreview {
	if g.pending == nil {
		return nil
	}

	if distance(render, g.pending.StartRender) > swipeThreshold {
		g.preview = &SwipePreview{Start: g.pending.StartRender, End: render}
	} else {
		g.preview = nil
	}
	return g.preview
}

// PointerLeave clears the swipe preview. The pending gesture survives: a
// later pointer-up still resolves it if the host delivers one.
func (g *GestureRecognizer) PointerLeave() {
	g.preview = nil
}

// PointerUp resolves the pending gesture. Travel at or under the threshold
// is a tap at the press origin; anything farther is a swipe from origin to
// release point with the default duration. Returns false when no gesture was
// pending.
func (g *GestureRecognizer) PointerUp(render, device Point) (Gesture, bool) {
	pending := g.pending
	g.pending = nil
	g.preview = nil

	if pending == nil {
		return Gesture{}, false
	}

	if distance(render, pending.StartRender) > swipeThreshold {
		return Gesture{
			Kind:     GestureSwipe,
			Start:    pending.StartDevice,
			End:      device,
			Duration: DefaultSwipeDuration,
		}, true
	}

	return Gesture{Kind: GestureTap, Start: pending.StartDevice}, true
}

// Abandon drops any pending gesture and preview. Called on session teardown
// and device switch, when a matching pointer-up will never arrive.
func (g *GestureRecognizer) Abandon() {
	g.pending = nil
	g.preview = nil
}

func distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
