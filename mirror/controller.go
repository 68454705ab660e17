// Package mirror is the remote screen mirroring engine: it owns the stream
// session lifecycle, reconciles the four coordinate spaces (device logical,
// frame pixel, render surface, hierarchy bounds), classifies pointer input
// into taps and swipes, and derives interactive-element overlays from
// hierarchy snapshots. Rendering is a subscriber; the engine is a pure
// state-and-event core.
package mirror

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/autosheeeew/ui-inspector/backend"
	"github.com/autosheeeew/ui-inspector/hierarchy"
	"github.com/autosheeeew/ui-inspector/utils"
)

// snapshotCacheSize bounds the per-serial hierarchy snapshot cache.
const snapshotCacheSize = 8

const (
	gestureDispatchTimeout = 10 * time.Second
	streamStopTimeout      = 5 * time.Second
)

// Events is the subscriber interface for engine output. Callbacks are
// invoked outside the controller's lock, but frame, scale and overlay
// callbacks for one session are serialized with respect to each other.
// Frame bytes must not be retained past OnFrame: the buffer is released
// when the next frame replaces it.
type Events interface {
	OnFrame(frame *Frame)
	OnScaleChanged(scale ScaleFactors)
	OnOverlays(overlays []OverlayDescriptor)
	OnGestureResolved(gesture Gesture, err error)
	OnSessionState(serial string, state SessionState)
}

// NopEvents implements Events with no-ops, for embedding.
type NopEvents struct{}

func (NopEvents) OnFrame(*Frame)                      {}
func (NopEvents) OnScaleChanged(ScaleFactors)         {}
func (NopEvents) OnOverlays([]OverlayDescriptor)      {}
func (NopEvents) OnGestureResolved(Gesture, error)    {}
func (NopEvents) OnSessionState(string, SessionState) {}

// Controller composes the session manager, coordinate reconciler, gesture
// recognizer and element extractor into one mirror surface. All mutable
// state (scale factors, pending gesture, current frame, overlay list) is
// owned here and mutated only behind the controller's lock, which stands in
// for the single-threaded event queue of the host UI.
type Controller struct {
	api      *backend.Client
	sessions *SessionManager
	events   Events

	mu         sync.Mutex
	device     *DeviceDescriptor
	handle     SessionHandle
	recognizer *GestureRecognizer
	current    *Frame
	delivering *Frame
	frame      FrameMetadata
	surface    RenderSurfaceSize
	scale      ScaleFactors
	snapshot   *hierarchy.Snapshot
	extent     HierarchyExtent
	overlays   []OverlayDescriptor
	cache      *lru.Cache[string, *hierarchy.Snapshot]
}

// NewController wires an engine against the given backend. A nil events
// subscriber is replaced with NopEvents. reconnectDelay <= 0 selects the
// default stream backoff.
func NewController(api *backend.Client, events Events, reconnectDelay time.Duration) *Controller {
	if events == nil {
		events = NopEvents{}
	}

	// lru.New only fails for size < 1
	cache, _ := lru.New[string, *hierarchy.Snapshot](snapshotCacheSize)

	c := &Controller{
		api:        api,
		events:     events,
		recognizer: NewGestureRecognizer(),
		scale:      ScaleFactors{RenderScale: 1, FitX: 1, FitY: 1},
		cache:      cache,
	}

	c.sessions = NewSessionManager(api.StreamURL, reconnectDelay)
	c.sessions.OnFrame(c.handleFrame)
	c.sessions.OnState(c.handleState)
	return c
}

// Sessions exposes the underlying session manager, mainly for state queries.
func (c *Controller) Sessions() *SessionManager {
	return c.sessions
}

// SelectDevice fetches the device descriptor and starts mirroring it. When a
// different device is already mirrored, its session is force-closed first
// (the new transport opens only after the old close is acknowledged), any
// pending gesture is abandoned, and the backend is asked to release the old
// device's streaming resources best-effort.
func (c *Controller) SelectDevice(ctx context.Context, serial string) error {
	info, err := c.api.DeviceInfo(ctx, serial)
	if err != nil {
		return fmt.Errorf("failed to select device %s: %w", serial, err)
	}

	c.mu.Lock()
	if c.device != nil && c.device.Serial != serial {
		previous := c.device.Serial
		c.recognizer.Abandon()
		c.releaseFrameLocked()
		c.snapshot = nil
		c.overlays = nil
		c.frame = FrameMetadata{}
		c.extent = HierarchyExtent{}
		c.sessions.ForceClose(c.handle)
		go c.stopStream(previous)
	}

	c.device = &DeviceDescriptor{
		Serial:   info.Serial,
		Name:     info.Model,
		Platform: info.Platform,
		Width:    info.Width,
		Height:   info.Height,
	}

	// warm start from the snapshot cache so overlays reappear before the
	// first refresh completes
	if snap, ok := c.cache.Get(serial); ok {
		c.snapshot = snap
		c.extent = ExtentOf(snap.Root)
		c.overlays = ExtractInteractive(snap.Root)
	}

	c.handle = c.sessions.Open(serial)
	c.reconcileLocked()
	scale := c.scale
	overlays := cloneOverlays(c.overlays)
	c.mu.Unlock()

	c.events.OnScaleChanged(scale)
	c.events.OnOverlays(overlays)
	return nil
}

// SetRenderSurface records the paint area owned by the host UI and
// recomputes scale factors. Called on every container resize.
func (c *Controller) SetRenderSurface(width, height float64) {
	c.mu.Lock()
	c.surface = RenderSurfaceSize{Width: width, Height: height}
	changed := c.reconcileLocked()
	scale := c.scale
	c.mu.Unlock()

	if changed {
		c.events.OnScaleChanged(scale)
	}
}

// RefreshHierarchy dumps a fresh snapshot from the backend, replaces the
// current one wholesale, recomputes scale and overlays and emits both.
// With no device selected this is a warning no-op.
func (c *Controller) RefreshHierarchy(ctx context.Context) error {
	c.mu.Lock()
	device := c.device
	c.mu.Unlock()

	if device == nil {
		utils.Warn("hierarchy refresh requested with no device selected")
		return nil
	}

	dump, err := c.api.DumpHierarchy(ctx, device.Serial)
	if err != nil {
		// command failure: surfaced to the operator, session unaffected
		return err
	}
	snap := dump.Snapshot()
	if snap == nil {
		return fmt.Errorf("hierarchy dump for %s returned no tree", device.Serial)
	}

	c.mu.Lock()
	if c.device == nil || c.device.Serial != device.Serial {
		// device switched while the dump was in flight
		c.mu.Unlock()
		return nil
	}
	c.cache.Add(device.Serial, snap)
	c.snapshot = snap
	c.extent = ExtentOf(snap.Root)
	changed := c.reconcileLocked()
	c.overlays = ExtractInteractive(snap.Root)
	scale := c.scale
	overlays := cloneOverlays(c.overlays)
	c.mu.Unlock()

	if changed {
		c.events.OnScaleChanged(scale)
	}
	c.events.OnOverlays(overlays)
	return nil
}

// SetInteractive toggles gesture capture. Disabling clears any pending
// gesture and swipe preview.
func (c *Controller) SetInteractive(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recognizer.SetInteractive(on)
}

// Interactive reports whether gesture capture is enabled.
func (c *Controller) Interactive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recognizer.Interactive()
}

// PointerDown begins a gesture at a render-surface position.
func (c *Controller) PointerDown(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		utils.Verbose("pointer down with no device selected, ignoring")
		return
	}
	render := Point{X: x, Y: y}
	c.recognizer.PointerDown(render, c.pointerTargetLocked(render))
}

// PointerMove updates the swipe preview; the returned preview (if any) is in
// render space and is purely visual feedback.
func (c *Controller) PointerMove(x, y float64) *SwipePreview {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recognizer.PointerMove(Point{X: x, Y: y})
}

// PointerLeave clears the swipe preview without cancelling a pending gesture.
func (c *Controller) PointerLeave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recognizer.PointerLeave()
}

// PointerUp resolves the pending gesture and dispatches the resulting tap or
// swipe to the device, fire-and-forget: the dispatch result is reported via
// OnGestureResolved but never affects recognizer or session state.
func (c *Controller) PointerUp(x, y float64) {
	c.mu.Lock()
	if c.device == nil {
		c.mu.Unlock()
		return
	}
	render := Point{X: x, Y: y}
	gesture, ok := c.recognizer.PointerUp(render, c.pointerTargetLocked(render))
	serial := c.device.Serial
	c.mu.Unlock()

	if !ok {
		return
	}
	go c.dispatchGesture(serial, gesture)
}

// ElementAt looks up the element under a render-surface position via the
// backend, converting through frame-pixel space when a frame is available.
func (c *Controller) ElementAt(ctx context.Context, x, y float64) (*backend.ElementResult, error) {
	c.mu.Lock()
	if c.device == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("no device selected")
	}
	serial := c.device.Serial
	target := c.pointerTargetLocked(Point{X: x, Y: y})
	c.mu.Unlock()

	return c.api.FindByCoordinate(ctx, serial, roundInt(target.X), roundInt(target.Y))
}

// ElementByPath looks up an element by its node path within the hierarchy.
func (c *Controller) ElementByPath(ctx context.Context, path []int) (*backend.ElementResult, error) {
	c.mu.Lock()
	if c.device == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("no device selected")
	}
	serial := c.device.Serial
	c.mu.Unlock()

	return c.api.ElementInfo(ctx, serial, path)
}

// Device returns a copy of the selected device descriptor, or nil.
func (c *Controller) Device() *DeviceDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.device == nil {
		return nil
	}
	device := *c.device
	return &device
}

// Scale returns the current scale factors.
func (c *Controller) Scale() ScaleFactors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scale
}

// Overlays returns a copy of the current overlay list, in paint order.
func (c *Controller) Overlays() []OverlayDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneOverlays(c.overlays)
}

// Snapshot returns the current hierarchy snapshot, or nil.
func (c *Controller) Snapshot() *hierarchy.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Close tears the mirror surface down: abandons any pending gesture,
// releases the live frame buffer, force-closes the session and asks the
// backend to stop the upstream stream.
func (c *Controller) Close() {
	c.mu.Lock()
	c.recognizer.Abandon()
	serial := ""
	if c.device != nil {
		serial = c.device.Serial
	}
	c.device = nil
	c.snapshot = nil
	c.overlays = nil
	c.frame = FrameMetadata{}
	c.extent = HierarchyExtent{}
	c.releaseFrameLocked()
	handle := c.handle
	c.handle = SessionHandle{}
	c.mu.Unlock()

	c.sessions.ForceClose(handle)
	if serial != "" {
		c.stopStream(serial)
	}
}

// handleFrame installs a decoded frame as the single live buffer, releasing
// the previous one, and recomputes scale when the frame size changed.
// Frames tagged with a superseded handle are dropped silently. While the
// frame is with the subscriber it is marked in-flight; a teardown in that
// window detaches it from the controller without releasing the buffer, and
// the release happens here once OnFrame returns.
func (c *Controller) handleFrame(h SessionHandle, frame *Frame) {
	c.mu.Lock()
	if h != c.handle {
		c.mu.Unlock()
		frame.Release()
		return
	}

	if c.current != nil && c.current != c.delivering {
		c.current.Release()
	}
	c.current = frame
	c.delivering = frame

	scaleChanged := false
	meta := frame.Metadata()
	if meta != c.frame {
		c.frame = meta
		scaleChanged = c.reconcileLocked()
	}
	scale := c.scale
	c.mu.Unlock()

	if scaleChanged {
		c.events.OnScaleChanged(scale)
	}
	c.events.OnFrame(frame)

	c.mu.Lock()
	if c.delivering == frame {
		c.delivering = nil
	}
	if c.current != frame {
		// detached mid-delivery by Close or a device switch
		frame.Release()
	}
	c.mu.Unlock()
}

func (c *Controller) handleState(serial string, state SessionState) {
	c.events.OnSessionState(serial, state)
}

// reconcileLocked recomputes scale factors from current inputs and reports
// whether they changed.
func (c *Controller) reconcileLocked() bool {
	device := DeviceDescriptor{}
	if c.device != nil {
		device = *c.device
	}
	scale := Reconcile(device, c.frame, c.surface, c.extent)
	if scale == c.scale {
		return false
	}
	c.scale = scale
	return true
}

// pointerTargetLocked converts a render-space point into the space the
// device bridge expects: frame pixels once a frame has been decoded, device
// logical coordinates before that.
func (c *Controller) pointerTargetLocked(p Point) Point {
	if c.frame.Valid() {
		return RenderToFramePixel(p, c.frame, c.surface)
	}
	return c.scale.RenderToDevice(p)
}

func (c *Controller) dispatchGesture(serial string, gesture Gesture) {
	ctx, cancel := context.WithTimeout(context.Background(), gestureDispatchTimeout)
	defer cancel()

	var err error
	switch gesture.Kind {
	case GestureTap:
		err = c.api.Tap(ctx, serial, roundInt(gesture.Start.X), roundInt(gesture.Start.Y))
	case GestureSwipe:
		err = c.api.Swipe(ctx, serial,
			roundInt(gesture.Start.X), roundInt(gesture.Start.Y),
			roundInt(gesture.End.X), roundInt(gesture.End.Y),
			int(gesture.Duration.Milliseconds()))
	}

	if err != nil {
		utils.Warn("%s dispatch on %s failed: %v", gesture.Kind, serial, err)
	}
	c.events.OnGestureResolved(gesture, err)
}

// stopStream is the best-effort stream-stop command: failures are logged,
// never re-raised.
func (c *Controller) stopStream(serial string) {
	ctx, cancel := context.WithTimeout(context.Background(), streamStopTimeout)
	defer cancel()

	if err := c.api.StopStream(ctx, serial); err != nil {
		utils.Verbose("stream stop for %s: %v", serial, err)
	}
}

// releaseFrameLocked drops the live frame. A frame the subscriber is still
// consuming is only detached; its delivering goroutine releases the buffer
// after OnFrame returns.
func (c *Controller) releaseFrameLocked() {
	if c.current == nil {
		return
	}
	if c.current != c.delivering {
		c.current.Release()
	}
	c.current = nil
}

func cloneOverlays(overlays []OverlayDescriptor) []OverlayDescriptor {
	if overlays == nil {
		return nil
	}
	return append([]OverlayDescriptor(nil), overlays...)
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
