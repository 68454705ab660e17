package mirror

import (
	"math"

	"github.com/autosheeeew/ui-inspector/hierarchy"
)

const (
	// maxRenderScale caps magnification at 120% to avoid blur amplification.
	maxRenderScale = 1.2

	// boundsOversizeRatio triggers the fit correction when hierarchy bounds
	// exceed the device logical size by more than 20%. Empirical threshold,
	// tunable; it only needs to separate pixel-space bounds from points-space
	// devices with fractional scale factors.
	boundsOversizeRatio = 1.2

	minFitFactor = 0.1
	maxFitFactor = 2.0
)

// DeviceDescriptor identifies a selected device and its logical resolution
// (points, not pixels). Immutable for the lifetime of a session; replaced
// wholesale on device switch.
type DeviceDescriptor struct {
	Serial   string `json:"serial"`
	Name     string `json:"name,omitempty"`
	Platform string `json:"platform"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// FrameMetadata is the pixel size of the most recently decoded frame. It may
// differ from the device logical size by an integer or fractional
// device-pixel ratio.
type FrameMetadata struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether a frame has actually been decoded.
func (f FrameMetadata) Valid() bool {
	return f.Width > 0 && f.Height > 0
}

// RenderSurfaceSize is the area available to paint the mirrored screen,
// owned by the host UI.
type RenderSurfaceSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is a coordinate pair in whichever space the context implies.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle in render space.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// HierarchyExtent is the tight bounding box over all nodes that declare
// positive-area bounds, in the unit space the hierarchy was reported in.
type HierarchyExtent struct {
	MaxRight  float64
	MaxBottom float64
}

// ExtentOf walks a snapshot and returns the maximum (x+w, y+h) over all
// nodes with positive-area bounds. A nil root yields a zero extent.
func ExtentOf(root *hierarchy.Node) HierarchyExtent {
	var extent HierarchyExtent
	root.Walk(func(n *hierarchy.Node) bool {
		if n.Bounds != nil && n.Bounds.PositiveArea() {
			right := float64(n.Bounds.X + n.Bounds.W)
			bottom := float64(n.Bounds.Y + n.Bounds.H)
			extent.MaxRight = math.Max(extent.MaxRight, right)
			extent.MaxBottom = math.Max(extent.MaxBottom, bottom)
		}
		return true
	})
	return extent
}

// ScaleFactors maps between the four coordinate spaces. RenderScale maps
// device logical space to render surface space; FitX/FitY additionally
// correct hierarchy bounds that were reported in a third unit system.
type ScaleFactors struct {
	RenderScale float64 `json:"renderScale"`
	FitX        float64 `json:"fitX"`
	FitY        float64 `json:"fitY"`
}

// Reconcile computes ScaleFactors from the current device, frame, render
// surface and hierarchy extent. Must be re-run whenever any of the inputs
// change.
func Reconcile(device DeviceDescriptor, frame FrameMetadata, surface RenderSurfaceSize, extent HierarchyExtent) ScaleFactors {
	scale := ScaleFactors{RenderScale: 1, FitX: 1, FitY: 1}

	if device.Width > 0 && device.Height > 0 && surface.Width > 0 && surface.Height > 0 {
		scale.RenderScale = math.Min(
			math.Min(surface.Width/float64(device.Width), surface.Height/float64(device.Height)),
			maxRenderScale,
		)
	}

	// Hierarchy bounds exceeding the device logical size by >20% signal
	// pixel-space bounds on a points-space device. Self-correct using the
	// decoded frame ratio when available, else the extent itself.
	oversizedX := extent.MaxRight > float64(device.Width)*boundsOversizeRatio
	oversizedY := extent.MaxBottom > float64(device.Height)*boundsOversizeRatio
	if oversizedX || oversizedY {
		if frame.Valid() {
			scale.FitX = float64(device.Width) / float64(frame.Width)
			scale.FitY = float64(device.Height) / float64(frame.Height)
		} else {
			if extent.MaxRight > 0 {
				scale.FitX = float64(device.Width) / extent.MaxRight
			}
			if extent.MaxBottom > 0 {
				scale.FitY = float64(device.Height) / extent.MaxBottom
			}
		}
	}

	scale.FitX = clampFit(scale.FitX)
	scale.FitY = clampFit(scale.FitY)
	return scale
}

func clampFit(fit float64) float64 {
	if math.IsNaN(fit) || fit < minFitFactor {
		return minFitFactor
	}
	if fit > maxFitFactor {
		return maxFitFactor
	}
	return fit
}

// DeviceToRender maps a point from hierarchy/device space into render space,
// applying the fit correction and the render scale.
func (s ScaleFactors) DeviceToRender(p Point) Point {
	return Point{
		X: p.X * s.FitX * s.RenderScale,
		Y: p.Y * s.FitY * s.RenderScale,
	}
}

// BoundsToRender maps hierarchy bounds into a render-space rectangle for
// overlay drawing.
func (s ScaleFactors) BoundsToRender(b hierarchy.Bounds) Rect {
	return Rect{
		X: float64(b.X) * s.FitX * s.RenderScale,
		Y: float64(b.Y) * s.FitY * s.RenderScale,
		W: float64(b.W) * s.FitX * s.RenderScale,
		H: float64(b.H) * s.FitY * s.RenderScale,
	}
}

// RenderToDevice maps a pointer position back into device logical space.
// The fit factor is deliberately not applied: pointer input arrives in
// render space and must map to device logical space, not hierarchy space.
func (s ScaleFactors) RenderToDevice(p Point) Point {
	if s.RenderScale <= 0 {
		return p
	}
	return Point{
		X: p.X / s.RenderScale,
		Y: p.Y / s.RenderScale,
	}
}

// RenderToFramePixel maps a pointer position into frame-pixel coordinates,
// bypassing logical space. Used for hit-testing once a frame has been
// decoded, since the device bridge expects frame-pixel coordinates matching
// the hierarchy's bounds space. Before the first frame, callers fall back to
// RenderToDevice.
func RenderToFramePixel(p Point, frame FrameMetadata, surface RenderSurfaceSize) Point {
	if !frame.Valid() || surface.Width <= 0 || surface.Height <= 0 {
		return p
	}
	return Point{
		X: p.X * float64(frame.Width) / surface.Width,
		Y: p.Y * float64(frame.Height) / surface.Height,
	}
}
