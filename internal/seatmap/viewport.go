package seatmap

import "math"

// Zoom limits and step factors.
const (
	MinScale = 0.5
	MaxScale = 5.0

	wheelZoomIn   = 1.1
	wheelZoomOut  = 0.9
	buttonZoomIn  = 1.2
	buttonZoomOut = 0.8

	// FocusScale is the scale applied when a section is focused from the
	// section tier.
	FocusScale = 2.0
)

// Transform maps venue coordinates to screen pixels:
// screen = world*Scale + (X, Y).
type Transform struct {
	Scale float64 `json:"scale" msgpack:"scale"`
	X     float64 `json:"x" msgpack:"x"`
	Y     float64 `json:"y" msgpack:"y"`
}

// Identity is the transform before any layout measurement.
var Identity = Transform{Scale: 1}

// ScreenToWorld converts a screen point into venue coordinates.
func (t Transform) ScreenToWorld(sx, sy float64) (float64, float64) {
	return (sx - t.X) / t.Scale, (sy - t.Y) / t.Scale
}

// WorldToScreen converts a venue point into screen coordinates.
func (t Transform) WorldToScreen(wx, wy float64) (float64, float64) {
	return wx*t.Scale + t.X, wy*t.Scale + t.Y
}

// Viewport owns the pan/zoom transform of one seat map and updates it
// from wheel, drag and button input.  It is not safe for concurrent use;
// callers serialize input (see session.Session).
type Viewport struct {
	t      Transform
	width  float64
	height float64

	dragging     bool
	lastX, lastY float64

	focus    string
	onChange func(Transform, Tier)
}

// NewViewport returns a viewport at scale 1 with no measured size.
func NewViewport() *Viewport {
	return &Viewport{t: Identity}
}

// OnChange registers fn to be called after every transform change with
// the new transform and its detail tier.
func (v *Viewport) OnChange(fn func(Transform, Tier)) { v.onChange = fn }

// Transform returns the current transform.
func (v *Viewport) Transform() Transform { return v.t }

// Tier returns the detail tier for the current scale.
func (v *Viewport) Tier() Tier { return DetailTier(v.t.Scale) }

// Size returns the last measured viewport size in pixels.
func (v *Viewport) Size() (float64, float64) { return v.width, v.height }

// Focus returns the ID of the focused section, if any.
func (v *Viewport) Focus() string { return v.focus }

// Dragging reports whether a drag pan is in progress.
func (v *Viewport) Dragging() bool { return v.dragging }

// Resize records the container size and re-centres the translation on
// the new centre.  Scale is kept.  Negative or non-finite sizes are
// treated as zero.
func (v *Viewport) Resize(width, height float64) {
	v.width, v.height = math.Max(0, finiteOr(width, 0)), math.Max(0, finiteOr(height, 0))
	v.set(Transform{Scale: v.t.Scale, X: v.width / 2, Y: v.height / 2})
}

// Wheel zooms by one wheel step anchored at the cursor (cx, cy) so the
// venue point under the cursor stays put.  A negative delta zooms in, a
// positive one zooms out.
func (v *Viewport) Wheel(delta, cx, cy float64) {
	if delta == 0 {
		return
	}
	factor := wheelZoomOut
	if delta < 0 {
		factor = wheelZoomIn
	}
	old := v.t
	scale := clampScale(old.Scale * factor)
	ratio := scale / old.Scale
	v.set(Transform{
		Scale: scale,
		X:     cx - (cx-old.X)*ratio,
		Y:     cy - (cy-old.Y)*ratio,
	})
}

// Restore applies a previously captured transform, clamping its scale.
// A non-positive or non-finite scale resets to 1 and a non-finite
// translation component becomes 0.
func (v *Viewport) Restore(t Transform) {
	if t.Scale <= 0 {
		t.Scale = 1
	}
	t.Scale = clampScale(t.Scale)
	t.X, t.Y = finiteOr(t.X, 0), finiteOr(t.Y, 0)
	v.set(t)
}

// PointerDown starts a drag pan at (x, y).
func (v *Viewport) PointerDown(x, y float64) {
	v.dragging = true
	v.lastX, v.lastY = x, y
}

// PointerMove pans by the delta from the last recorded pointer position
// while a drag is in progress.
func (v *Viewport) PointerMove(x, y float64) {
	if !v.dragging {
		return
	}
	dx, dy := x-v.lastX, y-v.lastY
	v.lastX, v.lastY = x, y
	if dx == 0 && dy == 0 {
		return
	}
	v.set(Transform{Scale: v.t.Scale, X: v.t.X + dx, Y: v.t.Y + dy})
}

// PointerUp ends a drag.
func (v *Viewport) PointerUp() { v.dragging = false }

// PointerLeave ends a drag when the pointer leaves the element.
func (v *Viewport) PointerLeave() { v.dragging = false }

// ZoomIn scales by the button zoom-in factor (1.2), keeping the translation.
func (v *Viewport) ZoomIn() {
	v.set(Transform{Scale: clampScale(v.t.Scale * buttonZoomIn), X: v.t.X, Y: v.t.Y})
}

// ZoomOut scales by the button zoom-out factor (0.8), keeping the translation.
func (v *Viewport) ZoomOut() {
	v.set(Transform{Scale: clampScale(v.t.Scale * buttonZoomOut), X: v.t.X, Y: v.t.Y})
}

// Reset returns to scale 1 centred in the viewport and clears focus.
func (v *Viewport) Reset() {
	v.focus = ""
	v.set(Transform{Scale: 1, X: v.width / 2, Y: v.height / 2})
}

// FocusSection zooms to FocusScale and centres the venue point (x, y),
// the focused section's position, in the viewport.
func (v *Viewport) FocusSection(id string, x, y float64) {
	v.focus = id
	v.set(Transform{
		Scale: FocusScale,
		X:     v.width/2 - x*FocusScale,
		Y:     v.height/2 - y*FocusScale,
	})
}

func (v *Viewport) set(t Transform) {
	v.t = t
	if v.onChange != nil {
		v.onChange(t, DetailTier(t.Scale))
	}
}

func clampScale(s float64) float64 {
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 1
	}
	return math.Min(MaxScale, math.Max(MinScale, s))
}

func finiteOr(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}
