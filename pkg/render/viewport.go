package render

import (
	"time"

	"github.com/vanderheijden86/conceptgraph/pkg/model"
)

// Zoom scale extent.
const (
	MinScale = 0.1
	MaxScale = 4
)

// Transform maps world coordinates to surface coordinates: p*K + (X, Y).
type Transform struct {
	K, X, Y float64
}

// Identity is the untransformed view.
var Identity = Transform{K: 1}

// Apply maps a world point to the surface.
func (t Transform) Apply(p model.Point) model.Point {
	return model.Point{X: p.X*t.K + t.X, Y: p.Y*t.K + t.Y}
}

// Invert maps a surface point back to world coordinates.
func (t Transform) Invert(p model.Point) model.Point {
	return model.Point{X: (p.X - t.X) / t.K, Y: (p.Y - t.Y) / t.K}
}

func clampScale(k float64) float64 {
	switch {
	case k < MinScale:
		return MinScale
	case k > MaxScale:
		return MaxScale
	}
	return k
}

// Viewport is the animated pan/zoom camera of a mounted graph.
type Viewport struct {
	cur Transform

	animating bool
	from, to  Transform
	start     time.Time
	dur       time.Duration
}

// NewViewport starts at the identity transform.
func NewViewport() *Viewport {
	return &Viewport{cur: Identity}
}

// Transform returns the current transform.
func (v *Viewport) Transform() Transform { return v.cur }

// Set jumps to t, cancelling any animation. The scale is clamped to the
// extent.
func (v *Viewport) Set(t Transform) {
	t.K = clampScale(t.K)
	v.cur = t
	v.animating = false
}

// AnimateTo transitions from the current transform to t over dur.
func (v *Viewport) AnimateTo(t Transform, now time.Time, dur time.Duration) {
	t.K = clampScale(t.K)
	if dur <= 0 {
		v.Set(t)
		return
	}
	v.from, v.to = v.cur, t
	v.start, v.dur = now, dur
	v.animating = true
}

// Target returns where the camera is heading (the current transform when
// idle).
func (v *Viewport) Target() Transform {
	if v.animating {
		return v.to
	}
	return v.cur
}

// Animating reports whether a camera transition is running.
func (v *Viewport) Animating() bool { return v.animating }

// Advance progresses the camera transition and reports whether it is still
// running.
func (v *Viewport) Advance(now time.Time) bool {
	if !v.animating {
		return false
	}
	t := float64(now.Sub(v.start)) / float64(v.dur)
	if t >= 1 {
		v.cur = v.to
		v.animating = false
		return false
	}
	if t < 0 {
		t = 0
	}
	e := easeCubicInOut(t)
	v.cur = Transform{
		K: lerp(v.from.K, v.to.K, e),
		X: lerp(v.from.X, v.to.X, e),
		Y: lerp(v.from.Y, v.to.Y, e),
	}
	return true
}

// ZoomAt scales by factor keeping the surface point at fixed.
func (v *Viewport) ZoomAt(at model.Point, factor float64) {
	k := clampScale(v.cur.K * factor)
	w := v.cur.Invert(at)
	v.Set(Transform{K: k, X: at.X - w.X*k, Y: at.Y - w.Y*k})
}

// Pan moves the view by (dx, dy) surface units.
func (v *Viewport) Pan(dx, dy float64) {
	v.Set(Transform{K: v.cur.K, X: v.cur.X + dx, Y: v.cur.Y + dy})
}

// Fit returns the transform that centers the world box in a w x h surface,
// filling the given fraction of it. ok is false for a zero-width or
// zero-height box.
func Fit(minX, minY, maxX, maxY, w, h, fill float64) (Transform, bool) {
	bw, bh := maxX-minX, maxY-minY
	if bw <= 0 || bh <= 0 || w <= 0 || h <= 0 {
		return Transform{}, false
	}
	k := clampScale(min(w/bw, h/bh) * fill)
	midX, midY := (minX+maxX)/2, (minY+maxY)/2
	return Transform{K: k, X: w/2 - k*midX, Y: h/2 - k*midY}, true
}
