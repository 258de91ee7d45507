package render

import (
	"time"

	"github.com/vanderheijden86/conceptgraph/pkg/graph"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Style is the animatable appearance of a primitive.
type Style struct {
	Radius      float64
	StrokeWidth float64
	Opacity     float64
	Fill        string
	Stroke      string
}

// Colors are the non-kind colors of the graph.
type Colors struct {
	Link          string
	LinkHighlight string
	NodeStroke    string
	Text          string
}

// DefaultColors returns the stock link, highlight, stroke and label colors.
func DefaultColors() Colors {
	return Colors{
		Link:          "#666666",
		LinkHighlight: "#AEA652",
		NodeStroke:    "#ffffff",
		Text:          "#ffffff",
	}
}

// MaxFade bounds visibility fades.
const MaxFade = time.Second

// Options tunes a Renderer.
type Options struct {
	Palette graph.Palette
	Colors  Colors

	// Duration of hover and selection restyles.
	Duration time.Duration
	// Fade is the enter/leave transition; values above MaxFade are capped.
	Fade time.Duration

	// LabelOffset is the gap between a node's edge and its label baseline.
	LabelOffset float64

	Clock Clock
}

// DefaultOptions returns the stock renderer tuning.
func DefaultOptions() Options {
	return Options{
		Palette:     graph.DefaultPalette(),
		Colors:      DefaultColors(),
		Duration:    300 * time.Millisecond,
		Fade:        500 * time.Millisecond,
		LabelOffset: 15,
		Clock:       SystemClock{},
	}
}

// Clock supplies the start time of transitions.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Hover and selection factors.
const (
	hoverScale        = 1.2
	baseStrokeWidth   = 2
	hoverStrokeWidth  = 3
	selectStrokeWidth = 4

	linkWidth          = 2
	linkOpacity        = 0.6
	linkHighlightWidth = 3
)

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func blend(a, b string, t float64) string {
	if a == b {
		return a
	}
	ca, err := colorful.Hex(a)
	if err != nil {
		return b
	}
	cb, err := colorful.Hex(b)
	if err != nil {
		return b
	}
	return ca.BlendRgb(cb, t).Clamped().Hex()
}

// Interpolate returns the style t of the way from s to to.
func (s Style) Interpolate(to Style, t float64) Style {
	return Style{
		Radius:      lerp(s.Radius, to.Radius, t),
		StrokeWidth: lerp(s.StrokeWidth, to.StrokeWidth, t),
		Opacity:     lerp(s.Opacity, to.Opacity, t),
		Fill:        blend(s.Fill, to.Fill, t),
		Stroke:      blend(s.Stroke, to.Stroke, t),
	}
}

// easeCubicInOut is the default transition easing.
func easeCubicInOut(t float64) float64 {
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}
