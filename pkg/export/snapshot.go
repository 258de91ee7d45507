package export

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/vanderheijden86/conceptgraph/pkg/render"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font/basicfont"
)

const (
	framePadding = 40.0
	headerHeight = 72.0
	minWidth     = 640
	minHeight    = 480
	glyphWidth   = 7.0 // basicfont.Face7x13 advance
)

var (
	colorBackdrop = color.RGBA{0x1e, 0x1e, 0x2e, 0xff}
	colorHeaderBG = color.RGBA{0x2a, 0x2a, 0x3c, 0xff}
	colorSubtle   = color.RGBA{0xa0, 0xa0, 0xb0, 0xff}
)

// frame maps world coordinates onto the image.
type frame struct {
	Width, Height int
	dx, dy        float64
}

func (f frame) x(v float64) float64 { return v + f.dx }
func (f frame) y(v float64) float64 { return v + f.dy }

// buildFrame sizes the image around every circle and label in the scene.
func buildFrame(sc render.Scene) frame {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	grow := func(x0, y0, x1, y1 float64) {
		minX, minY = math.Min(minX, x0), math.Min(minY, y0)
		maxX, maxY = math.Max(maxX, x1), math.Max(maxY, y1)
	}
	for _, c := range sc.Circles {
		r := c.Style.Radius + c.Style.StrokeWidth
		grow(c.X-r, c.Y-r, c.X+r, c.Y+r)
	}
	for _, l := range sc.Labels {
		half := float64(len([]rune(l.Text))) * glyphWidth / 2
		grow(l.X-half, l.Y-l.FontSize, l.X+half, l.Y+4)
	}
	if math.IsInf(minX, 1) {
		return frame{Width: minWidth, Height: minHeight}
	}
	w := int(math.Ceil(maxX-minX+2*framePadding))
	h := int(math.Ceil(maxY-minY+2*framePadding+headerHeight))
	f := frame{Width: max(w, minWidth), Height: max(h, minHeight)}
	// Center the content in whatever slack the minimum size adds.
	f.dx = -minX + (float64(f.Width)-(maxX-minX))/2
	f.dy = -minY + headerHeight + (float64(f.Height)-headerHeight-(maxY-minY))/2
	return f
}

// SaveImage renders snap as SVG or PNG at path.
func SaveImage(snap Snapshot, path string, format Format) error {
	if path == "" {
		return fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	switch format {
	case FormatSVG:
		err = WriteSVG(file, snap)
	case FormatPNG:
		err = WritePNG(file, snap)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return err
	}
	return file.Close()
}

func headerLines(snap Snapshot) (string, string) {
	title := snap.Title
	if title == "" {
		title = "Concept Graph"
	}
	visible := 0
	for _, n := range snap.Nodes {
		if n.Visible {
			visible++
		}
	}
	info := fmt.Sprintf("concepts: %d (%d shown)  links: %d  clusters: %d  data: %s",
		len(snap.Nodes), visible, len(snap.Edges), snap.Clusters, snap.DataHash)
	return title, info
}

// WriteSVG renders the scene as an SVG document.
func WriteSVG(w io.Writer, snap Snapshot) error {
	f := buildFrame(snap.Scene)
	canvas := svg.New(w)
	canvas.Start(f.Width, f.Height)
	canvas.Rect(0, 0, f.Width, f.Height, "fill:"+css(colorBackdrop))
	canvas.Roundrect(16, 16, f.Width-32, int(headerHeight-24), 10, 10, "fill:"+css(colorHeaderBG))

	title, info := headerLines(snap)
	canvas.Text(32, 38, title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", snap.Colors.Text))
	canvas.Text(32, 56, info, fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))

	for _, l := range snap.Scene.Lines {
		canvas.Line(px(f.x(l.X1)), px(f.y(l.Y1)), px(f.x(l.X2)), px(f.y(l.Y2)),
			fmt.Sprintf("stroke:%s;stroke-width:%g;stroke-opacity:%.2f", l.Style.Stroke, l.Style.StrokeWidth, l.Style.Opacity))
	}
	for _, c := range snap.Scene.Circles {
		canvas.Circle(px(f.x(c.X)), px(f.y(c.Y)), px(c.Style.Radius),
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%g;opacity:%.2f", c.Style.Fill, c.Style.Stroke, c.Style.StrokeWidth, c.Style.Opacity))
	}
	for _, l := range snap.Scene.Labels {
		weight := "normal"
		if l.Bold {
			weight = "bold"
		}
		canvas.Text(px(f.x(l.X)), px(f.y(l.Y)), l.Text,
			fmt.Sprintf("fill:%s;font-size:%gpx;font-family:sans-serif;font-weight:%s;text-anchor:middle;opacity:%.2f",
				l.Fill, l.FontSize, weight, l.Opacity))
	}
	canvas.End()
	return nil
}

// WritePNG rasterizes the scene.
func WritePNG(w io.Writer, snap Snapshot) error {
	f := buildFrame(snap.Scene)
	dc := gg.NewContext(f.Width, f.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(f.Width)-32, headerHeight-24, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	title, info := headerLines(snap)
	dc.SetColor(hexColor(snap.Colors.Text, 1))
	dc.DrawStringAnchored(title, 32, 34, 0, 0.5)
	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(info, 32, 52, 0, 0.5)

	for _, l := range snap.Scene.Lines {
		dc.SetColor(hexColor(l.Style.Stroke, l.Style.Opacity))
		dc.SetLineWidth(l.Style.StrokeWidth)
		dc.DrawLine(f.x(l.X1), f.y(l.Y1), f.x(l.X2), f.y(l.Y2))
		dc.Stroke()
	}
	for _, c := range snap.Scene.Circles {
		dc.DrawCircle(f.x(c.X), f.y(c.Y), c.Style.Radius)
		dc.SetColor(hexColor(c.Style.Fill, c.Style.Opacity))
		dc.FillPreserve()
		dc.SetColor(hexColor(c.Style.Stroke, c.Style.Opacity))
		dc.SetLineWidth(c.Style.StrokeWidth)
		dc.Stroke()
	}
	for _, l := range snap.Scene.Labels {
		dc.SetColor(hexColor(l.Fill, l.Opacity))
		dc.DrawStringAnchored(l.Text, f.x(l.X), f.y(l.Y), 0.5, 0.5)
	}
	return dc.EncodePNG(w)
}

// hexColor parses a style color; unparsable values fall back to white.
func hexColor(hex string, opacity float64) color.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		c = colorful.Color{R: 1, G: 1, B: 1}
	}
	r, g, b := c.RGB255()
	a := uint8(math.Round(math.Max(0, math.Min(1, opacity)) * 255))
	// color.NRGBA keeps the channels unpremultiplied.
	return color.NRGBA{R: r, G: g, B: b, A: a}
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func px(v float64) int { return int(math.Round(v)) }
