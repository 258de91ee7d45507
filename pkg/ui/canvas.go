package ui

import (
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/vanderheijden86/conceptgraph/pkg/model"
	"github.com/vanderheijden86/conceptgraph/pkg/render"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
)

// One terminal cell covers CellWidth x CellHeight surface pixels.
const (
	CellWidth  = 8
	CellHeight = 16
)

// Glyphs used on the canvas.
const (
	glyphNode      = '●'
	glyphLink      = '·'
	glyphLinkHot   = '•'
	minOpacity     = 0.05
	faintOpacity   = 0.5
	highlightWidth = 3
)

// Surface is the canvas area a graph is mounted into. The size is written by
// the UI loop on resize and read by the init goroutine while it waits for a
// usable size, so it is stored atomically.
type Surface struct {
	cols atomic.Int64
	rows atomic.Int64

	ready     chan struct{}
	readyOnce sync.Once
}

// NewSurface returns an unsized surface.
func NewSurface() *Surface {
	return &Surface{ready: make(chan struct{})}
}

// SetCells records the canvas size in cells. The first positive size closes
// the Ready channel.
func (s *Surface) SetCells(cols, rows int) {
	s.cols.Store(int64(max(cols, 0)))
	s.rows.Store(int64(max(rows, 0)))
	if cols > 0 && rows > 0 {
		s.readyOnce.Do(func() { close(s.ready) })
	}
}

// Ready is closed once the surface has had a usable size.
func (s *Surface) Ready() <-chan struct{} { return s.ready }

// Cells returns the canvas size in cells.
func (s *Surface) Cells() (cols, rows int) {
	return int(s.cols.Load()), int(s.rows.Load())
}

// Size returns the canvas size in surface pixels.
func (s *Surface) Size() (w, h int) {
	cols, rows := s.Cells()
	return cols * CellWidth, rows * CellHeight
}

// CellOf maps a surface point to the cell containing it.
func CellOf(p model.Point) (col, row int) {
	return int(math.Floor(p.X / CellWidth)), int(math.Floor(p.Y / CellHeight))
}

// PointOf maps a cell to the surface point at its center.
func PointOf(col, row int) model.Point {
	return model.Point{
		X: float64(col)*CellWidth + CellWidth/2,
		Y: float64(row)*CellHeight + CellHeight/2,
	}
}

type cell struct {
	r    rune
	fg   string
	bg   string
	bold bool
	// faint marks a half-transparent primitive.
	faint bool
	// cont marks the trailing half of a wide rune.
	cont bool
}

// Canvas rasterizes a render.Scene into terminal cells.
type Canvas struct {
	cols, rows int
	cells      []cell
	bg         colorful.Color
}

// NewCanvas allocates a blank canvas. bgHex is the color faded primitives
// blend toward.
func NewCanvas(cols, rows int, bgHex string) *Canvas {
	cols, rows = max(cols, 0), max(rows, 0)
	bg, err := colorful.Hex(bgHex)
	if err != nil {
		bg = colorful.Color{}
	}
	return &Canvas{
		cols:  cols,
		rows:  rows,
		cells: make([]cell, cols*rows),
		bg:    bg,
	}
}

// Dims returns the canvas size in cells.
func (c *Canvas) Dims() (cols, rows int) { return c.cols, c.rows }

// Rune returns the glyph at a cell, or a space for blank or out of range
// cells.
func (c *Canvas) Rune(col, row int) rune {
	if !c.in(col, row) {
		return ' '
	}
	r := c.cells[row*c.cols+col].r
	if r == 0 {
		return ' '
	}
	return r
}

// Color returns the foreground color at a cell.
func (c *Canvas) Color(col, row int) string {
	if !c.in(col, row) {
		return ""
	}
	return c.cells[row*c.cols+col].fg
}

func (c *Canvas) in(col, row int) bool {
	return col >= 0 && row >= 0 && col < c.cols && row < c.rows
}

func (c *Canvas) set(col, row int, v cell) {
	if !c.in(col, row) {
		return
	}
	i := row*c.cols + col
	if c.cells[i].cont && !v.cont && col > 0 {
		c.cells[i-1] = cell{}
	}
	c.cells[i] = v
	if runewidth.RuneWidth(v.r) < 2 && col+1 < c.cols && c.cells[i+1].cont {
		c.cells[i+1] = cell{}
	}
}

// Draw rasterizes sc through the camera transform t. Lines are drawn first,
// then circles, then labels.
func (c *Canvas) Draw(sc render.Scene, t render.Transform) {
	for _, l := range sc.Lines {
		c.drawLine(l, t)
	}
	for _, ci := range sc.Circles {
		c.drawCircle(ci, t)
	}
	for _, lb := range sc.Labels {
		c.drawLabel(lb, t)
	}
}

func (c *Canvas) fade(hex string, opacity float64) string {
	col, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	if opacity >= 1 {
		return col.Hex()
	}
	return c.bg.BlendLab(col, math.Max(opacity, 0)).Clamped().Hex()
}

func (c *Canvas) drawLine(l render.Line, t render.Transform) {
	if l.Style.Opacity < minOpacity {
		return
	}
	c0, r0 := CellOf(t.Apply(model.Point{X: l.X1, Y: l.Y1}))
	c1, r1 := CellOf(t.Apply(model.Point{X: l.X2, Y: l.Y2}))
	glyph := glyphLink
	if l.Style.StrokeWidth >= highlightWidth {
		glyph = glyphLinkHot
	}
	v := cell{
		r:     glyph,
		fg:    c.fade(l.Style.Stroke, l.Style.Opacity),
		faint: l.Style.Opacity < faintOpacity,
	}
	bresenham(c0, r0, c1, r1, func(col, row int) {
		if c.in(col, row) {
			c.set(col, row, v)
		}
	})
}

// bresenham visits every cell on the segment between two cells, up to
// maxSteps cells.
func bresenham(x0, y0, x1, y1 int, plot func(x, y int)) {
	const maxSteps = 1 << 14
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for range maxSteps {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (c *Canvas) drawCircle(ci render.Circle, t render.Transform) {
	if ci.Style.Opacity < minOpacity {
		return
	}
	center := t.Apply(model.Point{X: ci.X, Y: ci.Y})
	r := ci.Style.Radius * t.K
	v := cell{
		r:     glyphNode,
		fg:    c.fade(ci.Style.Fill, ci.Style.Opacity),
		faint: ci.Style.Opacity < faintOpacity,
		bold:  ci.Style.StrokeWidth >= highlightWidth,
	}
	if ci.Style.StrokeWidth >= highlightWidth {
		v.bg = c.fade(ci.Style.Stroke, ci.Style.Opacity)
	}

	cc, cr := CellOf(center)
	c.set(cc, cr, v)

	c0, r0 := CellOf(model.Point{X: center.X - r, Y: center.Y - r})
	c1, r1 := CellOf(model.Point{X: center.X + r, Y: center.Y + r})
	for row := max(r0, 0); row <= min(r1, c.rows-1); row++ {
		for col := max(c0, 0); col <= min(c1, c.cols-1); col++ {
			p := PointOf(col, row)
			if math.Hypot(p.X-center.X, p.Y-center.Y) <= r {
				c.set(col, row, v)
			}
		}
	}
}

func (c *Canvas) drawLabel(lb render.Label, t render.Transform) {
	if lb.Opacity < minOpacity || lb.Text == "" {
		return
	}
	p := t.Apply(model.Point{X: lb.X, Y: lb.Y})
	col, row := CellOf(p)
	col -= runewidth.StringWidth(lb.Text) / 2
	fg := c.fade(lb.Fill, lb.Opacity)
	for _, r := range lb.Text {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		c.set(col, row, cell{r: r, fg: fg, bold: lb.Bold, faint: lb.Opacity < faintOpacity})
		for i := 1; i < w; i++ {
			c.set(col+i, row, cell{cont: true})
		}
		col += w
	}
}

// Render turns the cells into styled lines, batching runs of equal style.
func (c *Canvas) Render(r *lipgloss.Renderer) string {
	var b strings.Builder
	var run strings.Builder
	for row := range c.rows {
		if row > 0 {
			b.WriteByte('\n')
		}
		var cur cell
		flush := func() {
			if run.Len() == 0 {
				return
			}
			b.WriteString(styleFor(r, cur).Render(run.String()))
			run.Reset()
		}
		for col := range c.cols {
			v := c.cells[row*c.cols+col]
			if v.cont && col > 0 && runewidth.RuneWidth(c.cells[row*c.cols+col-1].r) > 1 {
				continue
			}
			if v.r == 0 || v.cont {
				v = cell{r: ' '}
			}
			if !sameStyle(v, cur) {
				flush()
				cur = v
			}
			run.WriteRune(v.r)
		}
		flush()
	}
	return b.String()
}

func sameStyle(a, b cell) bool {
	return a.fg == b.fg && a.bg == b.bg && a.bold == b.bold && a.faint == b.faint
}

func styleFor(r *lipgloss.Renderer, v cell) lipgloss.Style {
	s := r.NewStyle()
	if v.fg != "" {
		s = s.Foreground(ThemeFg(v.fg))
	}
	if v.bg != "" {
		s = s.Background(ThemeBg(v.bg))
	}
	if v.bold {
		s = s.Bold(true)
	}
	if v.faint {
		s = s.Faint(true)
	}
	return s
}

// BoxColors colors a Box.
type BoxColors struct {
	Border string
	Title  string
	Text   string
}

// Box draws a bordered text box with its top-left corner at (col, row),
// shifted to stay inside the canvas. The first line is the bold title.
func (c *Canvas) Box(col, row int, lines []string, colors BoxColors) {
	if len(lines) == 0 {
		return
	}
	inner := 0
	for _, l := range lines {
		inner = max(inner, runewidth.StringWidth(l))
	}
	w, h := inner+4, len(lines)+2
	col = max(0, min(col, c.cols-w))
	row = max(0, min(row, c.rows-h))

	border := cell{fg: colors.Border}
	put := func(x, y int, r rune) {
		v := border
		v.r = r
		c.set(x, y, v)
	}
	put(col, row, '╭')
	put(col+w-1, row, '╮')
	put(col, row+h-1, '╰')
	put(col+w-1, row+h-1, '╯')
	for x := col + 1; x < col+w-1; x++ {
		put(x, row, '─')
		put(x, row+h-1, '─')
	}
	for i, l := range lines {
		y := row + 1 + i
		put(col, y, '│')
		put(col+w-1, y, '│')
		for x := col + 1; x < col+w-1; x++ {
			c.set(x, y, cell{r: ' '})
		}
		v := cell{fg: colors.Text}
		if i == 0 {
			v = cell{fg: colors.Title, bold: true}
		}
		x := col + 2
		for _, r := range l {
			rw := runewidth.RuneWidth(r)
			if rw == 0 {
				continue
			}
			v.r = r
			c.set(x, y, v)
			for j := 1; j < rw; j++ {
				c.set(x+j, y, cell{cont: true})
			}
			x += rw
		}
	}
}
