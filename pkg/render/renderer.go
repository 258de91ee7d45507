// Package render binds the concept model and live layout positions to drawable
// primitives. It is backend-agnostic: the terminal canvas and the SVG/PNG
// exporters all draw from a Scene.
package render

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vanderheijden86/conceptgraph/pkg/graph"
	"github.com/vanderheijden86/conceptgraph/pkg/model"
)

// Positions is the read side of the layout engine.
type Positions interface {
	Position(id string) (model.Point, bool)
}

// Circle is a node primitive.
type Circle struct {
	ID    string
	X, Y  float64
	Style Style

	base        Style
	leaving     bool
	hovered     bool
	selected    bool
	highlighted int // number of active highlights naming this node as a neighbor
}

// Line is a relationship primitive.
type Line struct {
	Index          int
	Source, Target string
	X1, Y1, X2, Y2 float64
	Style          Style

	leaving bool
}

// Label is the truncated node name drawn under a circle.
type Label struct {
	ID       string
	Text     string
	X, Y     float64
	FontSize float64
	Bold     bool
	Fill     string
	Opacity  float64
}

// Renderer owns the primitives of one mounted graph. It is not safe for
// concurrent use.
type Renderer struct {
	model *graph.Model
	pos   Positions
	opts  Options

	circles []*Circle // by dataset order, nil when absent
	labels  []*Label
	lines   []*Line // by edge index, nil when absent

	highlights map[string][]string // active highlight source -> connected ids

	timeline *Timeline
	created  int
}

// New builds a renderer and materializes primitives for everything currently
// visible.
func New(m *graph.Model, pos Positions, opts Options) *Renderer {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Fade > MaxFade {
		opts.Fade = MaxFade
	}
	r := &Renderer{
		model:      m,
		pos:        pos,
		opts:       opts,
		circles:    make([]*Circle, m.Len()),
		labels:     make([]*Label, m.Len()),
		lines:      make([]*Line, m.EdgeCount()),
		highlights: make(map[string][]string),
		timeline:   NewTimeline(),
	}
	for i, n := range m.Nodes() {
		if m.IsVisible(n.ID) {
			r.materializeNode(i, n, 1)
		}
	}
	for i := 0; i < m.EdgeCount(); i++ {
		if m.IsEdgeVisible(m.Edge(i)) {
			r.materializeLine(i, 1)
		}
	}
	r.RenderTick()
	return r
}

func nodeKey(id string) string { return "node:" + id }
func lineKey(i int) string { return "link:" + strconv.Itoa(i) }

func (r *Renderer) materializeNode(i int, n model.Node, opacity float64) {
	a := graph.AttributesOf(n, r.opts.Palette)
	base := Style{
		Radius:      a.Radius,
		StrokeWidth: baseStrokeWidth,
		Opacity:     1,
		Fill:        a.Color,
		Stroke:      r.opts.Colors.NodeStroke,
	}
	c := &Circle{ID: n.ID, base: base, Style: base}
	c.Style.Opacity = opacity
	// A node rebuilt while a hover is active rejoins that highlight.
	if _, ok := r.highlights[n.ID]; ok {
		c.hovered = true
	}
	for _, ids := range r.highlights {
		for _, id := range ids {
			if id == n.ID {
				c.highlighted++
			}
		}
	}
	r.circles[i] = c
	r.labels[i] = &Label{
		ID:       n.ID,
		Text:     Truncate(n.Name, a.LabelMax),
		FontSize: a.FontSize,
		Bold:     a.Bold,
		Fill:     r.opts.Colors.Text,
		Opacity:  opacity,
	}
	r.created += 2
	r.placeNode(i)
}

func (r *Renderer) materializeLine(i int, opacity float64) {
	e := r.model.Edge(i)
	l := &Line{Index: i, Source: e.Source, Target: e.Target}
	l.Style = r.lineTarget(l)
	l.Style.Opacity *= opacity
	r.lines[i] = l
	r.created++
	r.placeLine(l)
}

// Allocations counts primitives created since construction.
func (r *Renderer) Allocations() int { return r.created }

// RenderTick copies layout positions into the existing primitives. It never
// creates or removes primitives.
func (r *Renderer) RenderTick() {
	for i := range r.circles {
		if r.circles[i] != nil {
			r.placeNode(i)
		}
	}
	for _, l := range r.lines {
		if l != nil {
			r.placeLine(l)
		}
	}
}

func (r *Renderer) placeNode(i int) {
	c := r.circles[i]
	p, ok := r.pos.Position(c.ID)
	if !ok {
		return
	}
	c.X, c.Y = p.X, p.Y
	lb := r.labels[i]
	lb.X, lb.Y = p.X, p.Y+c.base.Radius+r.opts.LabelOffset
}

func (r *Renderer) placeLine(l *Line) {
	if p, ok := r.pos.Position(l.Source); ok {
		l.X1, l.Y1 = p.X, p.Y
	}
	if p, ok := r.pos.Position(l.Target); ok {
		l.X2, l.Y2 = p.X, p.Y
	}
}

// ApplyVisibilityChange reconciles primitives with the model's visible set.
// Entering primitives fade in, leaving ones fade out and are dropped once the
// fade completes. A primitive that re-enters mid fade-out is revived.
func (r *Renderer) ApplyVisibilityChange() {
	now := r.opts.Clock.Now()
	for i, n := range r.model.Nodes() {
		c := r.circles[i]
		visible := r.model.IsVisible(n.ID)
		switch {
		case visible && c == nil:
			r.materializeNode(i, n, 0)
			r.restyleNode(i, now, r.opts.Fade)
		case visible && c.leaving:
			c.leaving = false
			r.restyleNode(i, now, r.opts.Fade)
		case !visible && c != nil && !c.leaving:
			c.leaving = true
			r.restyleNode(i, now, r.opts.Fade)
		}
	}
	for i := range r.lines {
		l := r.lines[i]
		visible := r.model.IsEdgeVisible(r.model.Edge(i))
		switch {
		case visible && l == nil:
			r.materializeLine(i, 0)
			r.restyleLine(i, now, r.opts.Fade)
		case visible && l.leaving:
			l.leaving = false
			r.restyleLine(i, now, r.opts.Fade)
		case !visible && l != nil && !l.leaving:
			l.leaving = true
			r.restyleLine(i, now, r.opts.Fade)
		}
	}
}

// ApplyHighlight turns the hover highlight of nodeID on or off. connected are
// the neighbors that receive the highlight stroke. Styles are recomputed from
// the full hover/selection state, so turning a highlight off always lands on
// the base style of everything it touched.
func (r *Renderer) ApplyHighlight(nodeID string, connected []string, active bool) {
	i := r.model.Order(nodeID)
	if i < 0 {
		return
	}
	prev, had := r.highlights[nodeID]
	if active {
		r.highlights[nodeID] = append([]string(nil), connected...)
	} else {
		delete(r.highlights, nodeID)
	}

	touched := map[string]bool{nodeID: true}
	for _, id := range prev {
		touched[id] = true
	}
	for _, id := range connected {
		touched[id] = true
	}
	if !active && !had {
		return
	}
	r.recountNeighbors()

	now := r.opts.Clock.Now()
	if c := r.circles[i]; c != nil {
		c.hovered = active
	}
	for id := range touched {
		if j := r.model.Order(id); j >= 0 && r.circles[j] != nil {
			r.restyleNode(j, now, r.opts.Duration)
		}
	}
	for _, ei := range r.model.IncidentEdges(nodeID) {
		if r.lines[ei] != nil {
			r.restyleLine(ei, now, r.opts.Duration)
		}
	}
}

// ApplySelection sets or clears the selected styling of nodeID. It applies
// immediately, without a transition.
func (r *Renderer) ApplySelection(nodeID string, selected bool) {
	i := r.model.Order(nodeID)
	if i < 0 || r.circles[i] == nil {
		return
	}
	r.circles[i].selected = selected
	r.restyleNode(i, r.opts.Clock.Now(), 0)
}

func (r *Renderer) recountNeighbors() {
	for _, c := range r.circles {
		if c != nil {
			c.highlighted = 0
		}
	}
	for _, ids := range r.highlights {
		for _, id := range ids {
			if j := r.model.Order(id); j >= 0 && r.circles[j] != nil {
				r.circles[j].highlighted++
			}
		}
	}
}

// nodeTarget is the style a circle should settle on given its state.
func (r *Renderer) nodeTarget(c *Circle) Style {
	s := c.base
	if c.hovered {
		s.Radius *= hoverScale
		s.StrokeWidth = hoverStrokeWidth
	}
	if c.highlighted > 0 {
		s.Stroke = r.opts.Colors.LinkHighlight
	}
	if c.selected {
		s.Stroke = r.opts.Colors.LinkHighlight
		s.StrokeWidth = selectStrokeWidth
	}
	if c.leaving {
		s.Opacity = 0
	}
	return s
}

func (r *Renderer) lineTarget(l *Line) Style {
	s := Style{
		StrokeWidth: linkWidth,
		Opacity:     linkOpacity,
		Stroke:      r.opts.Colors.Link,
	}
	_, hs := r.highlights[l.Source]
	_, ht := r.highlights[l.Target]
	if hs || ht {
		s.Stroke = r.opts.Colors.LinkHighlight
		s.StrokeWidth = linkHighlightWidth
		s.Opacity = 1
	}
	if l.leaving {
		s.Opacity = 0
	}
	return s
}

func (r *Renderer) restyleNode(i int, now time.Time, dur time.Duration) {
	c := r.circles[i]
	to := r.nodeTarget(c)
	key := nodeKey(c.ID)
	var done func()
	if c.leaving {
		done = func() {
			r.circles[i] = nil
			r.labels[i] = nil
		}
	}
	if dur <= 0 {
		r.timeline.Cancel(key)
		c.Style = to
		r.labels[i].Opacity = to.Opacity
		if done != nil {
			done()
		}
		return
	}
	r.timeline.Start(key, c.Style, to, now, dur, done)
}

func (r *Renderer) restyleLine(i int, now time.Time, dur time.Duration) {
	l := r.lines[i]
	to := r.lineTarget(l)
	key := lineKey(i)
	var done func()
	if l.leaving {
		done = func() { r.lines[i] = nil }
	}
	if dur <= 0 {
		r.timeline.Cancel(key)
		l.Style = to
		if done != nil {
			done()
		}
		return
	}
	r.timeline.Start(key, l.Style, to, now, dur, done)
}

// Advance progresses running transitions to now and reports whether any are
// still running.
func (r *Renderer) Advance(now time.Time) bool {
	r.timeline.Advance(now, r.setStyle)
	return r.timeline.Len() > 0
}

func (r *Renderer) setStyle(key string, s Style) {
	if rest, ok := strings.CutPrefix(key, "link:"); ok {
		idx, err := strconv.Atoi(rest)
		if err == nil && r.lines[idx] != nil {
			r.lines[idx].Style = s
		}
		return
	}
	i := r.model.Order(strings.TrimPrefix(key, "node:"))
	if i < 0 || r.circles[i] == nil {
		return
	}
	r.circles[i].Style = s
	r.labels[i].Opacity = s.Opacity
}

// Animating reports whether transitions are pending.
func (r *Renderer) Animating() bool { return r.timeline.Len() > 0 }

// Circle returns the live primitive for id.
func (r *Renderer) Circle(id string) (*Circle, bool) {
	i := r.model.Order(id)
	if i < 0 || r.circles[i] == nil {
		return nil, false
	}
	return r.circles[i], true
}

// Line returns the live primitive for edge index i.
func (r *Renderer) Line(i int) (*Line, bool) {
	if i < 0 || i >= len(r.lines) || r.lines[i] == nil {
		return nil, false
	}
	return r.lines[i], true
}

// Highlighted reports whether nodeID currently drives a highlight.
func (r *Renderer) Highlighted(nodeID string) bool {
	_, ok := r.highlights[nodeID]
	return ok
}

// BaseStyle returns the resting style of nodeID.
func (r *Renderer) BaseStyle(nodeID string) (Style, bool) {
	c, ok := r.Circle(nodeID)
	if !ok {
		return Style{}, false
	}
	return c.base, true
}

// HitTest returns the topmost live circle containing the world point p.
// Leaving circles are not hit.
func (r *Renderer) HitTest(p model.Point) (string, bool) {
	for i := len(r.circles) - 1; i >= 0; i-- {
		c := r.circles[i]
		if c == nil || c.leaving {
			continue
		}
		if math.Hypot(p.X-c.X, p.Y-c.Y) <= c.Style.Radius+c.Style.StrokeWidth/2 {
			return c.ID, true
		}
	}
	return "", false
}

// Bounds returns the bounding box of live node centers. ok is false when no
// node is live.
func (r *Renderer) Bounds() (minX, minY, maxX, maxY float64, ok bool) {
	minX, minY = math.Inf(1), math.Inf(1)
	maxX, maxY = math.Inf(-1), math.Inf(-1)
	for _, c := range r.circles {
		if c == nil || c.leaving {
			continue
		}
		ok = true
		minX = math.Min(minX, c.X)
		minY = math.Min(minY, c.Y)
		maxX = math.Max(maxX, c.X)
		maxY = math.Max(maxY, c.Y)
	}
	if !ok {
		return 0, 0, 0, 0, false
	}
	return minX, minY, maxX, maxY, true
}
