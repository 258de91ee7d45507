// Package conceptgraph mounts a concept dataset onto a rendering surface and
// drives it: layout ticks, rendering, interaction and the facade commands used
// by the drawer and control panel.
//
// A Graph is owned by a single goroutine (the UI loop). Only Facade is safe to
// share before the graph exists.
package conceptgraph

import (
	"errors"
	"fmt"
	"time"

	"github.com/vanderheijden86/conceptgraph/pkg/graph"
	"github.com/vanderheijden86/conceptgraph/pkg/interact"
	"github.com/vanderheijden86/conceptgraph/pkg/layout"
	"github.com/vanderheijden86/conceptgraph/pkg/metrics"
	"github.com/vanderheijden86/conceptgraph/pkg/model"
	"github.com/vanderheijden86/conceptgraph/pkg/render"

	"go.uber.org/zap"
)

// ErrNoSurface is returned by Mount when there is nothing to draw on.
var ErrNoSurface = errors.New("no rendering surface")

// Surface is the drawing area a graph is mounted into.
type Surface interface {
	Size() (w, h int)
}

// Engine is the layout engine contract the graph drives.
type Engine interface {
	interact.Engine
	Step() bool
	Running() bool
	SetForceParameter(name string, value float64) error
	SetCenter(x, y float64)
}

// Energy injected by facade commands and resizes.
const (
	ResizeEnergy = 0.3
	ForceEnergy  = 0.3
)

// Options configures Mount.
type Options struct {
	Layout layout.Options
	Render render.Options

	// CameraDuration is the length of reset and center animations.
	CameraDuration time.Duration
	// Fill is the share of the surface a centered graph occupies.
	Fill float64

	Logger   *zap.Logger
	Notifier interact.Notifier
	Metrics  *metrics.Registry
}

// DefaultOptions returns the stock tuning.
func DefaultOptions() Options {
	return Options{
		Layout:         layout.DefaultOptions(),
		Render:         render.DefaultOptions(),
		CameraDuration: 750 * time.Millisecond,
		Fill:           0.8,
	}
}

// State is a read-only snapshot of the mounted graph's interaction state.
type State struct {
	SelectedID    string
	HoveredID     string
	ForceStrength float64
	ShowPrimary   bool
	ShowSecondary bool
}

// Graph is a mounted concept graph.
type Graph struct {
	model    *graph.Model
	engine   Engine
	renderer *render.Renderer
	ctrl     *interact.Controller
	view     *render.Viewport
	surface  Surface

	opts    Options
	log     *zap.Logger
	metrics *metrics.Registry

	forceStrength float64
	showPrimary   bool
	showSecondary bool
	stopped       bool
}

// Mount validates the dataset and builds every component around it. Nothing
// is returned on error.
func Mount(ds model.Dataset, surface Surface, opts Options) (*Graph, error) {
	if surface == nil {
		return nil, ErrNoSurface
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewRegistry()
	}
	if opts.Render.Clock == nil {
		opts.Render.Clock = render.SystemClock{}
	}
	defer metrics.Timer(opts.Metrics.Mount)()

	m, err := graph.FromDataset(ds)
	if err != nil {
		return nil, fmt.Errorf("mount: %w", err)
	}

	w, h := surface.Size()
	lopts := opts.Layout
	lopts.CenterX, lopts.CenterY = float64(w)/2, float64(h)/2

	bodies := make([]layout.Body, 0, m.Len())
	for _, n := range m.Nodes() {
		a := graph.AttributesOf(n, opts.Render.Palette)
		bodies = append(bodies, layout.Body{ID: n.ID, Radius: a.Radius})
	}
	links := make([]layout.Link, 0, m.EdgeCount())
	for _, e := range m.Edges() {
		links = append(links, layout.Link{Source: e.Source, Target: e.Target})
	}
	sim, err := layout.New(bodies, links, lopts)
	if err != nil {
		return nil, fmt.Errorf("mount: %w", err)
	}
	return mountWith(m, sim, surface, opts, lopts.LinkStrength), nil
}

func mountWith(m *graph.Model, engine Engine, surface Surface, opts Options, strength float64) *Graph {
	positions, ok := engine.(render.Positions)
	if !ok {
		positions = enginePositions{engine}
	}
	r := render.New(m, positions, opts.Render)
	g := &Graph{
		model:         m,
		engine:        engine,
		renderer:      r,
		view:          render.NewViewport(),
		surface:       surface,
		opts:          opts,
		log:           opts.Logger,
		metrics:       opts.Metrics,
		forceStrength: strength,
		showPrimary:   true,
		showSecondary: true,
	}
	g.ctrl = interact.NewController(m, engine, r, opts.Notifier, interact.WithLogger(opts.Logger))
	g.log.Info("graph mounted",
		zap.Int("nodes", m.Len()),
		zap.Int("links", m.EdgeCount()),
		zap.Int("clusters", m.Clusters()))
	return g
}

type enginePositions struct{ e interact.Engine }

func (p enginePositions) Position(id string) (model.Point, bool) { return p.e.Position(id) }

// Model returns the concept model.
func (g *Graph) Model() *graph.Model { return g.model }

// Renderer returns the renderer.
func (g *Graph) Renderer() *render.Renderer { return g.renderer }

// Controller returns the interaction controller.
func (g *Graph) Controller() *interact.Controller { return g.ctrl }

// Viewport returns the camera.
func (g *Graph) Viewport() *render.Viewport { return g.view }

// Engine returns the layout engine.
func (g *Graph) Engine() Engine { return g.engine }

// State snapshots the interaction state.
func (g *Graph) State() State {
	return State{
		SelectedID:    g.ctrl.Selected(),
		HoveredID:     g.ctrl.Hovered(),
		ForceStrength: g.forceStrength,
		ShowPrimary:   g.showPrimary,
		ShowSecondary: g.showSecondary,
	}
}

// Stopped reports whether Stop was called.
func (g *Graph) Stopped() bool { return g.stopped }

// Stop halts ticking and releases the surface.
func (g *Graph) Stop() {
	g.stopped = true
	g.surface = nil
	g.ctrl.DragEnd()
}

// Tick performs one frame: a layout step when the simulation is running, a
// render pass and transition/camera progress. It reports whether another
// frame is needed.
func (g *Graph) Tick(now time.Time) bool {
	if g.stopped {
		return false
	}
	running := false
	if g.engine.Running() {
		done := metrics.Timer(g.metrics.LayoutTick)
		running = g.engine.Step()
		done()
	}

	done := metrics.Timer(g.metrics.RenderTick)
	g.renderer.RenderTick()
	animating := g.renderer.Advance(now)
	done()

	camera := g.view.Advance(now)
	return running || animating || camera
}

// Settle steps the layout headlessly until it cools or maxTicks is reached,
// then finishes every transition. It returns the number of steps taken.
func (g *Graph) Settle(maxTicks int) int {
	n := 0
	for n < maxTicks && g.engine.Running() {
		g.engine.Step()
		n++
	}
	g.renderer.RenderTick()
	far := g.opts.Render.Clock.Now().Add(time.Hour)
	g.renderer.Advance(far)
	g.view.Advance(far)
	return n
}

// Resize re-reads the surface size, moves the centering target to its middle
// and lets the layout resettle.
func (g *Graph) Resize() {
	if g.surface == nil {
		g.log.Warn("resize on a stopped graph")
		return
	}
	w, h := g.surface.Size()
	g.engine.SetCenter(float64(w)/2, float64(h)/2)
	g.engine.Restart(ResizeEnergy)
}

// ResetView animates the camera back to the identity transform. Node
// positions and physics are untouched.
func (g *Graph) ResetView() {
	g.view.AnimateTo(render.Identity, g.now(), g.opts.CameraDuration)
}

// CenterGraph fits the bounding box of the visible nodes into the surface at
// the configured fill. A zero-width or zero-height box (including no visible
// nodes) is a no-op.
func (g *Graph) CenterGraph() {
	if g.surface == nil {
		g.log.Warn("center on a stopped graph")
		return
	}
	ids := g.model.VisibleNodeIDs()
	if len(ids) == 0 {
		g.log.Debug("center skipped: nothing visible")
		return
	}
	first := true
	var minX, minY, maxX, maxY float64
	for _, id := range ids {
		p, ok := g.engine.Position(id)
		if !ok {
			continue
		}
		if first {
			minX, maxX, minY, maxY = p.X, p.X, p.Y, p.Y
			first = false
			continue
		}
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	w, h := g.surface.Size()
	t, ok := render.Fit(minX, minY, maxX, maxY, float64(w), float64(h), g.opts.Fill)
	if !ok {
		g.log.Debug("center skipped: degenerate bounds",
			zap.Float64("width", maxX-minX), zap.Float64("height", maxY-minY))
		return
	}
	g.view.AnimateTo(t, g.now(), g.opts.CameraDuration)
}

// UpdateForceStrength sets the link strength to value (no bounds enforced)
// and re-energizes the layout.
func (g *Graph) UpdateForceStrength(value float64) {
	if err := g.engine.SetForceParameter(layout.ParamLink, value); err != nil {
		g.log.Warn("force update rejected", zap.Float64("value", value), zap.Error(err))
		return
	}
	g.forceStrength = value
	g.engine.Restart(ForceEnergy)
}

// SetForceParameter forwards any named force parameter and re-energizes the
// layout. Unknown names are logged and ignored.
func (g *Graph) SetForceParameter(name string, value float64) {
	if err := g.engine.SetForceParameter(name, value); err != nil {
		g.log.Warn("force update rejected", zap.String("param", name), zap.Error(err))
		return
	}
	if name == layout.ParamLink {
		g.forceStrength = value
	}
	g.engine.Restart(ForceEnergy)
}

// FilterNodes shows or hides each kind. Hiding both leaves an empty graph.
func (g *Graph) FilterNodes(showPrimary, showSecondary bool) {
	g.showPrimary, g.showSecondary = showPrimary, showSecondary
	changed := g.model.SetVisibility(model.KindPrimary, showPrimary)
	changed = g.model.SetVisibility(model.KindSecondary, showSecondary) || changed
	if !changed {
		return
	}
	g.renderer.ApplyVisibilityChange()
	g.ctrl.Forget(g.model.IsVisible)
}

// NodeAt hit-tests a surface point.
func (g *Graph) NodeAt(p model.Point) (string, bool) {
	return g.renderer.HitTest(g.WorldPoint(p))
}

// WorldPoint maps a surface point into layout coordinates.
func (g *Graph) WorldPoint(p model.Point) model.Point {
	return g.view.Transform().Invert(p)
}

// Size returns the surface size, or zeros after Stop.
func (g *Graph) Size() (w, h int) {
	if g.surface == nil {
		return 0, 0
	}
	return g.surface.Size()
}

func (g *Graph) now() time.Time {
	return g.opts.Render.Clock.Now()
}
