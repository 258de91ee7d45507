package conceptgraph

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/vanderheijden86/conceptgraph/pkg/events"
	"github.com/vanderheijden86/conceptgraph/pkg/graph"
	"github.com/vanderheijden86/conceptgraph/pkg/layout"
	"github.com/vanderheijden86/conceptgraph/pkg/model"
	"github.com/vanderheijden86/conceptgraph/pkg/render"
	"github.com/vanderheijden86/conceptgraph/pkg/testutil"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fixedSurface struct{ w, h int }

func (s *fixedSurface) Size() (int, int) { return s.w, s.h }

func mount(t *testing.T, ds model.Dataset, opts Options) (*Graph, *testutil.Clock) {
	t.Helper()
	clock := testutil.NewClock()
	opts.Render.Clock = clock
	g, err := Mount(ds, &fixedSurface{800, 600}, opts)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	return g, clock
}

func TestMountErrors(t *testing.T) {
	if _, err := Mount(testutil.Scenario(), nil, DefaultOptions()); !errors.Is(err, ErrNoSurface) {
		t.Errorf("expected ErrNoSurface, got %v", err)
	}

	ds := testutil.Scenario()
	ds.Links[0].Target = "missing"
	_, err := Mount(ds, &fixedSurface{800, 600}, DefaultOptions())
	var integrity *graph.DataIntegrityError
	if !errors.As(err, &integrity) {
		t.Errorf("expected DataIntegrityError, got %v", err)
	}

	if _, err := Mount(model.Dataset{}, &fixedSurface{800, 600}, DefaultOptions()); !errors.Is(err, graph.ErrEmptyDataset) {
		t.Errorf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestMountedState(t *testing.T) {
	g, _ := mount(t, testutil.Scenario(), DefaultOptions())
	st := g.State()
	if st.SelectedID != "" || st.HoveredID != "" || !st.ShowPrimary || !st.ShowSecondary {
		t.Errorf("unexpected initial state: %+v", st)
	}
	if st.ForceStrength != 0.8 {
		t.Errorf("initial force strength = %v, want 0.8", st.ForceStrength)
	}
	if c := g.Engine().(*layout.Simulation).Center(); c != (model.Point{X: 400, Y: 300}) {
		t.Errorf("center force should target the surface middle, got %v", c)
	}
}

func TestFilterScenario(t *testing.T) {
	g, _ := mount(t, testutil.Scenario(), DefaultOptions())
	g.FilterNodes(true, false)
	g.Settle(500)

	testutil.AssertSameIDs(t, "visible nodes", g.Model().VisibleNodeIDs(), []string{"P1", "P2"})
	if idx := g.Model().VisibleEdgeIndexes(); len(idx) != 0 {
		t.Errorf("expected no visible edges, got %v", idx)
	}
	sc := g.Renderer().Scene()
	if len(sc.Circles) != 2 || len(sc.Lines) != 0 || len(sc.Labels) != 2 {
		t.Errorf("scene has %d circles, %d lines, %d labels", len(sc.Circles), len(sc.Lines), len(sc.Labels))
	}
	if st := g.State(); !st.ShowPrimary || st.ShowSecondary {
		t.Errorf("state flags not updated: %+v", st)
	}
}

func TestFilterRoundTrip(t *testing.T) {
	g, _ := mount(t, testutil.New(testutil.DefaultConfig()).Random(15, 25), DefaultOptions())
	before := g.Model().VisibleNodeIDs()

	g.FilterNodes(false, false)
	if n := len(g.Model().VisibleNodeIDs()); n != 0 {
		t.Fatalf("expected an empty graph, %d nodes visible", n)
	}
	g.Settle(10)
	if !g.Renderer().Scene().Empty() {
		t.Error("scene should be empty once fades finish")
	}

	g.FilterNodes(true, true)
	testutil.AssertSameIDs(t, "visible after round trip", g.Model().VisibleNodeIDs(), before)
}

func TestFilterDropsHiddenSelection(t *testing.T) {
	g, _ := mount(t, testutil.Scenario(), DefaultOptions())
	g.Controller().Click("S1")
	g.Controller().PointerEnter("S2", model.Point{})
	g.FilterNodes(true, false)
	if st := g.State(); st.SelectedID != "" || st.HoveredID != "" {
		t.Errorf("hidden nodes kept interaction state: %+v", st)
	}
}

func TestCenterGraphWithNothingVisibleIsNoop(t *testing.T) {
	g, _ := mount(t, testutil.Scenario(), DefaultOptions())
	g.Settle(500)
	g.FilterNodes(false, false)
	g.CenterGraph()
	if g.Viewport().Animating() || g.Viewport().Transform() != render.Identity {
		t.Errorf("center on an empty graph changed the camera: %+v", g.Viewport().Transform())
	}
}

func TestCenterGraphSingleNodeIsNoop(t *testing.T) {
	ds := model.Dataset{Nodes: []model.Node{{ID: "solo", Name: "Solo", Kind: model.KindPrimary}}}
	g, _ := mount(t, ds, DefaultOptions())
	g.Settle(500)
	g.CenterGraph()
	if g.Viewport().Animating() {
		t.Error("a single node has a degenerate box and must not move the camera")
	}
}

func TestCenterGraphFitsVisibleNodes(t *testing.T) {
	g, clock := mount(t, testutil.Scenario(), DefaultOptions())
	g.Settle(1000)
	g.CenterGraph()
	if !g.Viewport().Animating() {
		t.Fatal("expected a camera animation")
	}
	for i := 0; i < 10; i++ {
		g.Tick(clock.Advance(100 * time.Millisecond))
	}
	if g.Viewport().Animating() {
		t.Fatal("camera animation should finish within 750ms")
	}

	tr := g.Viewport().Transform()
	minX, minY, maxX, maxY := math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)
	for _, id := range g.Model().VisibleNodeIDs() {
		p, _ := g.Engine().Position(id)
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	mid := tr.Apply(model.Point{X: (minX + maxX) / 2, Y: (minY + maxY) / 2})
	if math.Abs(mid.X-400) > 1e-6 || math.Abs(mid.Y-300) > 1e-6 {
		t.Errorf("box center maps to %v, want (400,300)", mid)
	}
	wantK := math.Min(math.Min(800/(maxX-minX), 600/(maxY-minY))*0.8, render.MaxScale)
	if math.Abs(tr.K-wantK) > 1e-9 {
		t.Errorf("scale = %v, want %v", tr.K, wantK)
	}

	g.ResetView()
	g.Tick(clock.Advance(time.Second))
	if g.Viewport().Transform() != render.Identity {
		t.Errorf("ResetView left %+v", g.Viewport().Transform())
	}
}

func TestUpdateForceStrength(t *testing.T) {
	g, _ := mount(t, testutil.Scenario(), DefaultOptions())
	g.Settle(1000)
	sim := g.Engine().(*layout.Simulation)

	g.UpdateForceStrength(1.7)
	if v, _ := sim.ForceParameter(layout.ParamLink); v != 1.7 {
		t.Errorf("link strength = %v, want 1.7", v)
	}
	if sim.Alpha() < ForceEnergy {
		t.Errorf("expected a restart with alpha %v, got %v", ForceEnergy, sim.Alpha())
	}
	if g.State().ForceStrength != 1.7 {
		t.Errorf("state force strength = %v", g.State().ForceStrength)
	}

	g.UpdateForceStrength(-5)
	if g.State().ForceStrength != -5 {
		t.Error("force strength must accept any value")
	}
}

func TestSetForceParameterUnknownWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	opts := DefaultOptions()
	opts.Logger = zap.New(core)
	g, _ := mount(t, testutil.Scenario(), opts)
	g.SetForceParameter("gravity", 2)
	if logs.FilterMessage("force update rejected").Len() != 1 {
		t.Error("expected a warning for an unknown parameter")
	}
	g.SetForceParameter(layout.ParamLink, 0.4)
	if g.State().ForceStrength != 0.4 {
		t.Error("link parameter should update the force strength")
	}
}

func TestResize(t *testing.T) {
	clock := testutil.NewClock()
	opts := DefaultOptions()
	opts.Render.Clock = clock
	surface := &fixedSurface{800, 600}
	g, err := Mount(testutil.Scenario(), surface, opts)
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	g.Settle(1000)

	surface.w, surface.h = 1200, 400
	g.Resize()
	sim := g.Engine().(*layout.Simulation)
	if c := sim.Center(); c != (model.Point{X: 600, Y: 200}) {
		t.Errorf("center = %v, want (600,200)", c)
	}
	if sim.Alpha() < ResizeEnergy {
		t.Errorf("resize should restart at %v, alpha %v", ResizeEnergy, sim.Alpha())
	}
}

func TestHoveredHighlightSurvivesFilterRoundTrip(t *testing.T) {
	g, clock := mount(t, testutil.Scenario(), DefaultOptions())
	g.Controller().PointerEnter("P1", model.Point{})
	g.Tick(clock.Advance(2 * time.Second))

	g.FilterNodes(true, false)
	g.Tick(clock.Advance(2 * time.Second))
	g.FilterNodes(true, true)
	g.Tick(clock.Advance(2 * time.Second))

	if st := g.State(); st.HoveredID != "P1" {
		t.Fatalf("hover should stay on P1, got %q", st.HoveredID)
	}
	link, ok := g.Renderer().Line(0) // P1 -> S1
	if !ok {
		t.Fatal("P1-S1 link not rebuilt")
	}
	s1, ok := g.Renderer().Circle("S1")
	if !ok {
		t.Fatal("S1 not rebuilt")
	}
	want := render.DefaultColors().LinkHighlight
	if link.Style.Stroke != want {
		t.Errorf("link stroke = %s, want highlight %s", link.Style.Stroke, want)
	}
	if s1.Style.Stroke != link.Style.Stroke {
		t.Errorf("S1 stroke = %s, want the highlighted link stroke %s", s1.Style.Stroke, link.Style.Stroke)
	}
	if s1.Style.Opacity != 1 {
		t.Errorf("S1 should be fully faded in, opacity = %v", s1.Style.Opacity)
	}
}

func TestClickNotifiesThroughBus(t *testing.T) {
	bus := events.NewBus(nil)
	var got []model.NodeSelected
	events.Subscribe(bus, events.NodeSelectedTopic, func(sel model.NodeSelected) {
		got = append(got, sel)
	})

	opts := DefaultOptions()
	opts.Notifier = bus
	g, _ := mount(t, testutil.Scenario(), opts)

	g.Controller().Click("P1")
	g.Controller().Click("P2")

	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if got[0].ID != "P1" || got[0].Description != "First central theme." || got[0].Kind != model.KindPrimary {
		t.Errorf("unexpected first notification: %+v", got[0])
	}
	if got[1].ID != "P2" || got[1].Description != "Second central theme." {
		t.Errorf("unexpected second notification: %+v", got[1])
	}

	p1, _ := g.Renderer().Circle("P1")
	base, _ := g.Renderer().BaseStyle("P1")
	if p1.Style != base {
		t.Errorf("P1 styling not reverted: %+v", p1.Style)
	}
	p2, _ := g.Renderer().Circle("P2")
	if p2.Style.StrokeWidth != 4 {
		t.Errorf("P2 not styled as selected: %+v", p2.Style)
	}
	if g.State().SelectedID != "P2" {
		t.Errorf("selected = %q", g.State().SelectedID)
	}
}

func TestDragReleaseEndToEnd(t *testing.T) {
	g, clock := mount(t, testutil.Scenario(), DefaultOptions())
	g.Settle(1000)
	sim := g.Engine().(*layout.Simulation)

	drop := model.Point{X: 50, Y: 50}
	g.Controller().DragStart("S2", model.Point{})
	g.Controller().DragMove(drop)
	for i := 0; i < 5; i++ {
		g.Tick(clock.Advance(16 * time.Millisecond))
	}
	if p, _ := sim.Position("S2"); p != drop {
		t.Fatalf("dragged node should follow the pin, at %v", p)
	}

	g.Controller().DragEnd()
	if _, pinned := sim.Pinned("S2"); pinned {
		t.Fatal("release must clear the pin")
	}
	for i := 0; i < 500 && g.Tick(clock.Advance(16*time.Millisecond)); i++ {
	}
	if p, _ := sim.Position("S2"); p == drop {
		t.Error("released node never left the drop point")
	}
}

func TestStop(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	opts := DefaultOptions()
	opts.Logger = zap.New(core)
	g, clock := mount(t, testutil.Scenario(), opts)

	g.Stop()
	if g.Tick(clock.Advance(time.Millisecond)) {
		t.Error("a stopped graph must not tick")
	}
	g.Resize()
	if logs.FilterMessage("resize on a stopped graph").Len() != 1 {
		t.Error("expected a warning for resize after stop")
	}
	if w, h := g.Size(); w != 0 || h != 0 {
		t.Error("surface should be released")
	}
}

func TestNodeAtUsesCamera(t *testing.T) {
	g, _ := mount(t, testutil.Scenario(), DefaultOptions())
	g.Settle(1000)
	p, _ := g.Engine().Position("P1")
	g.Viewport().Set(render.Transform{K: 2, X: 10, Y: 20})
	screen := g.Viewport().Transform().Apply(p)
	if id, ok := g.NodeAt(screen); !ok || id != "P1" {
		t.Errorf("NodeAt(%v) = %q,%v", screen, id, ok)
	}
}
