package layout

import (
	"errors"
	"math"
	"testing"

	"github.com/vanderheijden86/conceptgraph/pkg/model"
)

func scenario(t *testing.T) *Simulation {
	t.Helper()
	bodies := []Body{
		{ID: "P1", Radius: 15},
		{ID: "P2", Radius: 15},
		{ID: "S1", Radius: 10},
		{ID: "S2", Radius: 10},
	}
	links := []Link{{"P1", "S1"}, {"P1", "S2"}, {"P2", "S1"}}
	opts := DefaultOptions()
	opts.CenterX, opts.CenterY = 400, 300
	sim, err := New(bodies, links, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return sim
}

func dist(a, b model.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func TestNewRejectsUnknownEndpoint(t *testing.T) {
	_, err := New([]Body{{ID: "a"}}, []Link{{"a", "b"}}, DefaultOptions())
	if !errors.Is(err, ErrUnknownBody) {
		t.Fatalf("expected ErrUnknownBody, got %v", err)
	}
}

func TestSimulationSettles(t *testing.T) {
	sim := scenario(t)
	ticks := 0
	for sim.Step() {
		ticks++
		if ticks > 1000 {
			t.Fatal("simulation never cooled down")
		}
	}
	if sim.Alpha() >= DefaultOptions().AlphaMin {
		t.Errorf("expected alpha below alphaMin, got %f", sim.Alpha())
	}
	// The stock decay reaches alphaMin in about 300 ticks.
	if ticks < 250 || ticks > 350 {
		t.Errorf("expected ~300 ticks, got %d", ticks)
	}

	pos := sim.Positions()
	for a, pa := range pos {
		for b, pb := range pos {
			if a < b && dist(pa, pb) < 20 {
				t.Errorf("%s and %s overlap: %v %v", a, b, pa, pb)
			}
		}
	}

	var cx, cy float64
	for _, p := range pos {
		cx += p.X
		cy += p.Y
	}
	cx /= float64(len(pos))
	cy /= float64(len(pos))
	if math.Abs(cx-400) > 5 || math.Abs(cy-300) > 5 {
		t.Errorf("expected layout centered near (400,300), got (%.1f,%.1f)", cx, cy)
	}
}

func TestSimulationDeterministic(t *testing.T) {
	a, b := scenario(t), scenario(t)
	for i := 0; i < 50; i++ {
		a.Step()
		b.Step()
	}
	pa, pb := a.Positions(), b.Positions()
	for id := range pa {
		if pa[id] != pb[id] {
			t.Errorf("%s diverged: %v vs %v", id, pa[id], pb[id])
		}
	}
}

func TestPinHoldsAndUnpinReleases(t *testing.T) {
	sim := scenario(t)
	if err := sim.Pin("S2", 50, 60); err != nil {
		t.Fatalf("Pin: %v", err)
	}
	for i := 0; i < 20; i++ {
		sim.Step()
	}
	if p, _ := sim.Position("S2"); p != (model.Point{X: 50, Y: 60}) {
		t.Errorf("pinned body moved to %v", p)
	}

	if err := sim.Unpin("S2"); err != nil {
		t.Fatalf("Unpin: %v", err)
	}
	if _, pinned := sim.Pinned("S2"); pinned {
		t.Fatal("expected S2 to be unpinned")
	}
	sim.Restart(0.5)
	for i := 0; i < 50; i++ {
		sim.Step()
	}
	if p, _ := sim.Position("S2"); p == (model.Point{X: 50, Y: 60}) {
		t.Error("released body stayed at the drag point")
	}
}

func TestPinUnknownBody(t *testing.T) {
	sim := scenario(t)
	if err := sim.Pin("ghost", 0, 0); !errors.Is(err, ErrUnknownBody) {
		t.Errorf("expected ErrUnknownBody, got %v", err)
	}
	if err := sim.Unpin("ghost"); !errors.Is(err, ErrUnknownBody) {
		t.Errorf("expected ErrUnknownBody, got %v", err)
	}
}

func TestAlphaTargetKeepsRunning(t *testing.T) {
	sim := scenario(t)
	for sim.Step() {
	}
	sim.SetAlphaTarget(0.3)
	sim.Restart(0.3)
	for i := 0; i < 2000; i++ {
		if !sim.Step() {
			t.Fatal("simulation stopped while alpha target is set")
		}
	}
	if math.Abs(sim.Alpha()-0.3) > 0.01 {
		t.Errorf("alpha should converge to the target, got %f", sim.Alpha())
	}
	sim.SetAlphaTarget(0)
	ticks := 0
	for sim.Step() {
		ticks++
	}
	if ticks == 0 {
		t.Error("expected some cooling ticks after clearing the target")
	}
}

func TestRestartNeverLowersAlpha(t *testing.T) {
	sim := scenario(t)
	sim.Restart(0.3)
	if sim.Alpha() != 1 {
		t.Errorf("Restart(0.3) lowered alpha to %f", sim.Alpha())
	}
}

func TestSetForceParameter(t *testing.T) {
	sim := scenario(t)
	for i := 0; i < 10; i++ {
		sim.Step()
	}
	before := sim.Positions()

	params := map[string]float64{
		ParamLink:           1.5,
		ParamLinkDistance:   80,
		ParamCharge:         -100,
		ParamCenter:         0.2,
		ParamCollide:        0.5,
		ParamCollidePadding: 10,
	}
	for name, v := range params {
		if err := sim.SetForceParameter(name, v); err != nil {
			t.Errorf("SetForceParameter(%s): %v", name, err)
		}
		if got, _ := sim.ForceParameter(name); got != v {
			t.Errorf("ForceParameter(%s) = %f, want %f", name, got, v)
		}
	}
	after := sim.Positions()
	for id := range before {
		if before[id] != after[id] {
			t.Errorf("changing parameters moved %s", id)
		}
	}

	if err := sim.SetForceParameter("gravity", 1); !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("expected ErrUnknownParameter, got %v", err)
	}
}

func TestCoincidentBodiesSeparate(t *testing.T) {
	start := &model.Point{X: 10, Y: 10}
	sim, err := New([]Body{{ID: "a", Radius: 5, Start: start}, {ID: "b", Radius: 5, Start: start}}, nil, DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 100; i++ {
		sim.Step()
	}
	a, _ := sim.Position("a")
	b, _ := sim.Position("b")
	if dist(a, b) < 1 {
		t.Errorf("coincident bodies did not separate: %v %v", a, b)
	}
	for _, p := range []model.Point{a, b} {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			t.Fatalf("NaN position %v", p)
		}
	}
}

func TestSetCenterMovesLayout(t *testing.T) {
	sim := scenario(t)
	sim.SetCenter(1000, 1000)
	if c := sim.Center(); c != (model.Point{X: 1000, Y: 1000}) {
		t.Fatalf("Center() = %v", c)
	}
	sim.Restart(1)
	for sim.Step() {
	}
	var cx float64
	for _, p := range sim.Positions() {
		cx += p.X
	}
	if cx/4 < 900 {
		t.Errorf("expected layout to drift toward the new center, mean x = %.1f", cx/4)
	}
}
