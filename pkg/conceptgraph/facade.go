package conceptgraph

import (
	"sync"

	"go.uber.org/zap"
)

// Facade is the command surface handed to the drawer and control panel. It
// exists before the graph is mounted; commands issued while nothing is
// attached are logged and dropped.
type Facade struct {
	mu  sync.RWMutex
	g   *Graph
	log *zap.Logger
}

// NewFacade returns an unattached facade.
func NewFacade(log *zap.Logger) *Facade {
	if log == nil {
		log = zap.NewNop()
	}
	return &Facade{log: log}
}

// Attach binds the facade to a mounted graph, replacing any previous one.
func (f *Facade) Attach(g *Graph) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.g = g
}

// Detach unbinds the facade and returns the graph it held.
func (f *Facade) Detach() *Graph {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.g
	f.g = nil
	return g
}

// Graph returns the attached graph, or nil.
func (f *Facade) Graph() *Graph {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.g
}

// Mounted reports whether a live graph is attached.
func (f *Facade) Mounted() bool {
	g := f.Graph()
	return g != nil && !g.Stopped()
}

func (f *Facade) target(cmd string) *Graph {
	g := f.Graph()
	if g == nil || g.Stopped() {
		f.log.Warn("graph command before mount", zap.String("command", cmd))
		return nil
	}
	return g
}

// ResetView animates the camera back to identity.
func (f *Facade) ResetView() {
	if g := f.target("resetView"); g != nil {
		g.ResetView()
	}
}

// CenterGraph fits the visible nodes into the surface.
func (f *Facade) CenterGraph() {
	if g := f.target("centerGraph"); g != nil {
		g.CenterGraph()
	}
}

// UpdateForceStrength sets the link strength.
func (f *Facade) UpdateForceStrength(value float64) {
	if g := f.target("updateForceStrength"); g != nil {
		g.UpdateForceStrength(value)
	}
}

// FilterNodes shows or hides primary and secondary concepts.
func (f *Facade) FilterNodes(showPrimary, showSecondary bool) {
	if g := f.target("filterNodes"); g != nil {
		g.FilterNodes(showPrimary, showSecondary)
	}
}

// State snapshots the attached graph, reporting false when none is mounted.
func (f *Facade) State() (State, bool) {
	g := f.Graph()
	if g == nil {
		return State{}, false
	}
	return g.State(), true
}
