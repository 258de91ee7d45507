// Package layout is a force-directed layout engine in the manner of d3-force:
// many-body repulsion, link springs, centering and collision, cooled by an
// alpha schedule.
//
// A Simulation does no scheduling of its own. The owner calls Step once per
// frame while Running reports true.
package layout

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/vanderheijden86/conceptgraph/pkg/model"

	"gonum.org/v1/gonum/spatial/r2"
)

// Body is a simulated node.
type Body struct {
	ID     string
	Radius float64
	Start  *model.Point // nil places the body on the initial spiral
}

// Link is a spring between two bodies.
type Link struct {
	Source string
	Target string
}

type body struct {
	id     string
	radius float64
	pos    r2.Vec
	vel    r2.Vec
	pinned bool
	pin    r2.Vec
	links  int // degree, for link bias
}

type spring struct {
	s, t int
	bias float64 // share of the correction applied to the target
}

// Simulation is a running force layout. It is not safe for concurrent use.
type Simulation struct {
	opts   Options
	bodies []body
	index  map[string]int
	links  []spring

	alpha       float64
	alphaTarget float64

	rng *rand.Rand
}

const initialRadius = 10.0

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// New builds a simulation over bodies and links. Link endpoints must name
// existing bodies. Self links are accepted and exert no force.
func New(bodies []Body, links []Link, opts Options) (*Simulation, error) {
	s := &Simulation{
		opts:   opts,
		bodies: make([]body, len(bodies)),
		index:  make(map[string]int, len(bodies)),
		alpha:  1,
		rng:    rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)),
	}
	for i, b := range bodies {
		s.index[b.ID] = i
		s.bodies[i] = body{id: b.ID, radius: b.Radius}
		if b.Start != nil {
			s.bodies[i].pos = r2.Vec{X: b.Start.X, Y: b.Start.Y}
			continue
		}
		r := initialRadius * math.Sqrt(0.5+float64(i))
		a := float64(i) * initialAngle
		s.bodies[i].pos = r2.Vec{
			X: opts.CenterX + r*math.Cos(a),
			Y: opts.CenterY + r*math.Sin(a),
		}
	}

	for _, l := range links {
		si, ok := s.index[l.Source]
		if !ok {
			return nil, fmt.Errorf("link %s -> %s: %w %q", l.Source, l.Target, ErrUnknownBody, l.Source)
		}
		ti, ok := s.index[l.Target]
		if !ok {
			return nil, fmt.Errorf("link %s -> %s: %w %q", l.Source, l.Target, ErrUnknownBody, l.Target)
		}
		if si == ti {
			continue
		}
		s.bodies[si].links++
		s.bodies[ti].links++
		s.links = append(s.links, spring{s: si, t: ti})
	}
	for i := range s.links {
		sp := &s.links[i]
		ds, dt := float64(s.bodies[sp.s].links), float64(s.bodies[sp.t].links)
		sp.bias = ds / (ds + dt)
	}
	return s, nil
}

// Step advances one tick and reports whether the simulation is still running.
// A stopped simulation does not move.
func (s *Simulation) Step() bool {
	if !s.Running() {
		return false
	}
	s.alpha += (s.alphaTarget - s.alpha) * s.opts.AlphaDecay

	s.applyLinks()
	s.applyCharge()
	s.applyCenter()
	s.applyCollide()

	decay := 1 - s.opts.VelocityDecay
	for i := range s.bodies {
		b := &s.bodies[i]
		if b.pinned {
			b.pos = b.pin
			b.vel = r2.Vec{}
			continue
		}
		b.vel = r2.Scale(decay, b.vel)
		b.pos = r2.Add(b.pos, b.vel)
	}
	return s.Running()
}

// Running reports whether ticks still move bodies.
func (s *Simulation) Running() bool {
	return s.alpha >= s.opts.AlphaMin || s.alphaTarget >= s.opts.AlphaMin
}

// Alpha returns the current energy.
func (s *Simulation) Alpha() float64 { return s.alpha }

// AlphaTarget returns the energy the simulation cools (or warms) toward.
func (s *Simulation) AlphaTarget() float64 { return s.alphaTarget }

// Restart re-injects energy. Alpha never drops because of a restart.
func (s *Simulation) Restart(energy float64) {
	if energy > s.alpha {
		s.alpha = energy
	}
}

// SetAlphaTarget sets the energy level alpha converges to.
func (s *Simulation) SetAlphaTarget(t float64) {
	s.alphaTarget = t
}

// Pin fixes a body at (x, y) until Unpin.
func (s *Simulation) Pin(id string, x, y float64) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("pin %q: %w", id, ErrUnknownBody)
	}
	s.bodies[i].pinned = true
	s.bodies[i].pin = r2.Vec{X: x, Y: y}
	return nil
}

// Unpin releases a pinned body back to the forces.
func (s *Simulation) Unpin(id string) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("unpin %q: %w", id, ErrUnknownBody)
	}
	s.bodies[i].pinned = false
	return nil
}

// Pinned reports whether id is pinned and where.
func (s *Simulation) Pinned(id string) (model.Point, bool) {
	i, ok := s.index[id]
	if !ok || !s.bodies[i].pinned {
		return model.Point{}, false
	}
	p := s.bodies[i].pin
	return model.Point{X: p.X, Y: p.Y}, true
}

// Position returns the current position of id.
func (s *Simulation) Position(id string) (model.Point, bool) {
	i, ok := s.index[id]
	if !ok {
		return model.Point{}, false
	}
	p := s.bodies[i].pos
	return model.Point{X: p.X, Y: p.Y}, true
}

// Positions returns every body position keyed by id.
func (s *Simulation) Positions() map[string]model.Point {
	out := make(map[string]model.Point, len(s.bodies))
	for _, b := range s.bodies {
		out[b.id] = model.Point{X: b.pos.X, Y: b.pos.Y}
	}
	return out
}

// SetCenter moves the centering target.
func (s *Simulation) SetCenter(x, y float64) {
	s.opts.CenterX, s.opts.CenterY = x, y
}

// Center returns the centering target.
func (s *Simulation) Center() model.Point {
	return model.Point{X: s.opts.CenterX, Y: s.opts.CenterY}
}

// SetForceParameter replaces one force parameter in place. Positions and
// velocities are kept.
func (s *Simulation) SetForceParameter(name string, value float64) error {
	switch name {
	case ParamLink:
		s.opts.LinkStrength = value
	case ParamLinkDistance:
		s.opts.LinkDistance = value
	case ParamCharge:
		s.opts.Charge = value
	case ParamCenter:
		s.opts.CenterStrength = value
	case ParamCollide:
		s.opts.CollideStrength = value
	case ParamCollidePadding:
		s.opts.CollidePadding = value
	default:
		return fmt.Errorf("%w %q", ErrUnknownParameter, name)
	}
	return nil
}

// ForceParameter reads back a force parameter.
func (s *Simulation) ForceParameter(name string) (float64, error) {
	switch name {
	case ParamLink:
		return s.opts.LinkStrength, nil
	case ParamLinkDistance:
		return s.opts.LinkDistance, nil
	case ParamCharge:
		return s.opts.Charge, nil
	case ParamCenter:
		return s.opts.CenterStrength, nil
	case ParamCollide:
		return s.opts.CollideStrength, nil
	case ParamCollidePadding:
		return s.opts.CollidePadding, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownParameter, name)
}

// jiggle returns a tiny random offset used when two bodies coincide.
func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}
