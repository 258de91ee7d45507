package layout

import (
	"math"

	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r2"
)

// distanceMin2 softens the charge between near-coincident bodies.
const distanceMin2 = 1.0

// particle adapts a body to the Barnes-Hut plane. Every body weighs 1; the
// charge strength is applied in the force function.
type particle struct {
	idx int
	pos r2.Vec
}

func (p *particle) Coord2() r2.Vec { return p.pos }
func (p *particle) Mass() float64 { return 1 }

func (s *Simulation) applyLinks() {
	k := s.alpha * s.opts.LinkStrength
	for _, l := range s.links {
		src, dst := &s.bodies[l.s], &s.bodies[l.t]
		d := r2.Sub(r2.Add(dst.pos, dst.vel), r2.Add(src.pos, src.vel))
		if d.X == 0 {
			d.X = s.jiggle()
		}
		if d.Y == 0 {
			d.Y = s.jiggle()
		}
		n := r2.Norm(d)
		f := r2.Scale((n-s.opts.LinkDistance)/n*k, d)
		dst.vel = r2.Sub(dst.vel, r2.Scale(l.bias, f))
		src.vel = r2.Add(src.vel, r2.Scale(1-l.bias, f))
	}
}

// chargeForce is the many-body interaction as a Force2: v points from p1 to
// the (possibly aggregate) p2 and m2 counts the bodies it stands for.
func (s *Simulation) chargeForce(p1, p2 barneshut.Particle2, _, m2 float64, v r2.Vec) r2.Vec {
	if p2 != nil && p1 == p2 {
		return r2.Vec{}
	}
	if v.X == 0 && v.Y == 0 {
		if p2 == nil {
			return r2.Vec{}
		}
		v = r2.Vec{X: s.jiggle(), Y: s.jiggle()}
	}
	l := r2.Norm2(v)
	if l < distanceMin2 {
		l = math.Sqrt(distanceMin2 * l)
	}
	return r2.Scale(m2*s.opts.Charge*s.alpha/l, v)
}

func (s *Simulation) applyCharge() {
	if s.opts.Charge == 0 || len(s.bodies) < 2 {
		return
	}
	ps := make([]particle, len(s.bodies))
	parts := make([]barneshut.Particle2, len(s.bodies))
	for i := range s.bodies {
		ps[i] = particle{idx: i, pos: s.bodies[i].pos}
		parts[i] = &ps[i]
	}

	theta := s.opts.Theta
	plane, err := barneshut.NewPlane(parts)
	if err != nil {
		// Bodies too spread (or stacked) for the tree; sum directly.
		plane = &barneshut.Plane{Particles: parts}
		theta = 0
	}
	for i := range ps {
		f := plane.ForceOn(&ps[i], theta, s.chargeForce)
		s.bodies[i].vel = r2.Add(s.bodies[i].vel, f)
	}
}

// applyCenter translates every body so the mean position moves toward the
// center target by CenterStrength.
func (s *Simulation) applyCenter() {
	if len(s.bodies) == 0 || s.opts.CenterStrength == 0 {
		return
	}
	var mean r2.Vec
	for _, b := range s.bodies {
		mean = r2.Add(mean, b.pos)
	}
	mean = r2.Scale(1/float64(len(s.bodies)), mean)
	shift := r2.Scale(s.opts.CenterStrength, r2.Sub(mean, r2.Vec{X: s.opts.CenterX, Y: s.opts.CenterY}))
	for i := range s.bodies {
		s.bodies[i].pos = r2.Sub(s.bodies[i].pos, shift)
	}
}

// applyCollide pushes apart bodies whose padded radii overlap, weighting the
// push by the other body's area.
func (s *Simulation) applyCollide() {
	if s.opts.CollideStrength == 0 {
		return
	}
	for i := range s.bodies {
		a := &s.bodies[i]
		ra := a.radius + s.opts.CollidePadding
		pa := r2.Add(a.pos, a.vel)
		for j := i + 1; j < len(s.bodies); j++ {
			b := &s.bodies[j]
			rb := b.radius + s.opts.CollidePadding
			r := ra + rb
			d := r2.Sub(pa, r2.Add(b.pos, b.vel))
			if d.X == 0 {
				d.X = s.jiggle()
			}
			if d.Y == 0 {
				d.Y = s.jiggle()
			}
			l := r2.Norm2(d)
			if l >= r*r {
				continue
			}
			n := math.Sqrt(l)
			d = r2.Scale((r-n)/n*s.opts.CollideStrength, d)
			w := rb * rb / (ra*ra + rb*rb)
			a.vel = r2.Add(a.vel, r2.Scale(w, d))
			b.vel = r2.Sub(b.vel, r2.Scale(1-w, d))
		}
	}
}
