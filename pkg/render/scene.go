package render

// Scene is a point-in-time copy of the drawable primitives in draw order:
// lines first, then circles, then labels. Backends draw a Scene and never
// touch the Renderer's live primitives.
type Scene struct {
	Lines   []Line
	Circles []Circle
	Labels  []Label
}

// Scene snapshots the live primitives.
func (r *Renderer) Scene() Scene {
	var sc Scene
	for _, l := range r.lines {
		if l != nil {
			sc.Lines = append(sc.Lines, *l)
		}
	}
	for i, c := range r.circles {
		if c == nil {
			continue
		}
		sc.Circles = append(sc.Circles, *c)
		sc.Labels = append(sc.Labels, *r.labels[i])
	}
	return sc
}

// Empty reports whether the scene draws nothing.
func (sc Scene) Empty() bool {
	return len(sc.Circles) == 0 && len(sc.Lines) == 0
}
