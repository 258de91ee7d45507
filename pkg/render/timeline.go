package render

import "time"

type transition struct {
	from, to Style
	start    time.Time
	dur      time.Duration
	done     func()
}

// Timeline holds at most one running transition per primitive key. Starting
// a transition on a key replaces the pending one, so a cancelled transition
// can never fire later.
type Timeline struct {
	active map[string]*transition
}

// NewTimeline returns an empty timeline.
func NewTimeline() *Timeline {
	return &Timeline{active: make(map[string]*transition)}
}

// Start schedules key to move from -> to over dur beginning at now. done, if
// non-nil, runs once when the transition completes (never if replaced).
func (tl *Timeline) Start(key string, from, to Style, now time.Time, dur time.Duration, done func()) {
	tl.active[key] = &transition{from: from, to: to, start: now, dur: dur, done: done}
}

// Cancel drops the pending transition on key.
func (tl *Timeline) Cancel(key string) {
	delete(tl.active, key)
}

// Pending reports whether key has a running transition.
func (tl *Timeline) Pending(key string) bool {
	_, ok := tl.active[key]
	return ok
}

// Target returns the style key is heading to.
func (tl *Timeline) Target(key string) (Style, bool) {
	tr, ok := tl.active[key]
	if !ok {
		return Style{}, false
	}
	return tr.to, true
}

// Len returns the number of running transitions.
func (tl *Timeline) Len() int { return len(tl.active) }

// Advance evaluates every transition at now, calling set with the current
// style. Finished transitions are removed and their done callbacks run.
func (tl *Timeline) Advance(now time.Time, set func(key string, s Style)) {
	var finished []*transition
	for key, tr := range tl.active {
		t := 1.0
		if tr.dur > 0 {
			t = float64(now.Sub(tr.start)) / float64(tr.dur)
		}
		if t < 0 {
			t = 0
		}
		if t >= 1 {
			set(key, tr.to)
			delete(tl.active, key)
			finished = append(finished, tr)
			continue
		}
		set(key, tr.from.Interpolate(tr.to, easeCubicInOut(t)))
	}
	for _, tr := range finished {
		if tr.done != nil {
			tr.done()
		}
	}
}
