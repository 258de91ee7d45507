// Package metrics provides in-memory timing instrumentation for the layout,
// render and export paths.
//
// Metrics use atomic counters so the exporter and the UI loop can record
// concurrently. Collection can be disabled via CG_METRICS=0.
//
// Usage:
//
//	func (g *Graph) step() {
//	    defer metrics.Timer(g.metrics.LayoutTick)()
//	    // ...
//	}
package metrics

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"text/tabwriter"
	"time"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("CG_METRICS") != "0")
}

// Enabled returns whether metrics collection is enabled.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled allows programmatic control of metrics collection.
func SetEnabled(e bool) {
	enabled.Store(e)
}

// TimingMetric tracks timing statistics for a named operation.
type TimingMetric struct {
	name    string
	count   atomic.Int64
	totalNs atomic.Int64
	maxNs   atomic.Int64
	minNs   atomic.Int64 // 0 means not set
}

// NewTimingMetric creates a detached timing metric.
func NewTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record records a single measurement.
func (m *TimingMetric) Record(d time.Duration) {
	if m == nil || !Enabled() {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.totalNs.Add(ns)

	for {
		old := m.maxNs.Load()
		if ns <= old || m.maxNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.minNs.Load()
		if old != 0 && ns >= old {
			break
		}
		if m.minNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Name returns the metric name.
func (m *TimingMetric) Name() string { return m.name }

// Count returns the number of recorded measurements.
func (m *TimingMetric) Count() int64 { return m.count.Load() }

// Stats returns all timing statistics at once.
func (m *TimingMetric) Stats() TimingStats {
	count := m.count.Load()
	total := m.totalNs.Load()
	var avg int64
	if count > 0 {
		avg = total / count
	}
	return TimingStats{
		Name:    m.name,
		Count:   count,
		TotalMs: float64(total) / 1e6,
		AvgMs:   float64(avg) / 1e6,
		MaxMs:   float64(m.maxNs.Load()) / 1e6,
		MinMs:   float64(m.minNs.Load()) / 1e6,
	}
}

// Reset clears all recorded measurements.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.totalNs.Store(0)
	m.maxNs.Store(0)
	m.minNs.Store(0)
}

// TimingStats holds a snapshot of timing statistics.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	MinMs   float64 `json:"min_ms,omitempty"`
}

// Timer returns a function that records elapsed time when called:
//
//	defer metrics.Timer(m)()
func Timer(m *TimingMetric) func() {
	if m == nil || !Enabled() {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.Record(time.Since(start))
	}
}

// Registry groups the metrics of one application instance.
type Registry struct {
	Load       *TimingMetric
	Mount      *TimingMetric
	LayoutTick *TimingMetric
	RenderTick *TimingMetric
	Export     *TimingMetric
}

// NewRegistry creates a registry with empty metrics.
func NewRegistry() *Registry {
	return &Registry{
		Load:       NewTimingMetric("dataset_load"),
		Mount:      NewTimingMetric("graph_mount"),
		LayoutTick: NewTimingMetric("layout_tick"),
		RenderTick: NewTimingMetric("render_tick"),
		Export:     NewTimingMetric("export"),
	}
}

// All returns every metric in display order.
func (r *Registry) All() []*TimingMetric {
	return []*TimingMetric{r.Load, r.Mount, r.LayoutTick, r.RenderTick, r.Export}
}

// ResetAll resets every metric.
func (r *Registry) ResetAll() {
	for _, m := range r.All() {
		m.Reset()
	}
}

// Stats returns stats for metrics that recorded anything.
func (r *Registry) Stats() []TimingStats {
	all := r.All()
	stats := make([]TimingStats, 0, len(all))
	for _, m := range all {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}

// WriteTable prints the non-empty metrics as an aligned table.
func (r *Registry) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tCOUNT\tAVG ms\tMAX ms\tTOTAL ms")
	for _, s := range r.Stats() {
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%.3f\t%.3f\n", s.Name, s.Count, s.AvgMs, s.MaxMs, s.TotalMs)
	}
	return tw.Flush()
}
