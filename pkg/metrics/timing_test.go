package metrics

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTimingMetricRecord(t *testing.T) {
	m := NewTimingMetric("test")
	m.Record(2 * time.Millisecond)
	m.Record(4 * time.Millisecond)

	s := m.Stats()
	if s.Count != 2 {
		t.Fatalf("expected count 2, got %d", s.Count)
	}
	if s.MinMs != 2 || s.MaxMs != 4 || s.AvgMs != 3 || s.TotalMs != 6 {
		t.Errorf("unexpected stats: %+v", s)
	}

	m.Reset()
	if m.Count() != 0 || m.Stats().MaxMs != 0 {
		t.Error("Reset did not clear the metric")
	}
}

func TestTimingMetricConcurrent(t *testing.T) {
	m := NewTimingMetric("concurrent")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Record(time.Microsecond)
			}
		}()
	}
	wg.Wait()
	if m.Count() != 800 {
		t.Errorf("expected 800 records, got %d", m.Count())
	}
}

func TestDisabledSkipsRecording(t *testing.T) {
	SetEnabled(false)
	defer SetEnabled(true)

	m := NewTimingMetric("off")
	Timer(m)()
	m.Record(time.Second)
	if m.Count() != 0 {
		t.Error("disabled metrics must not record")
	}
}

func TestRegistryTable(t *testing.T) {
	SetEnabled(true)
	r := NewRegistry()
	r.LayoutTick.Record(time.Millisecond)
	Timer(r.Export)()

	stats := r.Stats()
	if len(stats) != 2 {
		t.Fatalf("expected 2 non-empty metrics, got %d", len(stats))
	}

	var buf bytes.Buffer
	if err := r.WriteTable(&buf); err != nil {
		t.Fatalf("WriteTable: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "layout_tick") || !strings.Contains(out, "export") {
		t.Errorf("table missing rows:\n%s", out)
	}
	if strings.Contains(out, "graph_mount") {
		t.Errorf("empty metrics should be omitted:\n%s", out)
	}

	r.ResetAll()
	if len(r.Stats()) != 0 {
		t.Error("ResetAll left data behind")
	}
}

func TestNilMetricIsSafe(t *testing.T) {
	var m *TimingMetric
	m.Record(time.Second)
	Timer(m)()
}
