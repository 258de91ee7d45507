package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestDebouncer_CoalescesRapidTriggers(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var callCount atomic.Int32
	for i := 0; i < 10; i++ {
		d.Trigger(func() {
			callCount.Add(1)
		})
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)

	if count := callCount.Load(); count != 1 {
		t.Errorf("expected 1 callback invocation, got %d", count)
	}
}

func TestDebouncer_LatestCallbackWins(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var got atomic.Int32
	d.Trigger(func() { got.Store(1) })
	d.Trigger(func() { got.Store(2) })

	time.Sleep(100 * time.Millisecond)
	if v := got.Load(); v != 2 {
		t.Errorf("expected latest callback to run, got %d", v)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var called atomic.Bool
	d.Trigger(func() {
		called.Store(true)
	})
	d.Cancel()

	time.Sleep(100 * time.Millisecond)

	if called.Load() {
		t.Error("callback should not have been invoked after cancel")
	}
}

func TestDebouncer_DefaultDuration(t *testing.T) {
	d := NewDebouncer(0)
	if d.Duration() != DefaultDebounceDuration {
		t.Errorf("expected default duration %v, got %v", DefaultDebounceDuration, d.Duration())
	}
}

func writeDataset(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "concepts.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func startWatcher(t *testing.T, path string, opts ...Option) *Watcher {
	t.Helper()
	w, err := New(path, opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
	return w
}

// nextEvent waits for one event or fails after within.
func nextEvent(t *testing.T, w *Watcher, within time.Duration) Event {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev
	case <-time.After(within):
		t.Fatalf("no event within %v", within)
		return Event{}
	}
}

func expectQuiet(t *testing.T, w *Watcher, d time.Duration) {
	t.Helper()
	select {
	case ev := <-w.Events():
		t.Errorf("unexpected %v event", ev.Kind)
	case <-time.After(d):
	}
}

func TestWatcher_ReportsModifiedContent(t *testing.T) {
	path := writeDataset(t, t.TempDir(), "nodes: []")
	w := startWatcher(t, path, WithDebounceDuration(50*time.Millisecond), WithPollInterval(50*time.Millisecond))
	before := w.Digest()

	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte("nodes: [{id: a}]"), 0o644); err != nil {
		t.Fatal(err)
	}

	ev := nextEvent(t, w, time.Second)
	if ev.Kind != Modified || ev.Path != w.Path() {
		t.Fatalf("got %+v, want a modified event for %s", ev, w.Path())
	}
	if ev.Digest == "" || ev.Digest == before || ev.Digest != w.Digest() {
		t.Errorf("digest not updated: before=%s event=%s now=%s", before, ev.Digest, w.Digest())
	}
}

func TestWatcher_PollingFallback(t *testing.T) {
	path := writeDataset(t, t.TempDir(), "nodes: []")
	w := startWatcher(t, path, WithPollInterval(50*time.Millisecond), WithForcePoll(true))
	if !w.IsPolling() {
		t.Error("expected watcher to be in polling mode")
	}

	time.Sleep(30 * time.Millisecond)
	if err := os.WriteFile(path, []byte("nodes: [{id: polled}]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if ev := nextEvent(t, w, time.Second); ev.Kind != Modified {
		t.Errorf("got %v, want modified", ev.Kind)
	}
}

func TestWatcher_IgnoresUnchangedContent(t *testing.T) {
	path := writeDataset(t, t.TempDir(), "nodes: []")
	w := startWatcher(t, path, WithPollInterval(20*time.Millisecond), WithForcePoll(true))

	later := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("nodes: []"), 0o644); err != nil {
		t.Fatal(err)
	}
	expectQuiet(t, w, 200*time.Millisecond)
}

func TestWatcher_EnvForcePoll(t *testing.T) {
	t.Setenv(ForcePollEnvVar, "yes")
	path := writeDataset(t, t.TempDir(), "nodes: []")
	w := startWatcher(t, path, WithPollInterval(25*time.Millisecond))
	if !w.IsPolling() {
		t.Fatalf("expected polling mode when %s is set", ForcePollEnvVar)
	}
}

func TestWatcher_RemovedThenRecreated(t *testing.T) {
	path := writeDataset(t, t.TempDir(), "nodes: []")
	w := startWatcher(t, path, WithPollInterval(30*time.Millisecond), WithForcePoll(true))

	time.Sleep(40 * time.Millisecond)
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	ev := nextEvent(t, w, time.Second)
	if ev.Kind != Removed || !errors.Is(ev.Err, ErrFileRemoved) {
		t.Fatalf("got %+v, want removed", ev)
	}
	expectQuiet(t, w, 120*time.Millisecond)

	writeDataset(t, filepath.Dir(path), "nodes: [{id: back}]")
	if ev := nextEvent(t, w, time.Second); ev.Kind != Modified {
		t.Errorf("got %v after recreating, want modified", ev.Kind)
	}
}

func TestWatcher_MissingFileAtStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "later.json")
	w := startWatcher(t, path, WithPollInterval(30*time.Millisecond), WithForcePoll(true))
	if w.Digest() != "" {
		t.Errorf("digest of a missing file = %q", w.Digest())
	}
	if err := os.WriteFile(path, []byte(`{"nodes":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if ev := nextEvent(t, w, time.Second); ev.Kind != Modified {
		t.Errorf("got %v, want modified", ev.Kind)
	}
}

func TestWatcher_KeepsLatestUnreadEvent(t *testing.T) {
	w, err := New(filepath.Join(t.TempDir(), "x.json"))
	if err != nil {
		t.Fatal(err)
	}
	w.emit(Event{Kind: Modified, Digest: "first"})
	w.emit(Event{Kind: Modified, Digest: "second"})
	if ev := <-w.Events(); ev.Digest != "second" {
		t.Errorf("got %q, want the newest event", ev.Digest)
	}
}

func TestWatcher_StartStop(t *testing.T) {
	path := writeDataset(t, t.TempDir(), "nodes: []")

	w, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if w.IsStarted() {
		t.Error("watcher should not be started initially")
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if !w.IsStarted() {
		t.Error("watcher should be started")
	}
	if err := w.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("expected ErrAlreadyStarted, got %v", err)
	}

	w.Stop()
	if w.IsStarted() {
		t.Error("watcher should be stopped")
	}
	w.Stop()

	if err := w.Start(); err != nil {
		t.Errorf("restart after stop failed: %v", err)
	}
	w.Stop()
}

func TestWatcher_NoEventsAfterStop(t *testing.T) {
	path := writeDataset(t, t.TempDir(), "nodes: []")
	w, err := New(path, WithDebounceDuration(100*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}

	time.Sleep(30 * time.Millisecond)
	os.WriteFile(path, []byte("nodes: [{id: late}]"), 0o644)
	time.Sleep(20 * time.Millisecond)
	w.Stop()
	expectQuiet(t, w, 250*time.Millisecond)
}

func TestWatcher_PathAndInterval(t *testing.T) {
	dir := t.TempDir()
	w, err := New(filepath.Join(dir, "concepts.json"), WithPollInterval(3*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(w.Path()) || filepath.Base(w.Path()) != "concepts.json" {
		t.Errorf("unexpected path %q", w.Path())
	}
	if w.PollInterval() != 3*time.Second {
		t.Errorf("PollInterval() = %v", w.PollInterval())
	}
}

func TestEventKindString(t *testing.T) {
	for k, want := range map[EventKind]string{Modified: "modified", Removed: "removed", Failed: "failed", 9: "EventKind(9)"} {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(k), got, want)
		}
	}
}

func TestEnvTrue(t *testing.T) {
	tests := []struct {
		val  string
		want bool
	}{
		{"1", true},
		{"true", true},
		{" YES ", true},
		{"on", true},
		{"0", false},
		{"no", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Setenv("CG_TEST_BOOL", tt.val)
		if got := envTrue("CG_TEST_BOOL"); got != tt.want {
			t.Errorf("envTrue(%q) = %v, want %v", tt.val, got, tt.want)
		}
	}
}
