// Package watcher tells a running viewer when its dataset file changed.
//
// Changes are detected with fsnotify on the containing directory, or by
// polling when fsnotify is unavailable or CG_FORCE_POLL is set. Either way a
// change is only reported when the file content differs from the last
// version seen, so saving an unchanged file or touching it does not remount
// the graph.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultPollInterval is how often polling mode re-reads the file.
const DefaultPollInterval = 2 * time.Second

// ForcePollEnvVar forces polling mode when set to a true value.
const ForcePollEnvVar = "CG_FORCE_POLL"

var (
	// ErrFileRemoved is reported once when the dataset disappears.
	ErrFileRemoved = errors.New("dataset file was removed")
	// ErrAlreadyStarted is returned by a second Start.
	ErrAlreadyStarted = errors.New("watcher already started")
)

// EventKind says what happened to the dataset file.
type EventKind int

const (
	// Modified means the file has new content.
	Modified EventKind = iota
	// Removed means the file no longer exists.
	Removed
	// Failed means the file could not be read or watched.
	Failed
)

func (k EventKind) String() string {
	switch k {
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	case Failed:
		return "failed"
	default:
		return "EventKind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Event is one report about the dataset file.
type Event struct {
	Kind   EventKind
	Path   string
	Digest string // content digest after a Modified event
	Err    error  // set for Removed and Failed
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets how long fsnotify bursts are coalesced.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithPollInterval sets the polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.pollEvery = d
		}
	}
}

// WithForcePoll selects polling even when fsnotify works.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) { w.forcePoll = force }
}

// WithLogger sets the operational logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// Watcher reports content changes of one dataset file on Events.
type Watcher struct {
	path      string
	debounce  time.Duration
	pollEvery time.Duration
	forcePoll bool
	log       *zap.Logger
	events    chan Event

	mu       sync.Mutex
	started  bool
	polling  bool
	cancel   context.CancelFunc
	done     sync.WaitGroup
	deb      *Debouncer
	fsw      *fsnotify.Watcher
	digest   string
	missing  bool
	lastRead error
}

// New creates a watcher for path. Nothing is watched until Start.
func New(path string, opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	w := &Watcher{
		path:      abs,
		debounce:  DefaultDebounceDuration,
		pollEvery: DefaultPollInterval,
		log:       zap.NewNop(),
		events:    make(chan Event, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.deb = NewDebouncer(w.debounce)
	return w, nil
}

// Start records the current content and begins watching.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return ErrAlreadyStarted
	}

	digest, err := fingerprint(w.path)
	switch {
	case err == nil:
		w.digest, w.missing = digest, false
	case errors.Is(err, os.ErrNotExist):
		w.digest, w.missing = "", true
	default:
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.polling = w.forcePoll || envTrue(ForcePollEnvVar)
	if !w.polling {
		if err := w.startNotify(ctx); err != nil {
			w.log.Warn("fsnotify unavailable, polling instead", zap.Error(err))
			w.polling = true
		}
	}
	if w.polling {
		w.done.Add(1)
		go w.poll(ctx)
	}
	w.started = true
	w.log.Debug("watching dataset", zap.String("path", w.path), zap.Bool("polling", w.polling))
	return nil
}

// startNotify watches the directory because editors often save by writing a
// new file and renaming it over the old one.
func (w *Watcher) startNotify(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return err
	}
	w.fsw = fsw
	w.done.Add(1)
	go w.listen(ctx, fsw)
	return nil
}

// Stop ends watching and waits for the watch goroutine. Events stays open
// so a pending receiver never sees a spurious change.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	w.started = false
	w.cancel()
	if w.fsw != nil {
		w.fsw.Close()
		w.fsw = nil
	}
	w.deb.Cancel()
	w.mu.Unlock()
	w.done.Wait()
}

// Events delivers change reports. Unread reports are replaced by newer ones.
func (w *Watcher) Events() <-chan Event { return w.events }

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// PollInterval returns the polling interval.
func (w *Watcher) PollInterval() time.Duration { return w.pollEvery }

// IsPolling reports whether the watcher fell back to polling.
func (w *Watcher) IsPolling() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.polling
}

// IsStarted reports whether the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started
}

// Digest returns the digest of the content last seen.
func (w *Watcher) Digest() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.digest
}

func (w *Watcher) listen(ctx context.Context, fsw *fsnotify.Watcher) {
	defer w.done.Done()
	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove) {
				w.deb.Trigger(w.check)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.String("path", w.path), zap.Error(err))
			w.emit(Event{Kind: Failed, Path: w.path, Err: err})
		}
	}
}

func (w *Watcher) poll(ctx context.Context) {
	defer w.done.Done()
	t := time.NewTicker(w.pollEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.check()
		}
	}
}

// check compares the file against the last digest and reports a difference.
func (w *Watcher) check() {
	digest, err := fingerprint(w.path)

	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	var ev *Event
	switch {
	case errors.Is(err, os.ErrNotExist):
		if !w.missing {
			w.missing, w.digest = true, ""
			ev = &Event{Kind: Removed, Path: w.path, Err: ErrFileRemoved}
		}
	case err != nil:
		if w.lastRead == nil || w.lastRead.Error() != err.Error() {
			ev = &Event{Kind: Failed, Path: w.path, Err: err}
		}
	case digest != w.digest:
		w.missing, w.digest = false, digest
		ev = &Event{Kind: Modified, Path: w.path, Digest: digest}
	}
	w.lastRead = err
	w.mu.Unlock()

	if ev == nil {
		return
	}
	w.log.Debug("dataset event", zap.Stringer("kind", ev.Kind), zap.String("path", w.path), zap.Error(ev.Err))
	w.emit(*ev)
}

// emit delivers ev, dropping an unread older event if needed.
func (w *Watcher) emit(ev Event) {
	for {
		select {
		case w.events <- ev:
			return
		default:
		}
		select {
		case <-w.events:
		default:
		}
	}
}

// fingerprint hashes the file content.
func fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func envTrue(name string) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	switch strings.ToLower(v) {
	case "yes", "y", "on":
		return true
	}
	return false
}
