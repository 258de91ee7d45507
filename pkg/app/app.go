// Package app owns the long-lived pieces of a cg session: configuration,
// logger, notification bus, facade, metrics and the mounted graph.
//
// Startup is asynchronous. Init loads the dataset and waits for the rendering
// surface to report a usable size in parallel, then mounts the graph; the
// whole sequence is bounded by the configured init timeout.
package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/vanderheijden86/conceptgraph/pkg/conceptgraph"
	"github.com/vanderheijden86/conceptgraph/pkg/config"
	"github.com/vanderheijden86/conceptgraph/pkg/events"
	"github.com/vanderheijden86/conceptgraph/pkg/loader"
	"github.com/vanderheijden86/conceptgraph/pkg/metrics"
	"github.com/vanderheijden86/conceptgraph/pkg/model"
	"github.com/vanderheijden86/conceptgraph/pkg/render"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Init task names reported by InitializationTimeoutError.
const (
	TaskDataset = "dataset"
	TaskSurface = "surface"
)

// DefaultInitTimeout bounds Init when the config leaves it unset.
const DefaultInitTimeout = 10 * time.Second

// InitializationTimeoutError is returned when Init does not finish within
// its bound.
type InitializationTimeoutError struct {
	Timeout time.Duration
	Pending []string // tasks still running at the deadline
}

func (e *InitializationTimeoutError) Error() string {
	if len(e.Pending) == 0 {
		return fmt.Sprintf("initialization timed out after %v", e.Timeout)
	}
	return fmt.Sprintf("initialization timed out after %v (waiting for %v)", e.Timeout, e.Pending)
}

func (e *InitializationTimeoutError) Unwrap() error { return context.DeadlineExceeded }

// LoadFunc produces the dataset to mount.
type LoadFunc func(ctx context.Context) (model.Dataset, error)

// Option customizes an App.
type Option func(*App)

// WithLogger sets the operational logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.log = l
		}
	}
}

// WithLoader replaces the config-driven dataset loader.
func WithLoader(fn LoadFunc) Option {
	return func(a *App) { a.load = fn }
}

// WithClock sets the clock used for transitions.
func WithClock(c render.Clock) Option {
	return func(a *App) { a.clock = c }
}

// App is the application object. It is created once per process and passed
// by reference to the UI.
type App struct {
	cfg     config.Config
	log     *zap.Logger
	bus     *events.Bus
	facade  *conceptgraph.Facade
	metrics *metrics.Registry

	load  LoadFunc
	clock render.Clock

	mu    sync.Mutex
	graph *conceptgraph.Graph
	unsub func()
}

// New builds an App. Nothing is loaded until Init.
func New(cfg config.Config, opts ...Option) *App {
	a := &App{
		cfg:     cfg,
		log:     zap.NewNop(),
		metrics: metrics.NewRegistry(),
		clock:   render.SystemClock{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.load == nil {
		a.load = a.loadFromConfig
	}
	a.bus = events.NewBus(a.log.Named("bus"))
	a.facade = conceptgraph.NewFacade(a.log.Named("facade"))
	a.unsub = events.Subscribe(a.bus, events.NodeSelectedTopic, func(sel model.NodeSelected) {
		a.log.Debug("node selected", zap.String("id", sel.ID), zap.String("kind", string(sel.Kind)))
	})
	return a
}

// Config returns the configuration the App was built with.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the operational logger.
func (a *App) Logger() *zap.Logger { return a.log }

// Bus returns the notification bus.
func (a *App) Bus() *events.Bus { return a.bus }

// Facade returns the command facade. It is usable before Init completes.
func (a *App) Facade() *conceptgraph.Facade { return a.facade }

// Metrics returns the timing registry.
func (a *App) Metrics() *metrics.Registry { return a.metrics }

// Graph returns the mounted graph, or nil.
func (a *App) Graph() *conceptgraph.Graph {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.graph
}

// MountOptions converts the configuration into graph mount options wired to
// this App's logger, bus and metrics.
func (a *App) MountOptions() conceptgraph.Options {
	ro := a.cfg.RenderOptions()
	ro.Clock = a.clock
	return conceptgraph.Options{
		Layout:         a.cfg.LayoutOptions(),
		Render:         ro,
		CameraDuration: a.cfg.Graph.Animation.Camera,
		Fill:           a.cfg.Graph.Fill,
		Logger:         a.log.Named("graph"),
		Notifier:       a.bus,
		Metrics:        a.metrics,
	}
}

// Init loads the dataset and waits for the surface concurrently, then mounts
// the graph and attaches it to the facade. It fails with
// *InitializationTimeoutError when the configured bound elapses first.
func (a *App) Init(ctx context.Context, surface conceptgraph.Surface) (*conceptgraph.Graph, error) {
	if surface == nil {
		return nil, conceptgraph.ErrNoSurface
	}
	timeout := a.cfg.InitTimeout
	if timeout <= 0 {
		timeout = DefaultInitTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pending := newTaskSet(TaskDataset, TaskSurface)
	var ds model.Dataset

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := bounded(gctx, a.load)
		if err != nil {
			return err
		}
		ds = d
		pending.done(TaskDataset)
		return nil
	})
	g.Go(func() error {
		if err := waitForSurface(gctx, surface); err != nil {
			return err
		}
		pending.done(TaskSurface)
		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			terr := &InitializationTimeoutError{Timeout: timeout, Pending: pending.list()}
			a.log.Error("initialization timed out", zap.Duration("timeout", timeout), zap.Strings("pending", terr.Pending))
			return nil, terr
		}
		return nil, fmt.Errorf("initializing: %w", err)
	}

	graph, err := conceptgraph.Mount(ds, surface, a.MountOptions())
	if err != nil {
		return nil, err
	}
	a.swap(graph)
	return graph, nil
}

// Reload loads the dataset again and mounts it onto surface. The previous
// graph keeps running when loading or mounting fails; on success it is
// stopped and its filter and force settings carry over to the new graph.
func (a *App) Reload(ctx context.Context, surface conceptgraph.Surface) (*conceptgraph.Graph, error) {
	ds, err := a.load(ctx)
	if err != nil {
		a.log.Warn("reload failed", zap.Error(err))
		return nil, fmt.Errorf("reloading: %w", err)
	}
	graph, err := conceptgraph.Mount(ds, surface, a.MountOptions())
	if err != nil {
		a.log.Warn("reload failed", zap.Error(err))
		return nil, err
	}
	if old := a.Graph(); old != nil {
		st := old.State()
		graph.FilterNodes(st.ShowPrimary, st.ShowSecondary)
		if st.ForceStrength != graph.State().ForceStrength {
			graph.UpdateForceStrength(st.ForceStrength)
		}
	}
	a.swap(graph)
	a.log.Info("dataset reloaded", zap.Int("nodes", graph.Model().Len()))
	return graph, nil
}

func (a *App) swap(g *conceptgraph.Graph) {
	a.mu.Lock()
	old := a.graph
	a.graph = g
	a.mu.Unlock()
	if old != nil {
		old.Stop()
	}
	a.facade.Attach(g)
}

// Close stops the graph and drops bus subscriptions.
func (a *App) Close() {
	if g := a.facade.Detach(); g != nil {
		g.Stop()
	}
	a.mu.Lock()
	a.graph = nil
	a.mu.Unlock()
	if a.unsub != nil {
		a.unsub()
		a.unsub = nil
	}
	a.bus.Clear()
	_ = a.log.Sync()
}

func (a *App) loadFromConfig(ctx context.Context) (model.Dataset, error) {
	defer metrics.Timer(a.metrics.Load)()
	path := loader.ResolvePath(a.cfg.Data)
	return loader.LoadContext(ctx, path, loader.ParseOptions{
		WarningHandler: func(msg string) {
			a.log.Warn("dataset warning", zap.String("path", path), zap.String("detail", msg))
		},
	})
}

// bounded runs fn but returns as soon as ctx is done, even if fn ignores it.
func bounded(ctx context.Context, fn LoadFunc) (model.Dataset, error) {
	type result struct {
		ds  model.Dataset
		err error
	}
	ch := make(chan result, 1)
	go func() {
		ds, err := fn(ctx)
		ch <- result{ds, err}
	}()
	select {
	case r := <-ch:
		return r.ds, r.err
	case <-ctx.Done():
		return model.Dataset{}, ctx.Err()
	}
}

// ReadySurface is a Surface that announces when it first gets a usable size.
// Init waits on Ready for a surface that is still unsized.
type ReadySurface interface {
	conceptgraph.Surface
	Ready() <-chan struct{}
}

// ErrSurfaceUnsized is returned by Init for an unsized surface that cannot
// announce when it is ready.
var ErrSurfaceUnsized = errors.New("surface has no size")

// waitForSurface returns once the surface has a non-zero size.
func waitForSurface(ctx context.Context, s conceptgraph.Surface) error {
	if w, h := s.Size(); w > 0 && h > 0 {
		return nil
	}
	rs, ok := s.(ReadySurface)
	if !ok {
		return ErrSurfaceUnsized
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-rs.Ready():
		return nil
	}
}

type taskSet struct {
	mu    sync.Mutex
	order []string
	open  map[string]bool
}

func newTaskSet(names ...string) *taskSet {
	ts := &taskSet{order: names, open: make(map[string]bool, len(names))}
	for _, n := range names {
		ts.open[n] = true
	}
	return ts
}

func (ts *taskSet) done(name string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	delete(ts.open, name)
}

func (ts *taskSet) list() []string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	out := slices.DeleteFunc(slices.Clone(ts.order), func(n string) bool { return !ts.open[n] })
	return out
}
