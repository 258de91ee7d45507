// Package ui is the terminal front end of cg: a bubbletea program that draws
// the mounted concept graph on a cell canvas, forwards pointer input to the
// interaction controller and hosts the control drawer.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vanderheijden86/conceptgraph/pkg/app"
	"github.com/vanderheijden86/conceptgraph/pkg/conceptgraph"
	"github.com/vanderheijden86/conceptgraph/pkg/events"
	"github.com/vanderheijden86/conceptgraph/pkg/interact"
	"github.com/vanderheijden86/conceptgraph/pkg/model"
	"github.com/vanderheijden86/conceptgraph/pkg/watcher"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// Camera steps for keyboard and wheel navigation.
const (
	ZoomFactor = 1.25
	WheelZoom  = 1.1
	PanCells   = 4
)

const (
	headerRows   = 1
	footerRows   = 1
	tooltipWidth = 32
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// mountedMsg carries the graph mounted by the init command. Ownership of the
// graph moves to the UI loop with it.
type mountedMsg struct {
	graph *conceptgraph.Graph
	err   error
}

// tickMsg drives one animation frame.
type tickMsg time.Time

// FileChangedMsg is sent when the dataset file has new content.
type FileChangedMsg struct{ Path string }

// FileErrorMsg is sent when the dataset file disappears or cannot be read.
type FileErrorMsg struct{ Err error }

// WatchFileCmd waits for the next dataset event from w.
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		ev := <-w.Events()
		if ev.Kind == watcher.Modified {
			return FileChangedMsg{Path: ev.Path}
		}
		return FileErrorMsg{Err: ev.Err}
	}
}

// InitCmd mounts the graph through a and reports the result as a message.
func InitCmd(a *app.App, s conceptgraph.Surface) tea.Cmd {
	return func() tea.Msg {
		g, err := a.Init(context.Background(), s)
		return mountedMsg{graph: g, err: err}
	}
}

func tickCmd(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// pointer tracks a mouse press on the canvas.
type pointer struct {
	pressed  bool
	nodeID   string // node under the press, "" when panning
	moved    bool
	col, row int
}

// Model is the bubbletea model of the graph view.
type Model struct {
	app     *app.App
	log     *zap.Logger
	surface *Surface
	drawer  *Drawer
	watcher *watcher.Watcher
	graph   *conceptgraph.Graph
	unsub   func()

	theme Theme
	keys  KeyMap
	help  help.Model
	frame time.Duration
	now   func() time.Time

	width, height int
	drawerOpen    bool
	showHelp      bool
	initErr       error
	statusMsg     string
	statusIsErr   bool
	ptr           pointer
}

// Option customizes a Model.
type Option func(*Model)

// WithWatcher reloads the dataset whenever w reports a change.
func WithWatcher(w *watcher.Watcher) Option {
	return func(m *Model) { m.watcher = w }
}

// WithNow sets the clock used for toasts.
func WithNow(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithRenderer sets the lipgloss renderer.
func WithRenderer(r *lipgloss.Renderer) Option {
	return func(m *Model) {
		m.theme = NewTheme(r, m.app.Config().UI.Theme)
	}
}

// NewModel builds the graph view over a. The drawer listens for selection
// notifications on a's bus until Close.
func NewModel(a *app.App, opts ...Option) Model {
	cfg := a.Config()
	m := Model{
		app:        a,
		log:        a.Logger().Named("ui"),
		surface:    NewSurface(),
		theme:      NewTheme(lipgloss.DefaultRenderer(), cfg.UI.Theme),
		keys:       DefaultKeyMap(),
		help:       help.New(),
		now:        time.Now,
		drawerOpen: true,
	}
	for _, opt := range opts {
		opt(&m)
	}
	fps := cfg.UI.FPS
	if fps <= 0 {
		fps = 30
	}
	m.frame = time.Second / time.Duration(fps)

	defaults := ControlsState{
		ForceStrength: cfg.Graph.Forces.LinkStrength,
		ShowPrimary:   true,
		ShowSecondary: true,
	}
	width := cfg.UI.DrawerWidth
	if width <= 0 {
		width = 36
	}
	m.drawer = NewDrawer(m.theme, a.Facade(), defaults, width, m.now)
	drawer := m.drawer
	m.unsub = events.Subscribe(a.Bus(), events.NodeSelectedTopic, func(sel model.NodeSelected) {
		drawer.ShowSelection(sel)
	})
	return m
}

// Surface returns the canvas surface the graph mounts into.
func (m Model) Surface() *Surface { return m.surface }

// Drawer returns the control drawer.
func (m Model) Drawer() *Drawer { return m.drawer }

// Graph returns the mounted graph, or nil.
func (m Model) Graph() *conceptgraph.Graph { return m.graph }

// Status returns the footer status message.
func (m Model) Status() string { return m.statusMsg }

// Close drops the bus subscription.
func (m Model) Close() {
	if m.unsub != nil {
		m.unsub()
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		InitCmd(m.app, m.surface),
		tickCmd(m.frame),
	}
	if m.watcher != nil {
		cmds = append(cmds, WatchFileCmd(m.watcher))
	}
	return tea.Batch(cmds...)
}

func (m Model) canvasCols() int {
	if m.drawerOpen {
		return max(m.width-m.drawer.Width(), 0)
	}
	return m.width
}

func (m Model) canvasRows() int {
	return max(m.height-headerRows-footerRows, 0)
}

func (m *Model) resize() {
	m.surface.SetCells(m.canvasCols(), m.canvasRows())
	m.help.Width = m.width
	if m.graph != nil {
		m.graph.Resize()
	}
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusIsErr = isErr
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case mountedMsg:
		if msg.err != nil {
			m.initErr = msg.err
			m.log.Error("mount failed", zap.Error(msg.err))
			m.setStatus(fmt.Sprintf("Error: %v", msg.err), true)
			return m, nil
		}
		m.graph = msg.graph
		st := m.graph.State()
		cs := ControlsState{
			ForceStrength: st.ForceStrength,
			ShowPrimary:   st.ShowPrimary,
			ShowSecondary: st.ShowSecondary,
		}
		m.drawer.SetDefaults(cs)
		m.drawer.SetControls(cs)
		m.setStatus(fmt.Sprintf("Loaded %d concepts", m.graph.Model().Len()), false)
		return m, nil

	case tickMsg:
		if m.graph != nil {
			m.graph.Tick(time.Time(msg))
		}
		return m, tickCmd(m.frame)

	case FileChangedMsg:
		m.reload()
		return m, m.watchNext()

	case FileErrorMsg:
		m.log.Warn("dataset unavailable", zap.Error(msg.Err))
		m.drawer.Notify(fmt.Sprintf("Dataset unavailable: %v", msg.Err), FeedbackError)
		return m, m.watchNext()

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}
	return m, nil
}

func (m Model) watchNext() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	return WatchFileCmd(m.watcher)
}

func (m *Model) reload() {
	if m.graph == nil {
		return
	}
	g, err := m.app.Reload(context.Background(), m.surface)
	if err != nil {
		m.drawer.Notify(fmt.Sprintf("Reload failed: %v", err), FeedbackError)
		m.setStatus(fmt.Sprintf("Reload failed: %v", err), true)
		return
	}
	m.graph = g
	st := g.State()
	m.drawer.SetControls(ControlsState{
		ForceStrength: st.ForceStrength,
		ShowPrimary:   st.ShowPrimary,
		ShowSecondary: st.ShowSecondary,
	})
	m.drawer.Notify("Dataset reloaded", FeedbackSuccess)
	m.setStatus(fmt.Sprintf("Reloaded %d concepts", g.Model().Len()), false)
}

func (m Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	if m.showHelp {
		switch {
		case key.Matches(msg, k.Quit):
			return m, tea.Quit
		case key.Matches(msg, k.Help, k.Escape):
			m.showHelp = false
		}
		return m, nil
	}

	m.statusMsg = ""
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.showHelp = true
	case key.Matches(msg, k.Escape):
		if m.graph != nil {
			m.graph.Controller().ClearSelection()
		}
	case key.Matches(msg, k.Reset):
		m.drawer.Reset()
	case key.Matches(msg, k.Center):
		m.drawer.Center()
	case key.Matches(msg, k.ForceUp):
		m.drawer.AdjustForce(ForceStep)
	case key.Matches(msg, k.ForceDown):
		m.drawer.AdjustForce(-ForceStep)
	case key.Matches(msg, k.TogglePrimary):
		m.drawer.TogglePrimary()
	case key.Matches(msg, k.ToggleSecondary):
		m.drawer.ToggleSecondary()
	case key.Matches(msg, k.NextControl):
		m.openDrawer()
		m.drawer.FocusNext()
	case key.Matches(msg, k.PrevControl):
		m.openDrawer()
		m.drawer.FocusPrev()
	case key.Matches(msg, k.Activate):
		m.drawer.Activate()
	case key.Matches(msg, k.Drawer):
		m.drawerOpen = !m.drawerOpen
		m.resize()
	case key.Matches(msg, k.Copy):
		m.copySelection()
	case key.Matches(msg, k.ZoomIn):
		m.zoom(ZoomFactor)
	case key.Matches(msg, k.ZoomOut):
		m.zoom(1 / ZoomFactor)
	case key.Matches(msg, k.PanLeft):
		m.pan(PanCells, 0)
	case key.Matches(msg, k.PanRight):
		m.pan(-PanCells, 0)
	case key.Matches(msg, k.PanUp):
		m.pan(0, PanCells)
	case key.Matches(msg, k.PanDown):
		m.pan(0, -PanCells)
	}
	return m, nil
}

func (m *Model) openDrawer() {
	if !m.drawerOpen {
		m.drawerOpen = true
		m.resize()
	}
}

func (m *Model) zoom(factor float64) {
	if m.graph == nil {
		return
	}
	w, h := m.surface.Size()
	m.graph.Viewport().ZoomAt(model.Point{X: float64(w) / 2, Y: float64(h) / 2}, factor)
}

func (m *Model) pan(cols, rows int) {
	if m.graph == nil {
		return
	}
	m.graph.Viewport().Pan(float64(cols*CellWidth), float64(rows*CellHeight))
}

func (m *Model) copySelection() {
	sel, ok := m.drawer.Selection()
	if !ok {
		m.setStatus("Nothing selected", true)
		return
	}
	text := sel.Name
	if sel.Description != "" {
		text += ": " + sel.Description
	}
	if err := writeClipboard(text); err != nil {
		m.setStatus(fmt.Sprintf("Clipboard error: %v", err), true)
		return
	}
	m.setStatus(fmt.Sprintf("Copied %s to clipboard", sel.Name), false)
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	col, row := msg.X, msg.Y-headerRows
	if m.drawerOpen && col >= m.canvasCols() {
		m.handleDrawerMouse(msg, col-m.canvasCols(), row)
		return
	}
	if m.graph == nil || row < 0 || row >= m.canvasRows() {
		return
	}
	at := PointOf(col, row)
	ctrl := m.graph.Controller()

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.graph.Viewport().ZoomAt(at, WheelZoom)
		case tea.MouseButtonWheelDown:
			m.graph.Viewport().ZoomAt(at, 1/WheelZoom)
		case tea.MouseButtonLeft:
			id, hit := m.graph.NodeAt(at)
			m.ptr = pointer{pressed: true, col: col, row: row}
			if hit {
				m.ptr.nodeID = id
				ctrl.DragStart(id, m.graph.WorldPoint(at))
			}
		}

	case tea.MouseActionMotion:
		if m.ptr.pressed {
			if col == m.ptr.col && row == m.ptr.row {
				return
			}
			m.ptr.moved = true
			if m.ptr.nodeID != "" {
				ctrl.DragMove(m.graph.WorldPoint(at))
			} else {
				m.graph.Viewport().Pan(float64((col-m.ptr.col)*CellWidth), float64((row-m.ptr.row)*CellHeight))
			}
			m.ptr.col, m.ptr.row = col, row
		}
		m.hover(at)

	case tea.MouseActionRelease:
		if !m.ptr.pressed {
			return
		}
		p := m.ptr
		m.ptr = pointer{}
		if p.nodeID != "" {
			ctrl.DragEnd()
			if !p.moved {
				ctrl.Click(p.nodeID)
			}
			return
		}
		if !p.moved {
			ctrl.ClearSelection()
		}
	}
}

// hover moves the hover state to whatever node lies under at.
func (m *Model) hover(at model.Point) {
	ctrl := m.graph.Controller()
	id, hit := m.graph.NodeAt(at)
	cur := ctrl.Hovered()
	switch {
	case hit && id == cur:
		ctrl.PointerMove(at)
	case hit:
		if cur != "" {
			ctrl.PointerLeave(cur)
		}
		ctrl.PointerEnter(id, at)
	case cur != "":
		ctrl.PointerLeave(cur)
	}
}

func (m *Model) handleDrawerMouse(msg tea.MouseMsg, col, row int) {
	if msg.Action != tea.MouseActionPress {
		return
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.drawer.ScrollInfo(-1)
	case tea.MouseButtonWheelDown:
		m.drawer.ScrollInfo(1)
	case tea.MouseButtonLeft:
		m.drawer.ClickRow(row, col)
	}
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	if m.showHelp {
		m.help.ShowAll = true
		box := m.theme.Tooltip.Render(m.help.View(m.keys))
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	body := m.renderCanvas()
	if m.drawerOpen {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.drawer.View(m.canvasRows()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

func (m Model) renderHeader() string {
	title := "cg · concept graph"
	if m.graph == nil {
		return m.theme.Header.Width(m.width).Render(title)
	}
	gm := m.graph.Model()
	info := fmt.Sprintf("%s  concepts %d/%d  links %d  %s",
		title, len(gm.VisibleNodeIDs()), gm.Len(), gm.EdgeCount(), m.graph.Controller().Mode())
	return m.theme.Header.Width(m.width).MaxHeight(headerRows).Render(info)
}

func (m Model) renderFooter() string {
	if m.statusMsg != "" {
		style := m.theme.Footer
		if m.statusIsErr {
			style = style.Foreground(m.theme.Danger)
		}
		return style.Width(m.width).MaxHeight(footerRows).Render(m.statusMsg)
	}
	m.help.ShowAll = false
	return m.theme.Footer.Width(m.width).MaxHeight(footerRows).Render(m.help.View(m.keys))
}

func (m Model) renderCanvas() string {
	cols, rows := m.canvasCols(), m.canvasRows()
	if m.graph == nil {
		text := "Loading concepts..."
		style := m.theme.MutedText
		if m.initErr != nil {
			text = fmt.Sprintf("Could not load the graph:\n%v", m.initErr)
			style = m.theme.ErrorText
		}
		return lipgloss.Place(cols, rows, lipgloss.Center, lipgloss.Center, style.Render(text))
	}
	cv := NewCanvas(cols, rows, m.theme.CanvasBg)
	cv.Draw(m.graph.Renderer().Scene(), m.graph.Viewport().Transform())
	if tip := m.graph.Controller().Tooltip(); tip.Visible {
		m.drawTooltip(cv, tip)
	}
	return cv.Render(m.theme.Renderer)
}

func (m Model) drawTooltip(cv *Canvas, tip interact.Tooltip) {
	lines := []string{tip.Name, tip.KindLabel}
	if tip.Description != "" {
		wrapped := m.theme.Renderer.NewStyle().Width(tooltipWidth).Render(tip.Description)
		for _, l := range strings.Split(wrapped, "\n") {
			lines = append(lines, strings.TrimRight(l, " "))
		}
	}
	col, row := CellOf(model.Point{X: tip.X, Y: tip.Y})
	cv.Box(col, row, lines, BoxColors{
		Border: m.theme.pick(m.theme.Accent),
		Title:  m.theme.pick(m.theme.Primary),
		Text:   m.theme.pick(m.theme.Subtext),
	})
}
