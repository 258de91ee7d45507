package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vanderheijden86/conceptgraph/pkg/model"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Control is a focusable drawer control.
type Control int

const (
	ControlReset Control = iota
	ControlCenter
	ControlForce
	ControlPrimary
	ControlSecondary
	controlCount
)

func (c Control) String() string {
	switch c {
	case ControlReset:
		return "reset"
	case ControlCenter:
		return "center"
	case ControlForce:
		return "force"
	case ControlPrimary:
		return "primary"
	case ControlSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// Link strength slider bounds.
const (
	ForceMin  = 0.0
	ForceMax  = 2.0
	ForceStep = 0.1
)

// FeedbackDuration is how long a feedback toast stays up.
const FeedbackDuration = 3 * time.Second

// SelectionHighlight is how long the info panel stays outlined after a
// selection.
const SelectionHighlight = 3 * time.Second

const sliderWidth = 10

// FeedbackKind picks the toast color.
type FeedbackKind int

const (
	FeedbackInfo FeedbackKind = iota
	FeedbackSuccess
	FeedbackError
)

// ControlsState is the value of every drawer control.
type ControlsState struct {
	ForceStrength float64
	ShowPrimary   bool
	ShowSecondary bool
}

// Commands is the graph command surface the drawer drives.
type Commands interface {
	Mounted() bool
	ResetView()
	CenterGraph()
	UpdateForceStrength(value float64)
	FilterNodes(showPrimary, showSecondary bool)
}

type feedback struct {
	text  string
	kind  FeedbackKind
	until time.Time
}

// Drawer is the side panel: graph controls, feedback toasts and the details
// of the last selected concept.
type Drawer struct {
	theme Theme
	cmds  Commands
	now   func() time.Time

	width    int
	focus    Control
	state    ControlsState
	defaults ControlsState

	toast feedback

	selected       *model.NodeSelected
	highlightUntil time.Time
	info           viewport.Model
	md             *glamour.TermRenderer

	// rows maps drawer lines to controls, rebuilt on every View.
	rows map[int]Control
}

// NewDrawer builds a drawer of the given outer width. defaults are the values
// Reset restores.
func NewDrawer(theme Theme, cmds Commands, defaults ControlsState, width int, now func() time.Time) *Drawer {
	if now == nil {
		now = time.Now
	}
	d := &Drawer{
		theme:    theme,
		cmds:     cmds,
		now:      now,
		state:    defaults,
		defaults: defaults,
		info:     viewport.New(0, 0),
		rows:     make(map[int]Control),
	}
	d.SetWidth(width)
	return d
}

func (d *Drawer) innerWidth() int {
	return max(d.width-3, 10)
}

// SetWidth resizes the drawer and re-renders the info panel.
func (d *Drawer) SetWidth(w int) {
	if w == d.width && d.md != nil {
		return
	}
	d.width = w
	d.info.Width = d.innerWidth()
	style := "light"
	if d.theme.Dark {
		style = "dark"
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(d.innerWidth()-2),
	)
	if err == nil {
		d.md = md
	}
	d.refreshInfo()
}

// Width returns the outer width.
func (d *Drawer) Width() int { return d.width }

// Controls returns the control values.
func (d *Drawer) Controls() ControlsState { return d.state }

// SetControls overwrites the control values without issuing commands. Use it
// to mirror a graph's state.
func (d *Drawer) SetControls(s ControlsState) { d.state = s }

// SetDefaults changes what Reset restores.
func (d *Drawer) SetDefaults(s ControlsState) { d.defaults = s }

// Focus returns the focused control.
func (d *Drawer) Focus() Control { return d.focus }

// FocusNext moves focus down, wrapping.
func (d *Drawer) FocusNext() { d.focus = (d.focus + 1) % controlCount }

// FocusPrev moves focus up, wrapping.
func (d *Drawer) FocusPrev() { d.focus = (d.focus + controlCount - 1) % controlCount }

// Activate triggers the focused control. The slider has no action.
func (d *Drawer) Activate() {
	d.trigger(d.focus)
}

func (d *Drawer) trigger(c Control) {
	switch c {
	case ControlReset:
		d.Reset()
	case ControlCenter:
		d.Center()
	case ControlPrimary:
		d.TogglePrimary()
	case ControlSecondary:
		d.ToggleSecondary()
	}
}

func (d *Drawer) ready() bool {
	if d.cmds == nil || !d.cmds.Mounted() {
		d.Notify("Graph not ready yet", FeedbackError)
		return false
	}
	return true
}

// Reset restores the camera and every control to its default, applying the
// defaults to the graph.
func (d *Drawer) Reset() {
	if !d.ready() {
		return
	}
	d.cmds.ResetView()
	d.state = d.defaults
	d.cmds.UpdateForceStrength(d.state.ForceStrength)
	d.cmds.FilterNodes(d.state.ShowPrimary, d.state.ShowSecondary)
	d.Notify("Graph view reset", FeedbackSuccess)
}

// Center fits the visible graph into the canvas.
func (d *Drawer) Center() {
	if !d.ready() {
		return
	}
	d.cmds.CenterGraph()
	d.Notify("Graph centered", FeedbackSuccess)
}

// AdjustForce moves the slider by delta.
func (d *Drawer) AdjustForce(delta float64) {
	d.SetForce(d.state.ForceStrength + delta)
}

// SetForce moves the slider to v, snapped to the slider step and clamped to
// its range, and applies it.
func (d *Drawer) SetForce(v float64) {
	if !d.ready() {
		return
	}
	v = math.Round(v/ForceStep) * ForceStep
	v = math.Max(ForceMin, math.Min(ForceMax, v))
	d.state.ForceStrength = v
	d.cmds.UpdateForceStrength(v)
}

// TogglePrimary flips the central theme filter.
func (d *Drawer) TogglePrimary() {
	if !d.ready() {
		return
	}
	d.state.ShowPrimary = !d.state.ShowPrimary
	d.applyFilter()
}

// ToggleSecondary flips the related concept filter.
func (d *Drawer) ToggleSecondary() {
	if !d.ready() {
		return
	}
	d.state.ShowSecondary = !d.state.ShowSecondary
	d.applyFilter()
}

func (d *Drawer) applyFilter() {
	d.cmds.FilterNodes(d.state.ShowPrimary, d.state.ShowSecondary)
	d.Notify(FilterMessage(d.state.ShowPrimary, d.state.ShowSecondary), FeedbackInfo)
}

// FilterMessage describes the active kind filters.
func FilterMessage(showPrimary, showSecondary bool) string {
	var shown []string
	if showPrimary {
		shown = append(shown, model.KindPrimary.Label())
	}
	if showSecondary {
		shown = append(shown, model.KindSecondary.Label())
	}
	if len(shown) == 0 {
		return "All concepts hidden"
	}
	return "Showing: " + strings.Join(shown, ", ")
}

// Notify shows a toast for FeedbackDuration.
func (d *Drawer) Notify(text string, kind FeedbackKind) {
	d.toast = feedback{text: text, kind: kind, until: d.now().Add(FeedbackDuration)}
}

// Feedback returns the current toast, if one is showing.
func (d *Drawer) Feedback() (string, FeedbackKind, bool) {
	if d.toast.text == "" || !d.now().Before(d.toast.until) {
		return "", FeedbackInfo, false
	}
	return d.toast.text, d.toast.kind, true
}

// ShowSelection replaces the info panel with sel and outlines it briefly.
func (d *Drawer) ShowSelection(sel model.NodeSelected) {
	d.selected = &sel
	d.highlightUntil = d.now().Add(SelectionHighlight)
	d.refreshInfo()
	d.info.GotoTop()
}

// Selection returns the concept shown in the info panel.
func (d *Drawer) Selection() (model.NodeSelected, bool) {
	if d.selected == nil {
		return model.NodeSelected{}, false
	}
	return *d.selected, true
}

// Highlighted reports whether the info panel outline is showing.
func (d *Drawer) Highlighted() bool {
	return d.selected != nil && d.now().Before(d.highlightUntil)
}

// ScrollInfo scrolls the info panel by n lines; negative scrolls up.
func (d *Drawer) ScrollInfo(n int) {
	if n < 0 {
		d.info.ScrollUp(-n)
		return
	}
	d.info.ScrollDown(n)
}

// SelectionMarkdown is the info panel source for sel.
func SelectionMarkdown(sel model.NodeSelected) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", sel.Name)
	fmt.Fprintf(&b, "*Type: %s*\n\n", sel.Kind.Label())
	if sel.Description != "" {
		b.WriteString(sel.Description)
		b.WriteString("\n")
	}
	return b.String()
}

func (d *Drawer) refreshInfo() {
	if d.selected == nil {
		d.info.SetContent(d.theme.MutedText.Render("Click a concept to see its details."))
		return
	}
	src := SelectionMarkdown(*d.selected)
	if d.md != nil {
		if out, err := d.md.Render(src); err == nil {
			d.info.SetContent(strings.Trim(out, "\n"))
			return
		}
	}
	d.info.SetContent(src)
}

// ControlAt returns the control drawn on drawer line row by the last View.
func (d *Drawer) ControlAt(row int) (Control, bool) {
	c, ok := d.rows[row]
	return c, ok
}

// ClickRow focuses and triggers the control on row. Clicking the slider sets
// it from the column.
func (d *Drawer) ClickRow(row, col int) bool {
	c, ok := d.ControlAt(row)
	if !ok {
		return false
	}
	d.focus = c
	if c == ControlForce {
		if v, ok := d.sliderValueAt(col); ok {
			d.SetForce(v)
		}
		return true
	}
	d.trigger(c)
	return true
}

// sliderPrefix is the text before the slider track on the force row.
const sliderPrefix = "  Strength "

// sliderValueAt maps a drawer column to a slider value. Columns count from
// the drawer's left border.
func (d *Drawer) sliderValueAt(col int) (float64, bool) {
	start := 2 + runewidth.StringWidth(sliderPrefix)
	i := col - start
	if i < 0 || i > sliderWidth {
		return 0, false
	}
	return ForceMin + (ForceMax-ForceMin)*float64(i)/sliderWidth, true
}

func (d *Drawer) slider(v float64) string {
	pos := int(math.Round((v - ForceMin) / (ForceMax - ForceMin) * sliderWidth))
	pos = max(0, min(sliderWidth, pos))
	return strings.Repeat("━", pos) + "●" + strings.Repeat("─", sliderWidth-pos)
}

func (d *Drawer) controlLine(c Control, text string) string {
	marker := "  "
	style := d.theme.Button
	if c == d.focus {
		marker = "▸ "
		style = d.theme.Focused
	}
	return style.Render(marker + text)
}

func (d *Drawer) checkbox(c Control, on bool, label string) string {
	box := d.theme.Unchecked.Render("[ ]")
	if on {
		box = d.theme.Checked.Render("[x]")
	}
	marker := "  "
	style := d.theme.Button
	if c == d.focus {
		marker = "▸ "
		style = d.theme.Focused
	}
	return style.Render(marker) + box + " " + style.Render(label)
}

// View renders the drawer at the given height.
func (d *Drawer) View(height int) string {
	clear(d.rows)
	var lines []string
	add := func(s string) { lines = append(lines, s) }
	addControl := func(c Control, s string) {
		d.rows[len(lines)] = c
		add(s)
	}

	add(d.theme.Section.UnsetMarginTop().Render("Controls"))
	addControl(ControlReset, d.controlLine(ControlReset, "[ Reset view ]"))
	addControl(ControlCenter, d.controlLine(ControlCenter, "[ Center graph ]"))
	add(d.controlLine(ControlForce, "Link strength"))
	addControl(ControlForce, d.theme.Button.Render(sliderPrefix)+
		d.theme.Focused.Render(d.slider(d.state.ForceStrength))+
		fmt.Sprintf(" %.1f", d.state.ForceStrength))
	addControl(ControlPrimary, d.checkbox(ControlPrimary, d.state.ShowPrimary, model.KindPrimary.Label()))
	addControl(ControlSecondary, d.checkbox(ControlSecondary, d.state.ShowSecondary, model.KindSecondary.Label()))
	add("")

	if text, kind, ok := d.Feedback(); ok {
		style := d.theme.ToastInfo
		switch kind {
		case FeedbackSuccess:
			style = d.theme.ToastOK
		case FeedbackError:
			style = d.theme.ToastError
		}
		add(style.Width(d.innerWidth()).Render(text))
	} else {
		add("")
	}

	add(d.theme.Section.UnsetMarginTop().Render("Selected concept"))
	head := strings.Join(lines, "\n")

	infoHeight := height - lipgloss.Height(head)
	panel := ""
	if infoHeight > 2 {
		d.info.Width = d.innerWidth()
		d.info.Height = infoHeight
		panel = d.info.View()
		if d.Highlighted() {
			d.info.Height = infoHeight - 2
			d.info.Width = d.innerWidth() - 2
			panel = d.theme.Highlight.Render(d.info.View())
		}
	}

	body := lipgloss.JoinVertical(lipgloss.Left, head, panel)
	return d.theme.Drawer.Width(d.width - 1).Height(height).MaxHeight(height).Render(body)
}
