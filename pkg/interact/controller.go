// Package interact is the hover/select/drag state machine of a mounted concept
// graph. It translates pointer input into renderer restyles, layout pins and
// selection notifications.
package interact

import (
	"github.com/vanderheijden86/conceptgraph/pkg/model"

	"go.uber.org/zap"
)

// Drag energy levels.
const (
	DragAlphaTarget = 0.3
	DragRestart     = 0.3
)

// Neighborhood is the read side of the concept model.
type Neighborhood interface {
	Node(id string) (model.Node, bool)
	Neighbors(id string) []string
	IsVisible(id string) bool
}

// Engine is the part of the layout engine dragging needs.
type Engine interface {
	Position(id string) (model.Point, bool)
	Pin(id string, x, y float64) error
	Unpin(id string) error
	SetAlphaTarget(t float64)
	Restart(energy float64)
}

// Highlighter is the part of the renderer hover and selection drive.
type Highlighter interface {
	ApplyHighlight(nodeID string, connected []string, active bool)
	ApplySelection(nodeID string, selected bool)
}

// Notifier receives a notification for every click on a node.
type Notifier interface {
	NotifySelected(model.NodeSelected)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(model.NodeSelected)

// NotifySelected calls f(sel).
func (f NotifierFunc) NotifySelected(sel model.NodeSelected) { f(sel) }

// Tooltip is the hover card shown next to the pointer.
type Tooltip struct {
	Visible     bool
	X, Y        float64
	Name        string
	KindLabel   string
	Description string
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the warning log.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// WithTooltipOffset places the tooltip at pointer + (dx, dy).
func WithTooltipOffset(dx, dy float64) Option {
	return func(c *Controller) { c.tipDX, c.tipDY = dx, dy }
}

// Controller owns the transient interaction state. It is not safe for
// concurrent use; it lives on the UI loop with the rest of the graph.
type Controller struct {
	nodes  Neighborhood
	engine Engine
	view   Highlighter
	notify Notifier
	log    *zap.Logger

	hovered  string
	selected string
	dragging string

	tip          Tooltip
	tipDX, tipDY float64
}

// NewController wires a controller to its collaborators. notify may be nil.
func NewController(nodes Neighborhood, engine Engine, view Highlighter, notify Notifier, opts ...Option) *Controller {
	c := &Controller{
		nodes:  nodes,
		engine: engine,
		view:   view,
		notify: notify,
		log:    zap.NewNop(),
		tipDX:  10,
		tipDY:  -10,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) lookup(op, id string) (model.Node, bool) {
	n, ok := c.nodes.Node(id)
	if !ok {
		c.log.Warn("ignoring interaction on unknown node", zap.String("op", op), zap.String("id", id))
		return n, false
	}
	if !c.nodes.IsVisible(id) {
		c.log.Warn("ignoring interaction on hidden node", zap.String("op", op), zap.String("id", id))
		return n, false
	}
	return n, true
}

// PointerEnter starts hovering id unless a drag is in progress.
func (c *Controller) PointerEnter(id string, at model.Point) {
	if c.dragging != "" {
		return
	}
	n, ok := c.lookup("enter", id)
	if !ok || c.hovered == id {
		return
	}
	if c.hovered != "" {
		c.endHover()
	}
	c.hovered = id
	c.view.ApplyHighlight(id, c.nodes.Neighbors(id), true)
	c.tip = Tooltip{
		Visible:     true,
		Name:        n.Name,
		KindLabel:   n.Kind.Label(),
		Description: n.Description,
	}
	c.placeTooltip(at)
}

// PointerMove keeps the tooltip next to the pointer.
func (c *Controller) PointerMove(at model.Point) {
	if c.tip.Visible {
		c.placeTooltip(at)
	}
}

// PointerLeave ends the hover on id. Leaving a node other than the hovered
// one does nothing.
func (c *Controller) PointerLeave(id string) {
	if c.dragging != "" || id != c.hovered || id == "" {
		return
	}
	c.endHover()
}

func (c *Controller) endHover() {
	c.view.ApplyHighlight(c.hovered, nil, false)
	c.hovered = ""
	c.tip = Tooltip{}
}

func (c *Controller) placeTooltip(at model.Point) {
	c.tip.X, c.tip.Y = at.X+c.tipDX, at.Y+c.tipDY
}

// Click selects id, reverting the previous selection first, and emits one
// selection notification.
func (c *Controller) Click(id string) {
	n, ok := c.lookup("click", id)
	if !ok {
		return
	}
	if c.selected != "" && c.selected != id {
		c.view.ApplySelection(c.selected, false)
	}
	c.selected = id
	c.view.ApplySelection(id, true)
	if c.notify != nil {
		c.notify.NotifySelected(model.SelectionOf(n))
	}
}

// ClearSelection deselects the current node, if any.
func (c *Controller) ClearSelection() {
	if c.selected == "" {
		return
	}
	c.view.ApplySelection(c.selected, false)
	c.selected = ""
}

// DragStart pins id where the layout currently has it and warms the
// simulation so the other nodes react.
func (c *Controller) DragStart(id string, at model.Point) {
	if _, ok := c.lookup("drag", id); !ok {
		return
	}
	if c.dragging != "" {
		c.DragEnd()
	}
	p, ok := c.engine.Position(id)
	if !ok {
		p = at
	}
	if err := c.engine.Pin(id, p.X, p.Y); err != nil {
		c.log.Warn("pin failed", zap.String("id", id), zap.Error(err))
		return
	}
	c.dragging = id
	c.engine.SetAlphaTarget(DragAlphaTarget)
	c.engine.Restart(DragRestart)
}

// DragMove moves the pin to the pointer.
func (c *Controller) DragMove(at model.Point) {
	if c.dragging == "" {
		return
	}
	if err := c.engine.Pin(c.dragging, at.X, at.Y); err != nil {
		c.log.Warn("pin failed", zap.String("id", c.dragging), zap.Error(err))
	}
}

// DragEnd releases the dragged node back to the forces.
func (c *Controller) DragEnd() {
	if c.dragging == "" {
		return
	}
	c.engine.SetAlphaTarget(0)
	if err := c.engine.Unpin(c.dragging); err != nil {
		c.log.Warn("unpin failed", zap.String("id", c.dragging), zap.Error(err))
	}
	c.dragging = ""
}

// Forget drops hover, selection and drag on nodes isVisible rejects,
// reverting their styling. Call it after a visibility change.
func (c *Controller) Forget(isVisible func(id string) bool) {
	if c.dragging != "" && !isVisible(c.dragging) {
		c.DragEnd()
	}
	if c.hovered != "" && !isVisible(c.hovered) {
		c.endHover()
	}
	if c.selected != "" && !isVisible(c.selected) {
		c.ClearSelection()
	}
}

// Hovered returns the hovered node id, or "".
func (c *Controller) Hovered() string { return c.hovered }

// Selected returns the selected node id, or "".
func (c *Controller) Selected() string { return c.selected }

// Dragging returns the dragged node id, or "".
func (c *Controller) Dragging() string { return c.dragging }

// Tooltip returns the current tooltip.
func (c *Controller) Tooltip() Tooltip { return c.tip }

// Mode summarizes the state.
func (c *Controller) Mode() Mode {
	switch {
	case c.dragging != "":
		return ModeDragging
	case c.hovered != "":
		return ModeHovering
	case c.selected != "":
		return ModeSelected
	}
	return ModeIdle
}
