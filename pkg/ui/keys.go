package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists every binding of the graph view.
type KeyMap struct {
	Quit            key.Binding
	Escape          key.Binding
	Reset           key.Binding
	Center          key.Binding
	ForceUp         key.Binding
	ForceDown       key.Binding
	TogglePrimary   key.Binding
	ToggleSecondary key.Binding
	NextControl     key.Binding
	PrevControl     key.Binding
	Activate        key.Binding
	Drawer          key.Binding
	Copy            key.Binding
	ZoomIn          key.Binding
	ZoomOut         key.Binding
	PanLeft         key.Binding
	PanRight        key.Binding
	PanUp           key.Binding
	PanDown         key.Binding
	Help            key.Binding
}

// DefaultKeyMap returns the stock bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit:            key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Escape:          key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "deselect")),
		Reset:           key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset view")),
		Center:          key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "center")),
		ForceUp:         key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "link strength up")),
		ForceDown:       key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "link strength down")),
		TogglePrimary:   key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "toggle central themes")),
		ToggleSecondary: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "toggle related concepts")),
		NextControl:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next control")),
		PrevControl:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous control")),
		Activate:        key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "activate control")),
		Drawer:          key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "toggle drawer")),
		Copy:            key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy concept")),
		ZoomIn:          key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "zoom in")),
		ZoomOut:         key.NewBinding(key.WithKeys("["), key.WithHelp("[", "zoom out")),
		PanLeft:         key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "pan left")),
		PanRight:        key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "pan right")),
		PanUp:           key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "pan up")),
		PanDown:         key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "pan down")),
		Help:            key.NewBinding(key.WithKeys("?", "ctrl+h"), key.WithHelp("?", "help")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Reset, k.Center, k.ForceUp, k.ForceDown, k.TogglePrimary, k.ToggleSecondary, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Reset, k.Center, k.ZoomIn, k.ZoomOut, k.PanLeft, k.PanRight, k.PanUp, k.PanDown},
		{k.ForceUp, k.ForceDown, k.TogglePrimary, k.ToggleSecondary},
		{k.NextControl, k.PrevControl, k.Activate, k.Drawer},
		{k.Escape, k.Copy, k.Help, k.Quit},
	}
}
