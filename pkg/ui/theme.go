package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals keep their own
// background.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// Theme modes accepted by the ui.theme config key.
const (
	ThemeAuto  = "auto"
	ThemeDark  = "dark"
	ThemeLight = "light"
)

type Theme struct {
	Renderer *lipgloss.Renderer
	Dark     bool

	// Colors
	Primary lipgloss.AdaptiveColor
	Accent  lipgloss.AdaptiveColor
	Subtext lipgloss.AdaptiveColor
	Muted   lipgloss.AdaptiveColor
	Border  lipgloss.AdaptiveColor
	Success lipgloss.AdaptiveColor
	Info    lipgloss.AdaptiveColor
	Danger  lipgloss.AdaptiveColor

	// Canvas background used to fade primitives.
	CanvasBg string

	// Styles
	Base       lipgloss.Style
	Header     lipgloss.Style
	Footer     lipgloss.Style
	Drawer     lipgloss.Style
	Section    lipgloss.Style
	Focused    lipgloss.Style
	Button     lipgloss.Style
	Checked    lipgloss.Style
	Unchecked  lipgloss.Style
	Highlight  lipgloss.Style
	Tooltip    lipgloss.Style
	MutedText  lipgloss.Style
	ErrorText  lipgloss.Style
	ToastOK    lipgloss.Style
	ToastInfo  lipgloss.Style
	ToastError lipgloss.Style
}

// DefaultTheme builds the theme for the renderer's detected background.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	return NewTheme(r, ThemeAuto)
}

// NewTheme builds a theme for mode. "dark" and "light" override the
// renderer's background detection; anything else keeps it.
func NewTheme(r *lipgloss.Renderer, mode string) Theme {
	switch mode {
	case ThemeDark:
		r.SetHasDarkBackground(true)
	case ThemeLight:
		r.SetHasDarkBackground(false)
	}

	t := Theme{
		Renderer: r,
		Dark:     r.HasDarkBackground(),

		Primary: lipgloss.AdaptiveColor{Light: "#0077AA", Dark: "#00D4FF"},
		Accent:  lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"},
		Subtext: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BFBFBF"},
		Muted:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#6272A4"},
		Border:  lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Success: lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"},
		Info:    lipgloss.AdaptiveColor{Light: "#006080", Dark: "#8BE9FD"},
		Danger:  lipgloss.AdaptiveColor{Light: "#CC0000", Dark: "#FF5555"},
	}
	t.CanvasBg = "#FFFFFF"
	if t.Dark {
		t.CanvasBg = "#000000"
	}

	t.Base = r.NewStyle()
	t.Header = r.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1)
	t.Footer = r.NewStyle().Foreground(t.Subtext).Padding(0, 1)
	t.Drawer = r.NewStyle().
		Border(lipgloss.RoundedBorder(), false, false, false, true).
		BorderForeground(t.Border).
		Padding(0, 1)
	t.Section = r.NewStyle().Bold(true).Foreground(t.Accent).MarginTop(1)
	t.Focused = r.NewStyle().Bold(true).Foreground(t.Primary)
	t.Button = r.NewStyle().Foreground(t.Subtext)
	t.Checked = r.NewStyle().Foreground(t.Success)
	t.Unchecked = r.NewStyle().Foreground(t.Muted)
	t.Highlight = r.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(t.Primary)
	t.Tooltip = r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Accent).
		Padding(0, 1)
	t.MutedText = r.NewStyle().Foreground(t.Muted)
	t.ErrorText = r.NewStyle().Foreground(t.Danger)
	t.ToastOK = r.NewStyle().Bold(true).Foreground(t.Success)
	t.ToastInfo = r.NewStyle().Bold(true).Foreground(t.Info)
	t.ToastError = r.NewStyle().Bold(true).Foreground(t.Danger)
	return t
}

// pick resolves an adaptive color against the theme background.
func (t Theme) pick(c lipgloss.AdaptiveColor) string {
	if t.Dark {
		return c.Dark
	}
	return c.Light
}
