package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// Answers are the wizard fields in their editable string form.
type Answers struct {
	Data           string
	Watch          bool
	Theme          string
	LogLevel       string
	Charge         string
	LinkDistance   string
	LinkStrength   string
	Camera         string
	PrimaryColor   string
	SecondaryColor string
}

// AnswersFrom pre-fills the wizard from cfg.
func AnswersFrom(cfg Config) Answers {
	return Answers{
		Data:           cfg.Data,
		Watch:          cfg.Watch,
		Theme:          cfg.UI.Theme,
		LogLevel:       cfg.Log.Level,
		Charge:         formatFloat(cfg.Graph.Forces.Charge),
		LinkDistance:   formatFloat(cfg.Graph.Forces.LinkDistance),
		LinkStrength:   formatFloat(cfg.Graph.Forces.LinkStrength),
		Camera:         cfg.Graph.Animation.Camera.String(),
		PrimaryColor:   cfg.Graph.Nodes.Primary.Color,
		SecondaryColor: cfg.Graph.Nodes.Secondary.Color,
	}
}

// Apply parses the answers onto a copy of cfg and validates the result.
func (a Answers) Apply(cfg Config) (Config, error) {
	var err error
	cfg.Data = expandHome(a.Data)
	cfg.Watch = a.Watch
	cfg.UI.Theme = a.Theme
	cfg.Log.Level = a.LogLevel
	if cfg.Graph.Forces.Charge, err = parseFloat("charge", a.Charge); err != nil {
		return cfg, err
	}
	if cfg.Graph.Forces.LinkDistance, err = parseFloat("link distance", a.LinkDistance); err != nil {
		return cfg, err
	}
	if cfg.Graph.Forces.LinkStrength, err = parseFloat("link strength", a.LinkStrength); err != nil {
		return cfg, err
	}
	if cfg.Graph.Animation.Camera, err = time.ParseDuration(a.Camera); err != nil {
		return cfg, fmt.Errorf("camera duration: %w", err)
	}
	cfg.Graph.Nodes.Primary.Color = a.PrimaryColor
	cfg.Graph.Nodes.Secondary.Color = a.SecondaryColor
	return cfg, cfg.Validate()
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

func parseFloat(field, s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return f, nil
}

func validFloat(s string) error {
	_, err := strconv.ParseFloat(s, 64)
	return err
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// RunWizard walks the user through the main settings starting from cfg and
// returns the edited, validated configuration.
func RunWizard(cfg Config) (Config, error) {
	a := AnswersFrom(cfg)

	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Dataset file").
				Description("JSON or YAML; leave empty for the built-in concepts").
				Value(&a.Data),
			huh.NewConfirm().
				Title("Reload when the dataset changes?").
				Value(&a.Watch),
			huh.NewSelect[string]().
				Title("Theme").
				Options(
					huh.NewOption("Match terminal", "auto"),
					huh.NewOption("Dark", "dark"),
					huh.NewOption("Light", "light"),
				).
				Value(&a.Theme),
			huh.NewSelect[string]().
				Title("Log level").
				Options(huh.NewOptions("debug", "info", "warn", "error")...).
				Value(&a.LogLevel),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Charge").
				Description("Repulsion between concepts (negative)").
				Validate(validFloat).
				Value(&a.Charge),
			huh.NewInput().
				Title("Link distance").
				Validate(validFloat).
				Value(&a.LinkDistance),
			huh.NewInput().
				Title("Link strength").
				Validate(validFloat).
				Value(&a.LinkStrength),
			huh.NewInput().
				Title("Camera animation").
				Validate(func(s string) error {
					_, err := time.ParseDuration(s)
					return err
				}).
				Value(&a.Camera),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Central theme color").
				Value(&a.PrimaryColor),
			huh.NewInput().
				Title("Related concept color").
				Value(&a.SecondaryColor),
		),
	)

	if err := form.Run(); err != nil {
		return cfg, err
	}
	return a.Apply(cfg)
}
