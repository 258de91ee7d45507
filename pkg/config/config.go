// Package config handles loading and saving cg configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/cg/config.yaml
//   - State:   ~/.local/state/cg/ (operational log)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vanderheijden86/conceptgraph/pkg/graph"
	"github.com/vanderheijden86/conceptgraph/pkg/layout"
	"github.com/vanderheijden86/conceptgraph/pkg/render"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const appName = "cg"

// LogConfig controls the operational log.
type LogConfig struct {
	Level string `yaml:"level,omitempty" validate:"oneof=debug info warn error"`
	File  string `yaml:"file,omitempty"` // empty means StateDir()/cg.log
}

// UIConfig holds terminal UI preferences.
type UIConfig struct {
	Theme       string `yaml:"theme,omitempty" validate:"oneof=auto dark light"`
	DrawerWidth int    `yaml:"drawer_width,omitempty" validate:"gte=20,lte=80"` // columns
	FPS         int    `yaml:"fps,omitempty" validate:"gte=1,lte=120"`
}

// ForcesConfig tunes the layout simulation.
type ForcesConfig struct {
	Charge          float64 `yaml:"charge" validate:"lte=0"`
	LinkDistance    float64 `yaml:"link_distance" validate:"gt=0"`
	LinkStrength    float64 `yaml:"link_strength"`
	CenterStrength  float64 `yaml:"center_strength" validate:"gte=0"`
	CollidePadding  float64 `yaml:"collide_padding" validate:"gte=0"`
	CollideStrength float64 `yaml:"collide_strength" validate:"gte=0,lte=1"`
	Seed            uint64  `yaml:"seed,omitempty"`
}

// NodeStyle is the per-kind node appearance.
type NodeStyle struct {
	Radius   float64 `yaml:"radius" validate:"gt=0"`
	Color    string  `yaml:"color" validate:"hexcolor"`
	LabelMax int     `yaml:"label_max" validate:"gte=1"`
	FontSize float64 `yaml:"font_size" validate:"gt=0"`
	Bold     bool    `yaml:"bold,omitempty"`
}

// NodesConfig groups the kind styles.
type NodesConfig struct {
	Primary   NodeStyle `yaml:"primary"`
	Secondary NodeStyle `yaml:"secondary"`
}

// ColorsConfig holds the non-kind colors.
type ColorsConfig struct {
	Link          string `yaml:"link" validate:"hexcolor"`
	LinkHighlight string `yaml:"link_highlight" validate:"hexcolor"`
	NodeStroke    string `yaml:"node_stroke" validate:"hexcolor"`
	Text          string `yaml:"text" validate:"hexcolor"`
}

// AnimationConfig holds transition lengths.
type AnimationConfig struct {
	Duration time.Duration `yaml:"duration" validate:"gte=0s"`
	Fade     time.Duration `yaml:"fade" validate:"gte=0s,lte=1s"`
	Camera   time.Duration `yaml:"camera" validate:"gte=0s"`
}

// GraphConfig tunes the concept graph.
type GraphConfig struct {
	Forces    ForcesConfig    `yaml:"forces"`
	Nodes     NodesConfig     `yaml:"nodes"`
	Colors    ColorsConfig    `yaml:"colors"`
	Animation AnimationConfig `yaml:"animation"`
	Fill      float64         `yaml:"fill" validate:"gt=0,lte=1"`
}

// Config is the top-level configuration for cg.
type Config struct {
	Data        string        `yaml:"data,omitempty"` // dataset file; empty means built-in
	Watch       bool          `yaml:"watch,omitempty"`
	InitTimeout time.Duration `yaml:"init_timeout,omitempty" validate:"gt=0s"`
	Log         LogConfig     `yaml:"log,omitempty"`
	UI          UIConfig      `yaml:"ui,omitempty"`
	Graph       GraphConfig   `yaml:"graph"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	lo := layout.DefaultOptions()
	ro := render.DefaultOptions()
	style := func(k graph.KindStyle) NodeStyle {
		return NodeStyle{Radius: k.Radius, Color: k.Color, LabelMax: k.LabelMax, FontSize: k.FontSize, Bold: k.Bold}
	}
	return Config{
		InitTimeout: 10 * time.Second,
		Log:         LogConfig{Level: "info"},
		UI: UIConfig{
			Theme:       "auto",
			DrawerWidth: 36,
			FPS:         30,
		},
		Graph: GraphConfig{
			Forces: ForcesConfig{
				Charge:          lo.Charge,
				LinkDistance:    lo.LinkDistance,
				LinkStrength:    lo.LinkStrength,
				CenterStrength:  lo.CenterStrength,
				CollidePadding:  lo.CollidePadding,
				CollideStrength: lo.CollideStrength,
				Seed:            lo.Seed,
			},
			Nodes: NodesConfig{
				Primary:   style(ro.Palette.Primary),
				Secondary: style(ro.Palette.Secondary),
			},
			Colors: ColorsConfig{
				Link:          ro.Colors.Link,
				LinkHighlight: ro.Colors.LinkHighlight,
				NodeStroke:    ro.Colors.NodeStroke,
				Text:          ro.Colors.Text,
			},
			Animation: AnimationConfig{
				Duration: ro.Duration,
				Fade:     ro.Fade,
				Camera:   750 * time.Millisecond,
			},
			Fill: 0.8,
		},
	}
}

// ConfigDir returns the XDG config directory for cg.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// StateDir returns the XDG state directory for cg.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// LogPath returns the configured log file, defaulting into StateDir.
func (c Config) LogPath() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "cg.log")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path and validates it.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Data = expandHome(cfg.Data)
	cfg.Log.File = expandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError lists every invalid field.
type ValidationError struct {
	Fields []string // e.g. "Graph.Forces.LinkDistance (gt)"
}

func (e *ValidationError) Error() string {
	return "invalid config: " + strings.Join(e.Fields, ", ")
}

// Validate checks field ranges.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		ns := strings.TrimPrefix(fe.Namespace(), "Config.")
		out.Fields = append(out.Fields, fmt.Sprintf("%s (%s)", ns, fe.Tag()))
	}
	return out
}

// LayoutOptions converts the force settings.
func (c Config) LayoutOptions() layout.Options {
	o := layout.DefaultOptions()
	f := c.Graph.Forces
	o.Charge = f.Charge
	o.LinkDistance = f.LinkDistance
	o.LinkStrength = f.LinkStrength
	o.CenterStrength = f.CenterStrength
	o.CollidePadding = f.CollidePadding
	o.CollideStrength = f.CollideStrength
	if f.Seed != 0 {
		o.Seed = f.Seed
	}
	return o
}

// RenderOptions converts the node, color and animation settings.
func (c Config) RenderOptions() render.Options {
	o := render.DefaultOptions()
	kind := func(s NodeStyle) graph.KindStyle {
		return graph.KindStyle{Radius: s.Radius, Color: s.Color, LabelMax: s.LabelMax, FontSize: s.FontSize, Bold: s.Bold}
	}
	o.Palette = graph.Palette{
		Primary:   kind(c.Graph.Nodes.Primary),
		Secondary: kind(c.Graph.Nodes.Secondary),
	}
	o.Colors = render.Colors{
		Link:          c.Graph.Colors.Link,
		LinkHighlight: c.Graph.Colors.LinkHighlight,
		NodeStroke:    c.Graph.Colors.NodeStroke,
		Text:          c.Graph.Colors.Text,
	}
	o.Duration = c.Graph.Animation.Duration
	o.Fade = c.Graph.Animation.Fade
	return o
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
