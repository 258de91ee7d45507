package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	if cfg.InitTimeout != 10*time.Second {
		t.Errorf("expected init timeout 10s, got %v", cfg.InitTimeout)
	}
	if cfg.Graph.Forces.Charge != -300 || cfg.Graph.Forces.LinkDistance != 100 || cfg.Graph.Forces.LinkStrength != 0.8 {
		t.Errorf("unexpected force defaults: %+v", cfg.Graph.Forces)
	}
	if cfg.Graph.Nodes.Primary.Color != "#52AE77" || cfg.Graph.Nodes.Secondary.Radius != 10 {
		t.Errorf("unexpected node defaults: %+v", cfg.Graph.Nodes)
	}
	if cfg.Graph.Fill != 0.8 {
		t.Errorf("expected fill 0.8, got %v", cfg.Graph.Fill)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.UI.FPS != 30 {
		t.Errorf("expected default config, got fps %d", cfg.UI.FPS)
	}
}

func TestLoadFrom_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
data: ~/concepts.yaml
watch: true
init_timeout: 3s
ui:
  drawer_width: 40
graph:
  forces:
    charge: -150
    link_distance: 80
  animation:
    fade: 250ms
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	home, _ := os.UserHomeDir()
	if cfg.Data != filepath.Join(home, "concepts.yaml") {
		t.Errorf("expected ~ expansion, got %q", cfg.Data)
	}
	if !cfg.Watch || cfg.InitTimeout != 3*time.Second {
		t.Errorf("unexpected top-level values: watch=%v timeout=%v", cfg.Watch, cfg.InitTimeout)
	}
	if cfg.UI.DrawerWidth != 40 || cfg.UI.FPS != 30 {
		t.Errorf("partial ui section should keep defaults: %+v", cfg.UI)
	}
	if cfg.Graph.Forces.Charge != -150 || cfg.Graph.Forces.LinkDistance != 80 || cfg.Graph.Forces.LinkStrength != 0.8 {
		t.Errorf("unexpected forces: %+v", cfg.Graph.Forces)
	}

	lo := cfg.LayoutOptions()
	if lo.Charge != -150 || lo.LinkDistance != 80 || lo.Seed == 0 {
		t.Errorf("layout options not converted: %+v", lo)
	}
	ro := cfg.RenderOptions()
	if ro.Fade != 250*time.Millisecond || ro.Palette.Primary.Radius != 15 {
		t.Errorf("render options not converted: fade=%v palette=%+v", ro.Fade, ro.Palette)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
ui:
  fps: 0
graph:
  colors:
    link: not-a-color
  animation:
    fade: 5s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err := LoadFrom(path)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	msg := verr.Error()
	for _, want := range []string{"UI.FPS", "Graph.Colors.Link", "Graph.Animation.Fade"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %s in %q", want, msg)
		}
	}
}

func TestLoadFrom_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("ui: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil || !strings.Contains(err.Error(), "parsing config") {
		t.Errorf("expected a parse error, got %v", err)
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Data = "/data/concepts.json"
	cfg.Graph.Animation.Camera = 2 * time.Second

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.Data != cfg.Data || got.Graph.Animation.Camera != 2*time.Second {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_STATE_HOME", "/xdg/state")

	if got := ConfigPath(); got != "/xdg/config/cg/config.yaml" {
		t.Errorf("ConfigPath() = %q", got)
	}
	cfg := DefaultConfig()
	if got := cfg.LogPath(); got != "/xdg/state/cg/cg.log" {
		t.Errorf("LogPath() = %q", got)
	}
	cfg.Log.File = "/tmp/x.log"
	if got := cfg.LogPath(); got != "/tmp/x.log" {
		t.Errorf("explicit log file ignored: %q", got)
	}
}

func TestWizardAnswersRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	a := AnswersFrom(cfg)
	if a.Charge != "-300" || a.LinkStrength != "0.8" || a.Camera != "750ms" {
		t.Errorf("unexpected prefill: %+v", a)
	}

	a.Charge = "-120"
	a.LinkDistance = "60"
	a.Camera = "1s"
	a.Theme = "dark"
	a.PrimaryColor = "#112233"
	got, err := a.Apply(cfg)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.Graph.Forces.Charge != -120 || got.Graph.Forces.LinkDistance != 60 ||
		got.Graph.Animation.Camera != time.Second || got.UI.Theme != "dark" ||
		got.Graph.Nodes.Primary.Color != "#112233" {
		t.Errorf("answers not applied: %+v", got.Graph)
	}
	if cfg.Graph.Forces.Charge != -300 {
		t.Error("Apply must not modify the input config")
	}
}

func TestWizardAnswersRejectBadInput(t *testing.T) {
	cfg := DefaultConfig()

	a := AnswersFrom(cfg)
	a.LinkStrength = "strong"
	if _, err := a.Apply(cfg); err == nil || !strings.Contains(err.Error(), "link strength") {
		t.Errorf("expected a parse error, got %v", err)
	}

	a = AnswersFrom(cfg)
	a.SecondaryColor = "magenta"
	var verr *ValidationError
	if _, err := a.Apply(cfg); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}
