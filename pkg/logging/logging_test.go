package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	t.Setenv(DebugEnvVar, "")
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := Options{Level: tt.in}.ParseLevel()
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := (Options{Level: "loud"}).ParseLevel(); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestDebugEnvForcesDebug(t *testing.T) {
	t.Setenv(DebugEnvVar, "1")
	got, err := Options{Level: "error"}.ParseLevel()
	if err != nil {
		t.Fatal(err)
	}
	if got != zapcore.DebugLevel {
		t.Errorf("expected debug level with %s set, got %v", DebugEnvVar, got)
	}
}

func TestNewWritesJSONFile(t *testing.T) {
	t.Setenv(DebugEnvVar, "")
	path := filepath.Join(t.TempDir(), "logs", "cg.log")
	logger, closeFn, err := New(Options{Level: "info", File: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("mounted", zap.Int("nodes", 4))
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "hidden") {
		t.Error("debug entry written at info level")
	}
	if !strings.Contains(out, `"msg":"mounted"`) || !strings.Contains(out, `"nodes":4`) {
		t.Errorf("expected JSON entry, got %q", out)
	}
}

func TestNewWithoutFileIsNop(t *testing.T) {
	logger, closeFn, err := New(Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer closeFn()
	if logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected a no-op logger")
	}
}

func TestNewCore(t *testing.T) {
	var buf bytes.Buffer
	l := zap.New(NewCore(zapcore.AddSync(&buf), zapcore.WarnLevel))
	l.Info("skip")
	l.Warn("keep")
	if strings.Contains(buf.String(), "skip") || !strings.Contains(buf.String(), "keep") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	l := zap.NewExample()
	if OrNop(l) != l {
		t.Error("OrNop should keep a non-nil logger")
	}
}
