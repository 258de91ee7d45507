// Package logging builds the operational logger for cg.
//
// The TUI owns the terminal, so logs go to a file as JSON lines. Setting
// CG_DEBUG forces debug level regardless of the configured level:
//
//	CG_DEBUG=1 cg --data concepts.yaml
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DebugEnvVar forces debug level when set to a non-empty value.
const DebugEnvVar = "CG_DEBUG"

// Options selects where and how verbosely to log.
type Options struct {
	Level string // debug, info, warn or error
	File  string // empty disables file output
}

// ParseLevel parses the configured level, honoring DebugEnvVar.
func (o Options) ParseLevel() (zapcore.Level, error) {
	if os.Getenv(DebugEnvVar) != "" {
		return zapcore.DebugLevel, nil
	}
	if o.Level == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(o.Level)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("parsing log level: %w", err)
	}
	return lvl, nil
}

// New builds a JSON file logger. With no file configured it returns a no-op
// logger. The returned close func flushes and closes the file.
func New(o Options) (*zap.Logger, func() error, error) {
	lvl, err := o.ParseLevel()
	if err != nil {
		return nil, nil, err
	}
	if o.File == "" {
		return zap.NewNop(), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(o.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(o.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := zap.New(NewCore(zapcore.AddSync(f), lvl), zap.AddCaller())
	closeFn := func() error {
		_ = logger.Sync()
		return f.Close()
	}
	return logger, closeFn, nil
}

// NewCore returns the JSON core used by New, exposed so callers can log to
// any writer.
func NewCore(w zapcore.WriteSyncer, lvl zapcore.LevelEnabler) zapcore.Core {
	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.TimeKey = "ts"
	return zapcore.NewCore(zapcore.NewJSONEncoder(enc), w, lvl)
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
