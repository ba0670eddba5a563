// Package logger provides structured logging for the service based on zap.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap.Logger so callers can construct it first and pick the
// level afterwards, once configuration has been parsed.
type Logger struct {
	// Log is the underlying zap logger.
	Log *zap.Logger
}

// New returns a Logger backed by a no-op zap logger; call Init to activate it.
func New() *Logger {
	return &Logger{Log: zap.NewNop()}
}

// Init replaces the underlying logger with a production zap logger at the
// given level ("Debug", "Info", "Warn", "Error"; case-insensitive).
func (l *Logger) Init(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	log, err := cfg.Build()
	if err != nil {
		return err
	}
	l.Log = log
	return nil
}
