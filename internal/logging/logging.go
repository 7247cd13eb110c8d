// Package logging wires up the process-wide structured logger.
package logging

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.Mutex
	logger *zap.Logger
)

// Init builds the process-wide zap logger. verbose enables debug level;
// jsonOut switches the encoder from console to JSON so structured fields
// survive redirection into other tools.
func Init(verbose, jsonOut bool) *zap.Logger {
	mu.Lock()
	defer mu.Unlock()

	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	if !jsonOut {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = ""
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = !verbose

	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	logger = l
	return logger
}

// L returns the process-wide logger, initializing a no-op logger if Init
// was never called (e.g. in tests that exercise packages directly).
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// Sync flushes buffered log entries. Errors from Sync on stderr/stdout are
// expected on some platforms and intentionally ignored by callers.
func Sync() error {
	return L().Sync()
}
