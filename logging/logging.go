// Package logging is a thin, Erigon-log/v3-flavored wrapper around zap:
// a small keyed-field call surface (New/Warn/Error/...), rather than
// zap's own chainable field builders, matching the call sites the teacher
// repo uses throughout its core and turbo packages.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the contextual keyed-field logger. In this module only
// cmd/aqlrun creates and uses one; the engine packages report through
// returned errors.
type Logger struct {
	z    *zap.SugaredLogger
	name string
}

// New builds a root logger at the given level ("debug", "info", "warn",
// "error"); an unrecognized level falls back to "info".
func New(name string, level string) *Logger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.EncoderConfig.TimeKey = "ts"
	z, err := cfg.Build()
	if err != nil {
		z = zap.NewNop()
	}
	return &Logger{z: z.Sugar().Named(name), name: name}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// With returns a child logger carrying additional key/value context, e.g.
// l.With("collection", name).
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{z: l.z.With(kv...), name: l.name}
}

func (l *Logger) Debug(msg string, kv ...any) { l.z.Debugw(msg, kv...) }
func (l *Logger) Info(msg string, kv ...any)  { l.z.Infow(msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.z.Warnw(msg, kv...) }
func (l *Logger) Error(msg string, kv ...any) { l.z.Errorw(msg, kv...) }

// Sync flushes any buffered log entries; callers should defer it from
// main.
func (l *Logger) Sync() error { return l.z.Sync() }

// Nop returns a logger that discards everything, for tests and defaults.
func Nop() *Logger {
	return &Logger{z: zap.NewNop().Sugar(), name: "nop"}
}
