// Package logging provides subsystem-tagged structured logging for rorgd
// and rorgctl, built on log/slog.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// LogLevel mirrors slog's levels with a small, stable string vocabulary
// that's safe to expose on the CLI (--log-level).
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the lowercase CLI spelling of the level.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// SlogLevel converts to the equivalent slog.Level.
func (l LogLevel) SlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ParseLevel accepts the CLI spellings ("debug", "info", "warn", "error"),
// defaulting to LevelInfo for anything else.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

var (
	mu     sync.RWMutex
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
)

// Init configures the process-wide logger. Call once at startup; safe to
// call again in tests to redirect output.
func Init(level LogLevel, out *os.File) {
	if out == nil {
		out = os.Stderr
	}
	mu.Lock()
	defer mu.Unlock()
	logger = slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level.SlogLevel()}))
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug logs at debug level, tagged with the emitting subsystem.
func Debug(subsystem, format string, args ...interface{}) {
	log(context.Background(), slog.LevelDebug, subsystem, format, args...)
}

// Info logs at info level, tagged with the emitting subsystem.
func Info(subsystem, format string, args ...interface{}) {
	log(context.Background(), slog.LevelInfo, subsystem, format, args...)
}

// Warn logs at warn level, tagged with the emitting subsystem.
func Warn(subsystem, format string, args ...interface{}) {
	log(context.Background(), slog.LevelWarn, subsystem, format, args...)
}

// Error logs at error level, tagged with the emitting subsystem.
func Error(subsystem, format string, args ...interface{}) {
	log(context.Background(), slog.LevelError, subsystem, format, args...)
}

func log(ctx context.Context, level slog.Level, subsystem, format string, args ...interface{}) {
	l := current()
	if !l.Enabled(ctx, level) {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	l.LogAttrs(ctx, level, msg, slog.String("subsystem", subsystem))
}
