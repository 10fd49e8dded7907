// Package logging provides the structured, leveled logging used by every
// core component. It wraps log/slog with the level/format validation the
// daemon config layer needs and an optional syslog sink.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps a *slog.Logger so components can attach scoped fields
// (component=poller, target=10.0.0.1:161, ...) via With without every
// caller importing log/slog directly.
type Logger struct {
	*slog.Logger
}

var std = New(os.Stderr, slog.LevelInfo, "pretty")

// New builds a Logger writing to w at the given level. format is "json" or
// "pretty" (text); any other value falls back to "pretty".
func New(w io.Writer, level slog.Level, format string) *Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{Logger: slog.New(handler)}
}

// With returns a Logger with the given key/value pairs attached to every
// subsequent record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// SetDefault replaces the package-level default logger used by the
// free functions below.
func SetDefault(l *Logger) { std = l }

// Default returns the current package-level logger, for components that
// want a starting point to scope with With rather than building their own.
func Default() *Logger { return std }

func Debug(msg string, kv ...any) { std.Debug(msg, kv...) }
func Info(msg string, kv ...any)  { std.Info(msg, kv...) }
func Warn(msg string, kv ...any)  { std.Warn(msg, kv...) }
func Error(msg string, kv ...any) { std.Error(msg, kv...) }

// ValidateLogLevel accepts the standard five slog-adjacent levels,
// case-insensitively, matching the daemon config's YAML `level` field.
func ValidateLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q: must be one of trace, debug, info, warn, error", level)
	}
}

// ValidateLogFormat accepts "json" or "pretty", case-sensitively — matching
// the daemon config's YAML `format` field. Any other non-empty format is
// not an error and yields "pretty"; an empty format is an error.
func ValidateLogFormat(format string) (string, error) {
	switch format {
	case "json", "pretty":
		return format, nil
	case "":
		return "", fmt.Errorf("log format must not be empty")
	default:
		return "pretty", nil
	}
}
