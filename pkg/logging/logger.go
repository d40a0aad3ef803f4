// Package logging provides structured logging with context propagation for
// the pipeline runner. It uses Go's built-in slog package for high
// performance structured logging.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// contextKey is used for context keys to avoid collisions.
type contextKey string

const contextKeyLogger contextKey = "logging.logger"

// Logger wraps slog.Logger with run/node-specific functionality. level is
// shared across every derived Logger (WithRunID, WithField, ...) so that
// SetLevel adjusts verbosity for a whole run tree through one call, even
// after child loggers have been handed out to individual node executions.
type Logger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error). Matching
	// is case-insensitive and an unrecognised value falls back to info.
	Level string
	// Output is where logs are written (default: os.Stdout).
	Output io.Writer
	// Pretty enables human-readable text output (default: false for JSON).
	Pretty bool
	// IncludeCaller includes source location in logs (default: false).
	IncludeCaller bool
}

// DefaultConfig returns default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:         "info",
		Output:        os.Stdout,
		Pretty:        false,
		IncludeCaller: false,
	}
}

// New creates a new logger with the given configuration.
func New(cfg Config) *Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(parseLevel(cfg.Level))

	opts := &slog.HandlerOptions{
		Level:     levelVar,
		AddSource: cfg.IncludeCaller,
	}
	if cfg.IncludeCaller {
		opts.ReplaceAttr = shortenSourcePaths
	}

	var handler slog.Handler
	if cfg.Pretty {
		handler = slog.NewTextHandler(output, opts)
	} else {
		handler = slog.NewJSONHandler(output, opts)
	}

	return &Logger{logger: slog.New(handler), level: levelVar}
}

// shortenSourcePaths trims slog's default absolute-path source attribute
// down to "dir/file.go:line" so log lines stay legible when IncludeCaller
// is set and the binary was built outside GOPATH.
func shortenSourcePaths(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.SourceKey {
		return a
	}
	src, ok := a.Value.Any().(*slog.Source)
	if !ok || src == nil {
		return a
	}
	dir, file := filepath.Split(src.File)
	short := filepath.Join(filepath.Base(filepath.Clean(dir)), file)
	return slog.String(slog.SourceKey, fmt.Sprintf("%s:%d", short, src.Line))
}

// parseLevel maps a level name to its slog.Level, trimming whitespace and
// ignoring case. Anything it doesn't recognise defaults to info rather than
// failing construction outright.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "dbg":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SetLevel adjusts this logger's minimum level in place. Because the
// underlying slog.LevelVar is shared with every Logger derived from this
// one via With*, raising verbosity mid-run (e.g. after a node starts
// failing) affects all of them without re-wiring handlers.
func (l *Logger) SetLevel(level string) {
	l.level.Set(parseLevel(level))
}

// WithContext adds the logger to a context.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKeyLogger, l)
}

// FromContext retrieves the logger from context, or returns the default
// logger if none is set.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(contextKeyLogger).(*Logger); ok {
		return logger
	}
	return New(DefaultConfig())
}

func (l *Logger) with(attrs ...slog.Attr) *Logger {
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	return &Logger{logger: l.logger.With(args...), level: l.level}
}

// WithRunID adds run_id to the logger context.
func (l *Logger) WithRunID(runID string) *Logger {
	return l.with(slog.String("run_id", runID))
}

// WithNodeName adds node_name to the logger context.
func (l *Logger) WithNodeName(name string) *Logger {
	return l.with(slog.String("node_name", name))
}

// WithDuration adds an elapsed duration field using slog's native Duration
// attribute, so callers timing a run or node no longer need to pick a unit
// and encode it into the field name by hand (duration_ms, duration_seconds,
// ...).
func (l *Logger) WithDuration(elapsed time.Duration) *Logger {
	return l.with(slog.Duration("duration", elapsed))
}

// WithField adds a custom field to the logger context.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.with(slog.Any(key, value))
}

// WithFields adds multiple custom fields to the logger context. Keys are
// sorted before being attached so that output field order is stable across
// calls rather than following Go's randomised map iteration order.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]slog.Attr, len(keys))
	for i, k := range keys {
		attrs[i] = slog.Any(k, fields[k])
	}
	return l.with(attrs...)
}

// WithError adds error to the logger context.
func (l *Logger) WithError(err error) *Logger {
	return l.with(slog.Any("error", err))
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string) {
	l.logger.Debug(msg)
}

// Debugf logs a formatted debug message.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Info logs an info message.
func (l *Logger) Info(msg string) {
	l.logger.Info(msg)
}

// Infof logs a formatted info message.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string) {
	l.logger.Warn(msg)
}

// Warnf logs a formatted warning message.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

// Error logs an error message.
func (l *Logger) Error(msg string) {
	l.logger.Error(msg)
}

// Errorf logs a formatted error message.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

// GetSlogLogger returns the underlying slog.Logger for advanced use cases.
func (l *Logger) GetSlogLogger() *slog.Logger {
	return l.logger
}
