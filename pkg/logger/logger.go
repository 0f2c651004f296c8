// Package logger provides a small structured logging facade over log/slog.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const callerSkipFrames = 3 // runtime.Caller -> caller() -> log() -> Info/Warn/... -> call site

// Logger defines the logging interface used across the service.
type Logger interface {
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
	Debug(ctx context.Context, msg string, fields ...Field)

	// Named returns a child logger that tags every record with component=name.
	Named(name string) Logger
}

// Field is a key/value pair attached to a log record.
type Field struct {
	Key   string
	Value any
}

// Field constructors.
func String(key, val string) Field                 { return Field{Key: key, Value: val} }
func Int(key string, val int) Field                { return Field{Key: key, Value: val} }
func Bool(key string, val bool) Field              { return Field{Key: key, Value: val} }
func Duration(key string, val time.Duration) Field { return Field{Key: key, Value: val.String()} }
func Any(key string, val any) Field                { return Field{Key: key, Value: val} }
func Error(err error) Field                        { return Field{Key: "error", Value: err} }

type slogLogger struct {
	base *slog.Logger
}

func (l *slogLogger) Named(name string) Logger {
	return &slogLogger{base: l.base.With(slog.String("component", name))}
}

func (l *slogLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelInfo, msg, fields)
}

func (l *slogLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelWarn, msg, fields)
}

func (l *slogLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelError, msg, fields)
}

func (l *slogLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelDebug, msg, fields)
}

func (l *slogLogger) log(ctx context.Context, level slog.Level, msg string, fields []Field) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.base.Enabled(ctx, level) {
		return
	}
	attrs := make([]slog.Attr, 0, len(fields)+1)
	for _, f := range fields {
		attrs = append(attrs, slog.Any(f.Key, f.Value))
	}
	attrs = append(attrs, slog.String("source", caller()))
	l.base.LogAttrs(ctx, level, msg, attrs...)
}

// caller returns the call site as relative/path/file.go:line.
func caller() string {
	_, file, line, ok := runtime.Caller(callerSkipFrames)
	if !ok {
		return "unknown:0"
	}
	if cwd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(cwd, file); err == nil {
			return fmt.Sprintf("%s:%d", rel, line)
		}
	}
	return fmt.Sprintf("%s:%d", filepath.Base(file), line)
}

// Option customizes Init.
type Option func(*options)

type options struct {
	format string
	out    io.Writer
}

// WithFormat selects the handler: "text" (default) or "json".
func WithFormat(format string) Option {
	return func(o *options) {
		if format != "" {
			o.format = strings.ToLower(format)
		}
	}
}

// WithWriter redirects output, mainly for tests.
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.out = w
		}
	}
}

var (
	mu       sync.RWMutex
	global   Logger
	levelVar slog.LevelVar
)

// Init (re)initializes the global logger at info level.
func Init(opts ...Option) error {
	o := options{format: "text", out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	levelVar.Set(slog.LevelInfo)
	hopts := &slog.HandlerOptions{Level: &levelVar}

	var h slog.Handler
	switch o.format {
	case "text":
		h = slog.NewTextHandler(o.out, hopts)
	case "json":
		h = slog.NewJSONHandler(o.out, hopts)
	default:
		return fmt.Errorf("unknown log format: %s", o.format)
	}

	mu.Lock()
	global = &slogLogger{base: slog.New(h)}
	mu.Unlock()
	return nil
}

// Get returns the global logger. It panics if Init was never called.
func Get() Logger {
	mu.RLock()
	defer mu.RUnlock()
	if global == nil {
		panic("logger not initialized; call logger.Init first")
	}
	return global
}

// Named is shorthand for Get().Named(name).
func Named(name string) Logger {
	return Get().Named(name)
}

// Sync flushes buffered entries. slog does not buffer.
func Sync() error {
	return nil
}

// SetLevel updates the level of the global handler.
func SetLevel(level slog.Level) { levelVar.Set(level) }

// SetLevelString parses debug, info, warn/warning or error (case-insensitive).
func SetLevelString(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		SetLevel(slog.LevelDebug)
	case "", "info":
		SetLevel(slog.LevelInfo)
	case "warn", "warning":
		SetLevel(slog.LevelWarn)
	case "error":
		SetLevel(slog.LevelError)
	default:
		return fmt.Errorf("unknown log level: %s", level)
	}
	return nil
}
