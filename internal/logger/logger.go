package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Logger is the structured logger used across migi. Fields are alternating
// key/value pairs.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	WithField(key string, value interface{}) Logger
}

// Options configures the process wide logger
type Options struct {
	Level  string // debug, info, warn or error
	Format string // text or json
	Output io.Writer
}

var (
	mu   sync.RWMutex
	base = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
)

// Configure replaces the process wide logger
func Configure(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "text":
		handler = slog.NewTextHandler(out, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(out, handlerOpts)
	default:
		return fmt.Errorf("unsupported log format: %q", opts.Format)
	}

	mu.Lock()
	base = slog.New(handler)
	mu.Unlock()

	return nil
}

// ParseLevel converts a level name into a slog level. Empty means warn.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "", "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("unsupported log level: %q", level)
	}
}

// Default returns the process wide logger
func Default() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &slogLogger{l: base}
}

// WithField returns the default logger with one field attached
func WithField(key string, value interface{}) Logger {
	return Default().WithField(key, value)
}

type slogLogger struct {
	l *slog.Logger
}

func (s *slogLogger) Debug(msg string, fields ...interface{}) { s.l.Debug(msg, fields...) }
func (s *slogLogger) Info(msg string, fields ...interface{})  { s.l.Info(msg, fields...) }
func (s *slogLogger) Warn(msg string, fields ...interface{})  { s.l.Warn(msg, fields...) }
func (s *slogLogger) Error(msg string, fields ...interface{}) { s.l.Error(msg, fields...) }

func (s *slogLogger) WithField(key string, value interface{}) Logger {
	return &slogLogger{l: s.l.With(key, value)}
}
