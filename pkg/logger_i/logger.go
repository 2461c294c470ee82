package logger_i

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"
)

type Logger struct {
	inner *slog.Logger
}

type Options struct {
	IsProd bool
	Level  string
}

// Init installs the process wide handler, JSON in prod and text otherwise.
func Init(opts Options) {
	options := &slog.HandlerOptions{
		Level: parseLevel(opts.Level),
	}

	var handler slog.Handler
	if opts.IsProd {
		handler = slog.NewJSONHandler(os.Stdout, options)

	} else {
		handler = slog.NewTextHandler(os.Stdout, options)

	}
	newLogger := slog.New(handler)
	slog.SetDefault(newLogger)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

func NewLogger(section string) *Logger {
	return &Logger{
		inner: slog.Default().With("component", section),
	}
}

func (l *Logger) Info(msg string, args ...any) {
	l.inner.Info(msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.logWithSource(slog.LevelError, msg, args...)
}

func (l *Logger) Warn(msg string, args ...any) {
	l.logWithSource(slog.LevelWarn, msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.logWithSource(slog.LevelDebug, msg, args...)
}

func (l *Logger) logWithSource(level slog.Level, msg string, args ...any) {
	if !l.inner.Enabled(context.Background(), level) {
		return
	}
	var pcs [1]uintptr
	// Skip 3 levels: runtime.Callers, logWithSource, and Err/Dbg wrapper - this looks at GO's stack trace
	runtime.Callers(3, pcs[:])
	record := slog.NewRecord(time.Now(), level, msg, pcs[0])
	record.Add(args...)
	_ = l.inner.Handler().Handle(context.Background(), record)
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		inner: l.inner.With(args...),
	}
}

// Slog exposes the underlying logger for libraries that accept a *slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.inner
}
