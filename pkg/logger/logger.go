// Package logger wraps log/slog with the service, component and output conventions shared by
// every roomreserve binary.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

type Format string

const (
	JSON Format = "json"
	Text Format = "text"
)

const (
	serviceKey   = "service"
	componentKey = "component"
)

type Logger struct {
	*slog.Logger
}

type Config struct {
	Level     string
	Format    Format
	Output    io.Writer
	AddSource bool
	Service   string
}

// ParseLevel accepts slog level names in any case, including offsets such as "warn+2".
// Unknown or empty names fall back to info.
func ParseLevel(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch Format(strings.ToLower(string(cfg.Format))) {
	case Text:
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	if cfg.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String(serviceKey, cfg.Service)})
	}
	return &Logger{Logger: slog.New(handler)}
}

// Component returns a child logger tagging every record with the component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Logger: l.With(componentKey, name)}
}

// Fatal logs at error level and exits with status 1.
func (l *Logger) Fatal(msg string, args ...any) {
	l.Error(msg, args...)
	os.Exit(1)
}
