// Package logging wraps zerolog for the service's components.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger so components share one construction path.
type Logger struct {
	zerolog.Logger
}

// New returns a console logger on stderr at the given level.
func New(level string) *Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
	return &Logger{Logger: zerolog.New(output).Level(ParseLevel(level)).With().Timestamp().Logger()}
}

// NewWithOutput returns a JSON logger writing to w. Used by tests to inspect log lines.
func NewWithOutput(level string, w io.Writer) *Logger {
	return &Logger{Logger: zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()}
}

// NewSilent discards everything.
func NewSilent() *Logger {
	return &Logger{Logger: zerolog.New(io.Discard)}
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Logger: l.With().Str("component", name).Logger()}
}

func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "information":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
