// Package logger wraps zerolog with the constructors used across the
// meal tracker: a JSON stdout logger tagged with a component name, and
// a no-op logger for tests.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

type Logger struct {
	zerolog.Logger
}

// New returns a JSON logger writing to stdout with a "component" field
// and per-entry timestamps.
func New(component string) *Logger {
	l := zerolog.New(os.Stdout).With().
		Str("component", component).
		Timestamp().
		Logger()
	return &Logger{l}
}

// Nop returns a logger that discards everything. For tests.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}
