package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var (
	// Default logger instance
	Log zerolog.Logger
)

func init() {
	Log = newConsole(os.Stderr, zerolog.InfoLevel)
}

func newConsole(w io.Writer, level zerolog.Level) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// SetLevel changes the logging level
func SetLevel(level zerolog.Level) {
	Log = Log.Level(level)
}

// SetLevelString parses a level name ("debug", "info", ...) and applies it.
func SetLevelString(name string) error {
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return err
	}
	SetLevel(level)
	return nil
}

// SetJSON switches to JSON output, keeping the current level
func SetJSON() {
	Log = zerolog.New(os.Stderr).Level(Log.GetLevel()).With().Timestamp().Logger()
}

// Component returns a child logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return Log.With().Str("component", name).Logger()
}
