package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the root logger. dev gets a console writer, everything else JSON.
func New(env, level string) zerolog.Logger {
	return NewWithOutput(env, level, os.Stderr)
}

func NewWithOutput(env, level string, out io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	w := out
	if env == "dev" {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

// Nop is used by tests and by callers that do not care about logs.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
