package utils

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger creates a console logger on stderr. Debug mode lowers the level
// to debug so per-line walker decisions become visible.
func NewLogger(debug bool) (*zerolog.Logger, error) {
	return newLogger(os.Stderr, debug), nil
}

func newLogger(w io.Writer, debug bool) *zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: !debug}
	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return &logger
}
