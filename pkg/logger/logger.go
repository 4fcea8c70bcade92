package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process-wide root logger. Components derive their own
// loggers from it with With().Str("component", ...).
func New(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
