package node

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process's root zerolog.Logger from Config.LogLevel,
// console-formatted to stderr. Component loggers are derived from it with
// WithComponent rather than read off a package global, matching this
// module's preference for explicit state over lazily-initialized globals.
func NewLogger(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).Level(level).With().Timestamp().Logger()
}

// WithComponent returns a child logger tagging every event with component,
// e.g. "sync", "l1", "mempool", "storage".
func WithComponent(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str("component", component).Logger()
}
