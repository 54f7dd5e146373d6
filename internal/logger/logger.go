// ABOUTME: Structured logging setup on zerolog
// ABOUTME: Parses level and format from configuration and tags component loggers
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup builds the process logger writing to stderr and installs it as the
// global logger
func Setup(level, format string) (zerolog.Logger, error) {
	return SetupTo(os.Stderr, level, format)
}

// SetupTo is Setup with an explicit destination
func SetupTo(w io.Writer, level, format string) (zerolog.Logger, error) {
	l, err := New(w, level, format)
	if err != nil {
		return zerolog.Nop(), err
	}

	zerolog.SetGlobalLevel(l.GetLevel())
	log.Logger = l
	return l, nil
}

// New builds a logger without touching global state
func New(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}

	switch strings.ToLower(format) {
	case "json":
	case "", "console", "text":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q", format)
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// ParseLevel accepts debug, info, warn/warning and error
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// WithComponent returns a child logger tagged with the component name
func WithComponent(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str("component", component).Logger()
}
