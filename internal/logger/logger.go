// Package logger builds the zerolog logger shared by the service.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName tags every log line.
const ServiceName = "produtos-api"

// New returns a logger writing to out (stdout when nil). format "console"
// switches to zerolog's human-readable writer, anything else emits JSON.
func New(level zerolog.Level, format string, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	return zerolog.New(out).
		With().
		Timestamp().
		Str("service", ServiceName).
		Logger().
		Level(level)
}

// ParseLevel maps a textual level to zerolog, defaulting to info.
func ParseLevel(value string) zerolog.Level {
	levelString := strings.ToLower(strings.TrimSpace(value))
	if levelString == "" {
		return zerolog.InfoLevel
	}
	if lvl, err := zerolog.ParseLevel(levelString); err == nil {
		return lvl
	}
	return zerolog.InfoLevel
}
