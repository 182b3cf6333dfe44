// Package sysutil holds process-level setup shared by the binaries.
package sysutil

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetLogLevel configures the global zerolog level based on a string value.
// Supported values (case-insensitive): debug, info, warn, error, fatal, panic.
// Anything else falls back to info.
func SetLogLevel(lvl string) zerolog.Level {
	level := zerolog.InfoLevel
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		level = zerolog.DebugLevel
	case "warn", "warning":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	case "fatal":
		level = zerolog.FatalLevel
	case "panic":
		level = zerolog.PanicLevel
	}
	zerolog.SetGlobalLevel(level)
	return level
}

// NewLogger builds the process logger, installs it as log.Logger and returns
// it. Pretty output is meant for a terminal; otherwise JSON lines go to w
// (stderr when nil).
func NewLogger(w io.Writer, level string, pretty bool, service string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	SetLogLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}
	}
	l := zerolog.New(w).With().Timestamp().Str("service", service).Logger()
	log.Logger = l
	return l
}

// FirstNonEmpty returns the first value that is not blank, or "".
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
