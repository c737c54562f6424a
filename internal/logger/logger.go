// Package logger provides structured logging using zerolog.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is attached to every log line.
const ServiceName = "cashpilot-bot"

// Log is the global logger instance.
var Log zerolog.Logger

func init() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	Log = newLogger(os.Stdout, false)
}

func newLogger(w io.Writer, json bool) zerolog.Logger {
	if !json {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	ctx := zerolog.New(w).With().Timestamp().Str("service", ServiceName)
	if !json {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// SetLevel sets the global log level. Unknown or empty values fall back to
// info; "trace" and "disabled" are not accepted from configuration.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	switch {
	case err != nil, lvl < zerolog.DebugLevel, lvl > zerolog.ErrorLevel:
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// SetJSON switches to JSON output on stdout.
func SetJSON() {
	Log = newLogger(os.Stdout, true)
}

// SetOutput redirects the global logger, keeping the chosen format.
func SetOutput(w io.Writer, json bool) {
	Log = newLogger(w, json)
}

// Configure applies level and output format in one call.
func Configure(level, format string) {
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		SetJSON()
	}
	SetLevel(level)
}
