package logger

import (
	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// gocronLogger forwards scheduler logs to the global zerolog logger.
type gocronLogger struct{}

// NewGocronLogger returns a gocron.Logger backed by Log.
//
//nolint:ireturn // gocron accepts its own Logger interface
func NewGocronLogger() gocron.Logger {
	return gocronLogger{}
}

func (gocronLogger) Debug(msg string, args ...any) { logKV(Log.Debug(), msg, args) }
func (gocronLogger) Info(msg string, args ...any)  { logKV(Log.Info(), msg, args) }
func (gocronLogger) Warn(msg string, args ...any)  { logKV(Log.Warn(), msg, args) }
func (gocronLogger) Error(msg string, args ...any) { logKV(Log.Error(), msg, args) }

// logKV attaches alternating key/value args to the event.
func logKV(event *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		if err, isErr := args[i+1].(error); isErr {
			event = event.AnErr(key, err)
			continue
		}
		event = event.Interface(key, args[i+1])
	}
	event.Str("component", "scheduler").Msg(msg)
}
