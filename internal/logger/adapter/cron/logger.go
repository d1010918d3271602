// Package cron adapts zerolog to the robfig/cron logger interface.
package cron

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Logger satisfies cron.Logger.
type Logger struct {
	log zerolog.Logger
}

var _ cron.Logger = Logger{}

// New wraps log, tagging every entry with the cron component.
func New(log zerolog.Logger) Logger {
	return Logger{log: log.With().Str("component", "cron").Logger()}
}

// Info logs routine scheduler messages at debug level, cron is chatty.
func (l Logger) Info(msg string, keysAndValues ...any) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l Logger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
