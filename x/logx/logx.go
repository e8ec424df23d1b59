// Package logx sets up the process-wide zerolog logger.
package logx

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init replaces the global logger with one writing to w at level.
func Init(level zerolog.Level, w io.Writer) zerolog.Logger {
	logger := zerolog.New(zerolog.MultiLevelWriter(w)).Level(level).With().Timestamp().Logger()
	log.Logger = logger

	if level == zerolog.DebugLevel {
		log.Debug().Msg("log level set to debug")
	}
	return logger
}

// ParseLevel maps a config string to a level, defaulting to info for
// empty or unknown names.
func ParseLevel(s string) zerolog.Level {
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return l
}
