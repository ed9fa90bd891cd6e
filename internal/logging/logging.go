// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup builds the root logger.  Development gets a human readable console
// writer; every other environment logs JSON lines to stdout.  Unknown
// levels fall back to info.
func Setup(env, level string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if env == "development" || env == "dev" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	l := New(out, level).With().Str("service", "car-marketplace").Logger()
	log.Logger = l
	zerolog.DefaultContextLogger = &l
	return l
}

// New returns a timestamped logger writing to w at the given level.
func New(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
