// Package logging sets up the process logger.
package logging

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New builds a console logger for the named app. Level comes from the given
// level string with FINDERKIT_LOG_LEVEL taking precedence; color is disabled
// with FINDERKIT_LOG_NOCOLOR.
func New(app, level string) zerolog.Logger {
	if env := strings.TrimSpace(os.Getenv("FINDERKIT_LOG_LEVEL")); env != "" {
		level = env
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	noColor := false
	if v := strings.TrimSpace(os.Getenv("FINDERKIT_LOG_NOCOLOR")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			noColor = b
		}
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}
	return zerolog.New(output).Level(lvl).With().Timestamp().Str("app", app).Logger()
}
