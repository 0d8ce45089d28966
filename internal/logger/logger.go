// Package logger builds the zerolog logger shared by the API and the workers.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New logs JSON to stderr in the shape Cloud Logging ingests. ENV=development
// switches to console output at debug level; LOG_LEVEL overrides the level.
func New() zerolog.Logger {
	return build(os.Stderr, os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
}

func build(w io.Writer, env, levelName string) zerolog.Logger {
	// Cloud Logging reads the level from "severity".
	zerolog.LevelFieldName = "severity"
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level := zerolog.InfoLevel
	if env == "development" {
		w = zerolog.ConsoleWriter{Out: w}
		level = zerolog.DebugLevel
	}
	if parsed, err := zerolog.ParseLevel(levelName); err == nil && levelName != "" {
		level = parsed
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
