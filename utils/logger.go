package utils

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger: JSON in production, console otherwise.
func NewLogger(env string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	if env == "production" {
		return zerolog.New(os.Stdout).Level(zerolog.InfoLevel).With().Timestamp().Str("service", "medicore").Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).
		Level(zerolog.DebugLevel).With().Timestamp().Logger()
}
