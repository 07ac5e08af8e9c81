package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New creates the process logger. Production writes JSON to stdout;
// development gets the human-readable console writer.
func New(env string) zerolog.Logger {
	if env == "production" {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).With().Timestamp().Logger()
}
