// Package obs provides structured logging helpers shared by every synfinder process.
package obs

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ServiceName is attached to every log line of the global logger
const ServiceName = "synfinder"

// InitLogger initializes the global logger. An unknown or empty level falls
// back to info. LOG_FORMAT=console (or ENV=dev) switches to the human
// readable console writer on stderr.
func InitLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logLevel, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || logLevel == zerolog.NoLevel {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	var out io.Writer = os.Stderr
	if os.Getenv("LOG_FORMAT") == "console" || os.Getenv("ENV") == "dev" {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Str("service", ServiceName).Logger()
}

// Logger returns a new logger with the given component name
func Logger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// WithJob scopes logger to a job and the database it works on. Empty values
// are left out.
func WithJob(logger zerolog.Logger, jobID, address string) zerolog.Logger {
	ctx := logger.With()
	if jobID != "" {
		ctx = ctx.Str("job_id", jobID)
	}
	if address != "" {
		ctx = ctx.Str("database", address)
	}
	return ctx.Logger()
}

// Nop returns a disabled logger, used when a constructor is handed none
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
