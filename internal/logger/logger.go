package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup initializes zerolog based on environment configuration.
//   - service: name bound to every entry, distinguishes the api server
//     from the seed and bootstrap commands in aggregated logs
//   - level: log level string (trace, debug, info, warn, error, fatal, panic)
//   - format: "json" for production, "pretty" for human-readable dev output
//
// The returned logger is also installed as the global zerolog/log logger,
// which the services and workers log through.
func Setup(service, level, format string) zerolog.Logger {
	var writer io.Writer

	if format == "pretty" {
		writer = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	} else {
		writer = os.Stdout
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(lvl)

	logger := zerolog.New(writer).
		With().
		Timestamp().
		Caller().
		Str("service", service).
		Logger()

	log.Logger = logger
	return logger
}
