// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init sets up the global logger with the given level ("debug", "info", ...)
// and, when pretty is set, a human-readable console writer.
func Init(level string, pretty bool) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}

	var output io.Writer = os.Stdout
	if pretty {
		output = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	zerolog.SetGlobalLevel(parsed)
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}
