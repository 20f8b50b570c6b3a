// Package logging configures the structured logger shared by every Starbase
// component. It is initialized once from the STARFLEET configuration section
// (LogLevel, ThirdPartyLoggerLevels) and handed down as a zerolog.Logger
// rather than referenced as a package-level global by the core pipeline.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Config mirrors the logging-relevant fields of the STARFLEET configuration
// section: LogLevel and ThirdPartyLoggerLevels.
type Config struct {
	Level                  string
	ThirdPartyLoggerLevels map[string]string
	Output                 io.Writer // defaults to os.Stdout when nil
}

// New builds a base logger for the given configuration. Callers derive
// component loggers from it with WithComponent rather than mutating a
// package-level global.
func New(cfg Config) zerolog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(output).With().Timestamp().Str("service", "starbase").Logger().Level(level)
	return logger
}

// WithComponent returns a child logger tagged with the given component name,
// applying any third-party override level configured for it.
func WithComponent(base zerolog.Logger, cfg Config, component string) zerolog.Logger {
	logger := base.With().Str("component", component).Logger()
	if override, ok := cfg.ThirdPartyLoggerLevels[component]; ok {
		if level, err := zerolog.ParseLevel(strings.ToLower(override)); err == nil {
			logger = logger.Level(level)
		}
	}
	return logger
}

// Nop returns a logger that discards all output, used as a safe zero value
// in tests that don't care about log output.
func Nop() zerolog.Logger {
	return zerolog.New(io.Discard)
}
