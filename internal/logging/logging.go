package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"notes-server/internal/config"

	"github.com/rs/zerolog"
)

// New builds the process logger. Development defaults to a human-readable
// console writer, everything else to JSON lines; LOG_FORMAT overrides both.
func New(cfg *config.Config) zerolog.Logger {
	return NewWithWriter(cfg, os.Stdout)
}

func NewWithWriter(cfg *config.Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	format := cfg.Logging.Format
	if format == "" {
		format = "json"
		if !cfg.Server.IsProduction() {
			format = "console"
		}
	}

	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: w != os.Stdout}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", "notes-server").
		Logger()
}
