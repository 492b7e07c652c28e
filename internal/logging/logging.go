// Package logging builds the process-wide zerolog.Logger that cmd/draftwatch
// constructs once and hands down to every subsystem as an explicit
// dependency (spec §9: no package-level logger singleton).
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Options controls the root logger's output.
type Options struct {
	Level  string // "debug", "info", "warn", "error"
	Pretty bool   // human-readable console writer instead of JSON lines
	Output io.Writer
}

// New builds the root logger. Each subsystem that logs derives its own
// scoped child from it via logger.With().Str("component", name).Logger().
func New(opts Options) zerolog.Logger {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
