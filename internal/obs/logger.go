// Package obs builds the per-analysis loggers engines are constructed
// with: one named, independently-leveled logger per analysis kind,
// injected at construction rather than held in package-level state.
package obs

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Kind names the analysis a logger is scoped to.
type Kind string

const (
	DC        Kind = "dc"
	AC        Kind = "ac"
	Transient Kind = "transient"
	Netlist   Kind = "netlist"
)

// NewConsole returns a human-readable console logger, quiet by
// default at Warn level.
func NewConsole() zerolog.Logger {
	w := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(w).Level(zerolog.WarnLevel).With().Timestamp().Logger()
}

// Discard returns a logger that drops everything, for tests and for
// callers that embed the engines without wanting console noise.
func Discard() zerolog.Logger {
	return zerolog.New(io.Discard).Level(zerolog.Disabled)
}

// For scopes a base logger to one analysis kind.
func For(base zerolog.Logger, kind Kind) zerolog.Logger {
	return base.With().Str("analysis", string(kind)).Logger()
}
