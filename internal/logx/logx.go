// Package logx wires zerolog into the process and adapts it onto the
// engine's narrow logging contract.
package logx

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/20lawsobk/maxbooster7.5-sub011/internal/sim"
)

// New builds the process logger. Console mode renders human-friendly
// output for local runs; otherwise plain JSON lines go to stdout for
// whatever scrapes them.
func New(level string, console bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var w io.Writer = os.Stdout
	if console {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Adapter narrows a zerolog.Logger onto sim.Logger.
type Adapter struct {
	l zerolog.Logger
}

var _ sim.Logger = (*Adapter)(nil)

// NewAdapter wraps a zerolog logger, tagging every line with the component
// name the way the rest of the services log ("[SimEngine] ...").
func NewAdapter(l zerolog.Logger, component string) *Adapter {
	return &Adapter{l: l.With().Str("component", component).Logger()}
}

func (a *Adapter) Debug(msg string, fields map[string]interface{}) {
	a.l.Debug().Fields(fields).Msg(msg)
}

func (a *Adapter) Info(msg string, fields map[string]interface{}) {
	a.l.Info().Fields(fields).Msg(msg)
}

func (a *Adapter) Warn(msg string, fields map[string]interface{}) {
	a.l.Warn().Fields(fields).Msg(msg)
}

func (a *Adapter) Error(msg string, fields map[string]interface{}) {
	a.l.Error().Fields(fields).Msg(msg)
}
