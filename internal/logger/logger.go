// Package logger builds the zerolog loggers used across the server.
package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// New returns a console logger on stderr. debug lowers the level to Debug.
func New(debug bool) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return withLevel(zerolog.New(out).With().Timestamp().Logger(), debug)
}

// NewWithWriter returns a JSON logger writing to w
func NewWithWriter(w io.Writer, debug bool) zerolog.Logger {
	return withLevel(zerolog.New(w).With().Timestamp().Logger(), debug)
}

// Nop discards everything
func Nop() zerolog.Logger {
	return zerolog.Nop()
}

func withLevel(l zerolog.Logger, debug bool) zerolog.Logger {
	if debug {
		return l.Level(zerolog.DebugLevel)
	}
	return l.Level(zerolog.InfoLevel)
}

// WithContext stores l in ctx
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored by WithContext, or a no-op logger
func FromContext(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return zerolog.Nop()
}
