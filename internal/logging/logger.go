// Package logging defines a minimal structured-logging interface used across
// the client. Implementations wrap slog or zerolog.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "search finished", "results", n, "shape", shape)
type Logger interface {
	// Debug logs detail useful only while diagnosing behaviour.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Options selects the backend and verbosity of a Logger built by New.
type Options struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string
	// Format is text or json (slog), or zerolog.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
}

// New builds a Logger from opts.
func New(opts Options) Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "zerolog":
		return NewZerologLogger(out, opts.Level)
	case "json":
		return NewSlogJSONLogger(out, opts.Level)
	default:
		return NewSlogTextLogger(out, opts.Level)
	}
}
