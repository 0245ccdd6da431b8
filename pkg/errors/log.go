package errors

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// LogHandler is an ErrorHandler that logs errors through zerolog.
// The zero value writes human-readable lines to stderr.
type LogHandler struct {
	// Verbose enables detailed output including stack traces.
	Verbose bool
	// Logger overrides the destination logger. When nil a console logger
	// writing to Output (or stderr) is used.
	Logger *zerolog.Logger
	// Output is used when Logger is nil.
	Output io.Writer
}

func (h *LogHandler) logger() zerolog.Logger {
	if h.Logger != nil {
		return *h.Logger
	}
	out := h.Output
	if out == nil {
		out = os.Stderr
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out, NoColor: true}).With().Timestamp().Logger()
}

// HandleError logs a HookError.
func (h *LogHandler) HandleError(err *HookError) {
	if err == nil {
		return
	}
	l := h.logger()
	ev := l.Error().Str("op", err.Op).Str("kind", err.Kind.String()).Err(err.Err)
	if err.Matcher != 0 {
		ev = ev.Uint64("matcher", err.Matcher)
	}
	if err.Session != "" {
		ev = ev.Str("session", err.Session)
	}
	if h.Verbose && err.StackTrace != "" {
		ev = ev.Str("stack", err.StackTrace)
	}
	ev.Msg("hookwire error")
}
