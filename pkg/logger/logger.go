package logger

import (
	"context"
	"io"
	"log"
	"log/slog"
	"strings"
)

// New returns a stdlib logger that forwards every line to l, tagged with
// component, at the given level. Useful for http.Server.ErrorLog.
func New(l *slog.Logger, component string, level slog.Level) *log.Logger {
	return slog.NewLogLogger(l.With("component", component).Handler(), level)
}

// Writer adapts l to an io.Writer; each write becomes one record.
func Writer(l *slog.Logger, component string, level slog.Level) io.Writer {
	return &writer{logger: l.With("component", component), level: level}
}

type writer struct {
	logger *slog.Logger
	level  slog.Level
}

func (w *writer) Write(p []byte) (int, error) {
	if msg := strings.TrimSpace(string(p)); msg != "" {
		w.logger.Log(context.Background(), w.level, msg)
	}
	return len(p), nil
}
