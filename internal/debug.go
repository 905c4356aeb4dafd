package internal

import (
	"context"
	"log/slog"
)

// LevelTrace is used for per-register bus traffic.
const LevelTrace slog.Level = slog.LevelDebug - 2

func LogEnabled(l *slog.Logger, lvl slog.Level) bool {
	return l != nil && l.Handler().Enabled(context.Background(), lvl)
}

// LogAttrs is a helper function that is used by all package loggers.
// A nil logger discards the record.
func LogAttrs(l *slog.Logger, level slog.Level, msg string, attrs ...slog.Attr) {
	if l != nil {
		l.LogAttrs(context.Background(), level, msg, attrs...)
	}
}
