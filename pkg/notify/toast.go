package notify

import "log/slog"

// Level classifies a toast.
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Sink receives the user-facing toast for every terminal execution outcome.
type Sink interface {
	Push(level Level, message string)
}

// SlogSink logs toasts; the default when no UI transport is wired.
type SlogSink struct{}

func (SlogSink) Push(level Level, message string) {
	switch level {
	case LevelError:
		slog.Error(message, "toast", true)
	default:
		slog.Info(message, "toast", true, "level", string(level))
	}
}

// NopSink discards toasts.
type NopSink struct{}

func (NopSink) Push(Level, string) {}
