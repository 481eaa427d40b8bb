package logger

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs the process-wide default slog logger. Format is either
// "json" or "text".
func Setup(level string, format string) {
	SetupWriter(level, format, os.Stdout)
}

// SetupWriter is Setup with an explicit output writer; tests use it to
// capture log output.
func SetupWriter(level string, format string, w io.Writer) {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// WithComponent returns the default logger tagged with a component name.
func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
