package logging

import (
	"io"
	"log/slog"
	"os"
)

// Init installs the default slog logger. LOG_LEVEL picks the level and
// LOG_FILE, when set, sends output to a file so the interactive shell keeps
// the terminal to itself.
func Init() {
	level := slog.LevelError // default: production only shows errors
	if l, ok := os.LookupEnv("LOG_LEVEL"); ok {
		level = ParseLevel(l)
	}

	var out io.Writer = os.Stderr
	if path := os.Getenv("LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			out = f
		}
	}

	slog.SetDefault(New(out, level))
}

// New builds a text logger writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(
		slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: level,
		}),
	)
}

// ParseLevel maps the LOG_LEVEL vocabulary onto slog levels.
func ParseLevel(l string) slog.Level {
	switch l {
	case "dev", "development", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return New(io.Discard, slog.LevelError)
}
