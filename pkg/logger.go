package pkg

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewLogger создаёт JSON-логгер. Уровень задаётся переменной окружения
// LOG_LEVEL (debug, info, warn, error), по умолчанию info.
func NewLogger(w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	})

	return slog.New(handler)
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(raw) {
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
