package obs

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// NewLogger returns colored debug output for local environments and JSON elsewhere.
func NewLogger(env string) *slog.Logger {
	return newLogger(env, os.Stdout)
}

func newLogger(env string, writer io.Writer) *slog.Logger {
	if IsLocal(env) {
		return slog.New(tint.NewHandler(writer, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: "15:04:05.000",
			AddSource:  true,
		}))
	}
	return slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
	}))
}

func IsLocal(env string) bool {
	return env == "dev" || env == "local"
}
