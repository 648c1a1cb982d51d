package logger

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// SetupLogger returns a colored tint logger for development (or an unset env)
// and a JSON logger for everything else.
func SetupLogger(env string, w io.Writer) *slog.Logger {
	if env == "development" || env == "" {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
