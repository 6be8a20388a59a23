package telemetry

import (
	"log/slog"
	"os"
)

// InitSlog installs the process-wide slog handler. `pretty` selects
// a human-readable text handler for CLI use, otherwise JSON lines
// for anything that ships logs somewhere.
func InitSlog(pretty bool) {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if pretty {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}
