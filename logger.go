package linksheet

import (
	"log/slog"

	"github.com/tsawler/linksheet/internal/logging"
)

// SetLogger configures the logger for linksheet and all its sub-packages.
// By default, linksheet produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by linksheet:
//   - [slog.LevelDebug]: placements, annotation rectangles, file steps
//   - [slog.LevelInfo]: finished reports
//   - [slog.LevelWarn]: skipped fields, clipped bullets, unencodable text
//
// Example:
//
//	linksheet.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return logging.Logger()
}
