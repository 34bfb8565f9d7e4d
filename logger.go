package chatglyph

import (
	"log/slog"

	"github.com/gogpu/chatglyph/internal/logging"
)

// SetLogger configures the logger for chatglyph and all its sub-packages.
// By default, chatglyph produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore silence.
//
// Log levels used by chatglyph:
//   - [slog.LevelDebug]: each downloaded image
//   - [slog.LevelInfo]: completed manifest batches
//   - [slog.LevelWarn]: skipped images, unregistered names, plain-text fallbacks
//   - [slog.LevelError]: failed manifests, missing glyphs, failed local echo
//
// Example:
//
//	chatglyph.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger used by chatglyph.
func Logger() *slog.Logger {
	return logging.Logger()
}
