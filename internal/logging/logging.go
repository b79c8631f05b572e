// Package logging provides the engine-wide structured logger. It follows
// the lazy-global-plus-With-helpers shape of alxayo-rtmp-go's
// internal/logger, backed by charmbracelet/log instead of slog.
package logging

import (
	"os"
	"strings"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

const envLogLevel = "SOUNDCORE_LOG_LEVEL"

var (
	global   *charmlog.Logger
	initOnce sync.Once
)

// Init initializes the global logger. Safe to call multiple times; only
// the first call has effect, matching alxayo-rtmp-go's logger.Init.
func Init() {
	initOnce.Do(func() {
		global = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
			ReportTimestamp: true,
			ReportCaller:    false,
			Level:           detectLevel(),
		})
	})
}

func detectLevel() charmlog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(envLogLevel))) {
	case "debug":
		return charmlog.DebugLevel
	case "warn", "warning":
		return charmlog.WarnLevel
	case "error", "err":
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

// Logger returns the global logger, initializing it on first use.
func Logger() *charmlog.Logger {
	Init()
	return global
}

// SetLevel changes the runtime log level.
func SetLevel(level charmlog.Level) {
	Logger().SetLevel(level)
}

// WithSlot attaches source-slot identity to a derived logger.
func WithSlot(l *charmlog.Logger, slot int) *charmlog.Logger {
	return l.With("slot", slot)
}

// WithTrack attaches the track number to a derived logger.
func WithTrack(l *charmlog.Logger, trackNum int) *charmlog.Logger {
	return l.With("track", trackNum)
}

// WithOp attaches the high-level operation name, matching the Op field
// carried by internal/audioerr.Error so a log line and an error value
// can be correlated.
func WithOp(l *charmlog.Logger, op string) *charmlog.Logger {
	return l.With("op", op)
}
