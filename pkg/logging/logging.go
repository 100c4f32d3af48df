// Package logging configures the process-wide slog logger used by the
// semguard command and the language drivers.
//
// Records go to stderr as text, or as JSON when asked, and always carry the
// module and version attributes. The level comes from the explicit setting
// when one is given and from LOG_LEVEL otherwise; the default is info.
// Debug records also carry their source location.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// EnvLevel names the environment variable read when no level is given.
const EnvLevel = "LOG_LEVEL"

// ParseLevel maps debug, info, warn (or warning) and error to a slog level,
// ignoring case. Anything else is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger writing to w. An empty level falls back to LOG_LEVEL.
func New(w io.Writer, name, version, level string, json bool) *slog.Logger {
	if level == "" {
		level = os.Getenv(EnvLevel)
	}
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl <= slog.LevelDebug,
	}

	var h slog.Handler
	if json {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("module", name, "version", version)
}

// SetDefault installs a stderr logger as the slog default.
func SetDefault(name, version, level string, json bool) {
	slog.SetDefault(New(os.Stderr, name, version, level, json))
}
