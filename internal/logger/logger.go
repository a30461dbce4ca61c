// Package logger builds the slog loggers used by pgmap and its tools.
package logger

import (
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/lmittmann/tint"
)

type Options struct {
	// Level is a level name: debug, info, warn or error. Empty means info.
	Level string
	// Text selects the plain key=value handler instead of the console one.
	Text    bool
	NoColor bool
	Writer  io.Writer
}

func New(opts Options) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	lvl := ParseLevel(opts.Level)

	if opts.Text {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: lvl,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.LevelKey {
					return slog.String(a.Key, strings.ToLower(a.Value.String()))
				}
				return a
			},
		}))
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		NoColor:    opts.NoColor || runtime.GOOS == "windows",
		TimeFormat: "15:04:05.000",
	}))
}

// ParseLevel maps a level name to a slog level; unknown names are info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "err", "error":
		return slog.LevelError
	case "warn", "warning":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
