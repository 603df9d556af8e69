// Package logger owns the process-wide slog logger.  Text output goes through
// tint; LOG_FORMAT=json switches to the standard JSON handler.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"

	"github.com/iliyamo/resolvenow/internal/config"
)

var (
	mu          sync.RWMutex
	current     *slog.Logger
	atomicLevel = new(slog.LevelVar)
)

// ParseLevel maps a level name to a slog.Level.  Unknown names yield info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Init builds the logger described by cfg and installs it as slog's default.
func Init(cfg config.LogConfig) (*slog.Logger, error) {
	atomicLevel.Set(ParseLevel(cfg.Level))

	var w io.Writer
	switch strings.ToLower(cfg.Output) {
	case "", "stdout":
		w = os.Stdout
	case "stderr":
		w = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		w = f
	}

	l := slog.New(NewHandler(w, cfg.Format))
	mu.Lock()
	current = l
	mu.Unlock()
	slog.SetDefault(l)
	return l, nil
}

// NewHandler returns the handler for format ("json" or text) writing to w at
// the shared level.
func NewHandler(w io.Writer, format string) slog.Handler {
	if strings.EqualFold(format, "json") {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: atomicLevel})
	}
	return tint.NewHandler(w, &tint.Options{
		Level:      atomicLevel,
		TimeFormat: time.DateTime,
		NoColor:    !isTerminal(w),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == "error" && a.Value.Kind() == slog.KindAny {
				if err, ok := a.Value.Any().(error); ok {
					return tint.Err(err)
				}
			}
			return a
		},
	})
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// SetLevel changes the level of every handler built by this package.
func SetLevel(level slog.Level) { atomicLevel.Set(level) }

// Get returns the configured logger, or a text logger on stdout when Init
// has not run.
func Get() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l != nil {
		return l
	}
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		current = slog.New(NewHandler(os.Stdout, "text"))
	}
	return current
}

func WithComponent(component string) *slog.Logger {
	return Get().With("component", component)
}
