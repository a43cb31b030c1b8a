// Package logger builds the structured application logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"

	"dokumenapi/internal/config"
)

// TimeKey replaces slog's default "time" key so lines match the rest of our JSON logs.
const TimeKey = "ts"

// New builds the process logger from configuration.
// Development uses a text handler; everything else writes JSON lines to stdout.
// When a Sentry DSN is configured, error records are also forwarded to Sentry.
// The returned flush func must be called before exit.
func New(c config.LogConfig, loc *time.Location, dev bool) (*slog.Logger, func(), error) {
	level := ParseLevel(c.Level)

	var handlers []slog.Handler
	if dev || c.Format == "text" {
		handlers = append(handlers, slog.NewTextHandler(os.Stdout, options(level, loc)))
	} else {
		handlers = append(handlers, slog.NewJSONHandler(os.Stdout, options(level, loc)))
	}

	flush := func() {}
	if c.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: c.SentryDSN}); err != nil {
			return nil, flush, err
		}
		handlers = append(handlers, slogsentry.Option{Level: slog.LevelError}.NewSentryHandler())
		flush = func() { sentry.Flush(2 * time.Second) }
	}

	var h slog.Handler
	if len(handlers) > 1 {
		h = slogmulti.Fanout(handlers...)
	} else {
		h = handlers[0]
	}

	return slog.New(h), flush, nil
}

// NewJSON returns a JSON logger writing to w with timestamps rendered in loc.
func NewJSON(w io.Writer, loc *time.Location, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, options(level, loc)))
}

// Discard returns a logger that drops every record. Useful in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a config string to a slog level, defaulting to info.
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

func options(level slog.Level, loc *time.Location) *slog.HandlerOptions {
	if loc == nil {
		loc = time.UTC
	}
	return &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.String(TimeKey, a.Value.Time().In(loc).Format(time.RFC3339Nano))
			}
			return a
		},
	}
}
