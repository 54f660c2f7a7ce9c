package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
)

type Options struct {
	Level     string
	File      string
	SentryDSN string
	AppEnv    string
}

// New creates a *slog.Logger writing JSON to stderr and optionally to a file.
// When a Sentry DSN is given, error records carrying an "error" attribute are
// also reported to Sentry. The logger becomes the slog default. The returned
// cleanup func closes the log file and flushes Sentry; callers must defer it.
func New(opts Options) (*slog.Logger, func(), error) {
	lvl := parseLevel(opts.Level)

	writers := []io.Writer{os.Stderr}
	var closers []func()

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, f)
		closers = append(closers, func() { _ = f.Close() })
	}

	var handler slog.Handler = slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: lvl})

	if opts.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         opts.SentryDSN,
			Environment: opts.AppEnv,
		})
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, nil, err
		}
		handler = newSentryHandler(handler, sentry.CurrentHub())
		closers = append(closers, func() { sentry.Flush(2 * time.Second) })
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return logger, cleanup, nil
}

// sentryHandler forwards error-level records with an error attribute to a
// Sentry hub before passing them on.
type sentryHandler struct {
	next  slog.Handler
	hub   *sentry.Hub
	attrs []slog.Attr
}

func newSentryHandler(next slog.Handler, hub *sentry.Hub) *sentryHandler {
	return &sentryHandler{next: next, hub: hub}
}

func (h *sentryHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *sentryHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		if err := findError(h.attrs, r); err != nil {
			h.hub.WithScope(func(scope *sentry.Scope) {
				scope.SetTag("log.message", r.Message)
				h.hub.CaptureException(err)
			})
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *sentryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &sentryHandler{next: h.next.WithAttrs(attrs), hub: h.hub, attrs: merged}
}

func (h *sentryHandler) WithGroup(name string) slog.Handler {
	return &sentryHandler{next: h.next.WithGroup(name), hub: h.hub, attrs: h.attrs}
}

func findError(preset []slog.Attr, r slog.Record) error {
	var found error
	r.Attrs(func(a slog.Attr) bool {
		if err, ok := a.Value.Any().(error); ok && a.Key == "error" {
			found = err
			return false
		}
		return true
	})
	if found != nil {
		return found
	}
	for _, a := range preset {
		if err, ok := a.Value.Any().(error); ok && a.Key == "error" {
			return err
		}
	}
	return nil
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
