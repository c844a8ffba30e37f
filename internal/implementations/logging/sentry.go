package logging

import (
	"context"
	"fmt"
	"setpass/internal/core/domain/logging"

	"github.com/getsentry/sentry-go"
)

// SentryLogger forwards every record to inner and reports Error records to
// Sentry. An entry holding an error is reported as an exception.
type SentryLogger struct {
	inner logging.Logger
	hub   *sentry.Hub
}

func NewSentryLogger(inner logging.Logger, hub *sentry.Hub) *SentryLogger {
	if inner == nil {
		panic("Argument inner must not be nil.")
	}
	if hub == nil {
		panic("Argument hub must not be nil.")
	}
	return &SentryLogger{inner: inner, hub: hub}
}

func (l *SentryLogger) Debug(ctx context.Context, msg string, entries ...logging.LogEntry) {
	l.inner.Debug(ctx, msg, entries...)
}

func (l *SentryLogger) Info(ctx context.Context, msg string, entries ...logging.LogEntry) {
	l.inner.Info(ctx, msg, entries...)
}

func (l *SentryLogger) Warning(ctx context.Context, msg string, entries ...logging.LogEntry) {
	l.inner.Warning(ctx, msg, entries...)
}

func (l *SentryLogger) Error(ctx context.Context, msg string, entries ...logging.LogEntry) {
	l.inner.Error(ctx, msg, entries...)

	l.hub.WithScope(func(scope *sentry.Scope) {
		var reported error
		for _, entry := range entries {
			if err, ok := entry.Value.(error); ok && reported == nil {
				reported = err
				continue
			}
			scope.SetExtra(entry.Key, fmt.Sprint(entry.Value))
		}
		if reported == nil {
			l.hub.CaptureMessage(msg)
			return
		}
		scope.SetExtra("msg", msg)
		l.hub.CaptureException(reported)
	})
}
