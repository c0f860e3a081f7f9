package logging

import (
	"context"
	"log/slog"
	"time"
)

type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func DocumentID(id string) Attr { return slog.String(FieldDocumentID, id) }

func SetID(id string) Attr { return slog.String(FieldSetID, id) }

func CardID(id string) Attr { return slog.String(FieldCardID, id) }

func QuizID(id string) Attr { return slog.String(FieldQuizID, id) }

func Subject(subject string) Attr { return slog.String(FieldSubject, subject) }

func EventType(eventType string) Attr { return slog.String(FieldEventType, eventType) }

// Hint tells the operator what to do next.
func Hint(hint string) Attr { return slog.String(FieldErrorHint, hint) }

// Impact states what the user loses when a warning fires.
func Impact(impact string) Attr { return slog.String(FieldImpact, impact) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

func Args(attrs ...Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}

func NewNop() *slog.Logger {
	return slog.New(discardHandler{})
}

// NewComponentLogger tags logger with a component name. A nil logger
// discards.
func NewComponentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// WarnWithContext logs a warning that always carries event_type, error_hint,
// and impact so the reader knows what broke, what it costs, and what to do.
func WarnWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefault(attrs, EventType(eventType))
	attrs = withDefault(attrs, Hint("check logs for details"))
	attrs = withDefault(attrs, Impact("the study session continues with reduced functionality"))
	logger.Warn(msg, Args(attrs...)...)
}

// ErrorWithContext logs an error that always carries event_type and
// error_hint.
func ErrorWithContext(logger *slog.Logger, msg, eventType string, attrs ...Attr) {
	if logger == nil {
		return
	}
	attrs = withDefault(attrs, EventType(eventType))
	attrs = withDefault(attrs, Hint("check logs for details"))
	logger.Error(msg, Args(attrs...)...)
}

func withDefault(attrs []Attr, fallback Attr) []Attr {
	for _, a := range attrs {
		if a.Key == fallback.Key {
			return attrs
		}
	}
	return append(attrs, fallback)
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool { return false }

func (discardHandler) Handle(context.Context, slog.Record) error { return nil }

func (discardHandler) WithAttrs([]slog.Attr) slog.Handler { return discardHandler{} }

func (discardHandler) WithGroup(string) slog.Handler { return discardHandler{} }
