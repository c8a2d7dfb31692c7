package failure

import (
	"context"
	"fmt"
	"log/slog"
)

// LogSink writes every handled failure to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink. A nil logger uses slog.Default.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Record implements Sink.
func (s *LogSink) Record(ctx context.Context, rec Record) {
	std := rec.Model.StandardError
	attrs := []slog.Attr{
		slog.String("failure", describe(rec.Failure)),
		slog.Int("status", std.Status),
		slog.String("title", std.Title),
		slog.String("message", std.Message),
		slog.String("route", std.Route),
		slog.Int("field_errors", len(rec.Model.FieldErrors)),
	}
	if rec.Request.Method != "" {
		attrs = append(attrs,
			slog.String("method", rec.Request.Method),
			slog.String("path", rec.Request.Path),
		)
	}

	level := slog.LevelError
	if rec.Model.IsValidation() {
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(ctx, level, "failure handled", attrs...)
}

func describe(v any) string {
	switch f := v.(type) {
	case nil:
		return "<nil>"
	case error:
		return f.Error()
	default:
		return fmt.Sprintf("%v", f)
	}
}
