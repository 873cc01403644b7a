package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/JakeFAU/assistant-tools/internal/progress"
)

// LogSink emits structured logs for debugging progress streams. It is useful
// during development or audits where the host stream is unavailable.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink wires a Zap logger to the sink interface.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Emit logs the event using kind-specific structured fields.
func (s *LogSink) Emit(_ context.Context, evt progress.Event) error {
	fields := []zap.Field{zap.String("kind", string(evt.Kind))}
	switch evt.Kind {
	case progress.KindStatus:
		fields = append(fields,
			zap.String("status", evt.Status.Status),
			zap.String("description", evt.Status.Description),
			zap.Bool("done", evt.Status.Done),
		)
	case progress.KindMessage:
		fields = append(fields, zap.String("content", evt.Message.Content))
	case progress.KindCitation:
		fields = append(fields,
			zap.String("source", evt.Citation.Source),
			zap.Int("document_len", len(evt.Citation.Document)),
		)
	case progress.KindCodeExecutionResult:
		fields = append(fields, zap.Int("output_len", len(evt.CodeExecution.Output)))
	}
	s.logger.Info("progress event", fields...)
	return nil
}
