package progress

import (
	"context"

	"go.uber.org/zap"
)

// Emitter is the reporter handed to a single workflow invocation. It wraps an
// optional Sink with the semantic event vocabulary the host understands. Each
// method invokes the sink exactly once and swallows sink errors after logging
// them; delivery is best effort. A nil sink turns every method into a no-op
// that still builds its payload.
//
// An Emitter is created per invocation and discarded afterwards. It is not
// safe for concurrent use.
type Emitter struct {
	sink         Sink
	logger       *zap.Logger
	debug        bool
	statusPrefix string
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithLogger sets the logger used for debug traces and sink failures.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Emitter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithDebug logs every emitted event at debug level.
func WithDebug(debug bool) Option {
	return func(e *Emitter) {
		e.debug = debug
	}
}

// NewEmitter builds an Emitter around sink. A nil sink is allowed.
func NewEmitter(sink Sink, opts ...Option) *Emitter {
	e := &Emitter{
		sink:   sink,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetStatusPrefix prepends prefix to the description of all subsequent status
// events.
func (e *Emitter) SetStatusPrefix(prefix string) {
	e.statusPrefix = prefix
}

// Status emits a status event. The configured prefix, if any, is applied to
// the description for this event only.
func (e *Emitter) Status(ctx context.Context, description, status string, done bool) {
	if e.statusPrefix != "" {
		description = e.statusPrefix + description
	}
	e.emit(ctx, NewStatus(description, status, done))
}

// Progress emits a non-terminal in_progress status.
func (e *Emitter) Progress(ctx context.Context, description string) {
	e.Status(ctx, description, StatusInProgress, false)
}

// Complete emits a terminal complete status.
func (e *Emitter) Complete(ctx context.Context, description string) {
	e.Status(ctx, description, StatusComplete, true)
}

// Fail emits a terminal error status.
func (e *Emitter) Fail(ctx context.Context, description string) {
	e.Status(ctx, description, StatusError, true)
}

// Message emits a message event.
func (e *Emitter) Message(ctx context.Context, content string) {
	e.emit(ctx, NewMessage(content))
}

// Citation emits a citation event for one retrieved document.
func (e *Emitter) Citation(ctx context.Context, document string, metadata map[string]any, source string) {
	e.emit(ctx, NewCitation(document, metadata, source))
}

// CodeExecutionResult emits a code execution result event.
func (e *Emitter) CodeExecutionResult(ctx context.Context, output string) {
	e.emit(ctx, NewCodeExecutionResult(output))
}

func (e *Emitter) emit(ctx context.Context, evt Event) {
	if e.debug {
		e.logger.Debug("emitting progress event", zap.String("kind", string(evt.Kind)))
	}
	if e.sink == nil {
		return
	}
	if err := e.sink.Emit(ctx, evt); err != nil {
		e.logger.Warn("progress sink emit failed",
			zap.String("kind", string(evt.Kind)),
			zap.Error(err),
		)
	}
}
