package progress

import "context"

// Sink consumes individual progress events. Emit blocks until the event has
// been accepted; implementations must honor ctx deadlines. Delivery is one
// event per call, never batched, so callers can rely on emission order.
type Sink interface {
	Emit(ctx context.Context, evt Event) error
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(ctx context.Context, evt Event) error

// Emit calls f.
func (f SinkFunc) Emit(ctx context.Context, evt Event) error {
	return f(ctx, evt)
}

// MultiSink fans a single event stream out to several sinks, invoking them
// sequentially in registration order so every sink observes the same order.
// A failing sink does not prevent delivery to the remaining sinks; the first
// error encountered is returned.
func MultiSink(sinks ...Sink) Sink {
	filtered := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return multiSink(filtered)
}

type multiSink []Sink

func (m multiSink) Emit(ctx context.Context, evt Event) error {
	var firstErr error
	for _, s := range m {
		if err := s.Emit(ctx, evt); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
