package progress

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// recordSink captures every emitted event for assertions.
type recordSink struct {
	events []Event
	err    error
}

func (s *recordSink) Emit(_ context.Context, evt Event) error {
	s.events = append(s.events, evt)
	return s.err
}

// TestEmitterOrderAndSingleDelivery verifies each call reaches the sink
// exactly once, in call order.
func TestEmitterOrderAndSingleDelivery(t *testing.T) {
	t.Parallel()

	sink := &recordSink{}
	e := NewEmitter(sink)
	ctx := context.Background()

	e.Progress(ctx, "first")
	e.Citation(ctx, "doc", nil, "src")
	e.Message(ctx, "note")
	e.Complete(ctx, "second")

	require.Len(t, sink.events, 4)
	require.Equal(t, KindStatus, sink.events[0].Kind)
	require.Equal(t, "first", sink.events[0].Status.Description)
	require.False(t, sink.events[0].Status.Done)
	require.Equal(t, KindCitation, sink.events[1].Kind)
	require.Equal(t, KindMessage, sink.events[2].Kind)
	require.Equal(t, KindStatus, sink.events[3].Kind)
	require.True(t, sink.events[3].Status.Done)
}

func TestEmitterStatusPrefix(t *testing.T) {
	t.Parallel()

	sink := &recordSink{}
	e := NewEmitter(sink)
	ctx := context.Background()

	e.Progress(ctx, "plain")
	e.SetStatusPrefix("[scrape] ")
	e.Progress(ctx, "prefixed")

	require.Equal(t, "plain", sink.events[0].Status.Description)
	require.Equal(t, "[scrape] prefixed", sink.events[1].Status.Description)
}

func TestEmitterFail(t *testing.T) {
	t.Parallel()

	sink := &recordSink{}
	e := NewEmitter(sink)

	e.Fail(context.Background(), "boom")

	require.Len(t, sink.events, 1)
	require.Equal(t, StatusError, sink.events[0].Status.Status)
	require.True(t, sink.events[0].Status.Done)
	require.Equal(t, "boom", sink.events[0].Status.Description)
}

// TestEmitterNilSink asserts emission methods are safe no-ops without a sink.
func TestEmitterNilSink(t *testing.T) {
	t.Parallel()

	e := NewEmitter(nil)
	ctx := context.Background()
	e.Progress(ctx, "nobody listening")
	e.Citation(ctx, "doc", map[string]any{}, "src")
	e.Fail(ctx, "still fine")
}

// TestEmitterSwallowsSinkErrors asserts a failing sink never surfaces to the
// workflow.
func TestEmitterSwallowsSinkErrors(t *testing.T) {
	t.Parallel()

	sink := &recordSink{err: errors.New("sink broken")}
	e := NewEmitter(sink)

	e.Progress(context.Background(), "best effort")
	require.Len(t, sink.events, 1)
}

func TestMultiSinkFanOut(t *testing.T) {
	t.Parallel()

	a := &recordSink{}
	b := &recordSink{err: errors.New("b down")}
	c := &recordSink{}
	sink := MultiSink(a, nil, b, c)

	err := sink.Emit(context.Background(), NewMessage("hello"))
	require.Error(t, err)
	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	require.Len(t, c.events, 1)
}
