package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/JakeFAU/assistant-tools/internal/progress"
)

// streamSink writes each progress event to the HTTP response as one NDJSON
// line and flushes before returning, so the client observes events in
// emission order while the workflow is still running.
type streamSink struct {
	w   http.ResponseWriter
	enc *json.Encoder
}

func newStreamSink(w http.ResponseWriter) *streamSink {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	return &streamSink{w: w, enc: json.NewEncoder(w)}
}

// Emit satisfies progress.Sink.
func (s *streamSink) Emit(_ context.Context, evt progress.Event) error {
	if err := s.enc.Encode(evt); err != nil {
		return fmt.Errorf("stream progress event: %w", err)
	}
	s.flush()
	return nil
}

// writeResult terminates the stream with the final tool result.
func (s *streamSink) writeResult(data any) error {
	line := struct {
		Type string `json:"type"`
		Data any    `json:"data"`
	}{Type: "result", Data: data}
	if err := s.enc.Encode(line); err != nil {
		return fmt.Errorf("stream result: %w", err)
	}
	s.flush()
	return nil
}

func (s *streamSink) flush() {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
}
