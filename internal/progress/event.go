package progress

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind denotes the type of payload carried by an Event.
type Kind string

// Supported event kinds.
const (
	KindStatus              Kind = "status"
	KindMessage             Kind = "message"
	KindCitation            Kind = "citation"
	KindCodeExecutionResult Kind = "code_execution_result"
)

// Status codes shared by all workflows. Workflows may use additional codes of
// their own (e.g. "searching") where the host expects them.
const (
	StatusInProgress = "in_progress"
	StatusComplete   = "complete"
	StatusError      = "error"
)

// StatusPayload reports workflow state to the host UI. Done marks the event
// as terminal for the current invocation.
type StatusPayload struct {
	Status      string `json:"status"`
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

// MessagePayload carries free-form content for the host to display inline.
type MessagePayload struct {
	Content string `json:"content"`
}

// CitationPayload surfaces one retrieved document with its provenance.
type CitationPayload struct {
	Document string         `json:"document"`
	Metadata map[string]any `json:"metadata"`
	Source   string         `json:"source"`
}

// CodeExecutionPayload carries the output of an executed code block.
type CodeExecutionPayload struct {
	Output string `json:"output"`
}

// Event is a single progress notification. Exactly one payload field is set,
// matching Kind. Events have no identity beyond their position in the
// emission sequence; they are forwarded, never stored.
type Event struct {
	Kind          Kind
	Status        *StatusPayload
	Message       *MessagePayload
	Citation      *CitationPayload
	CodeExecution *CodeExecutionPayload
}

// NewStatus builds a status Event.
func NewStatus(description, status string, done bool) Event {
	return Event{
		Kind: KindStatus,
		Status: &StatusPayload{
			Status:      status,
			Description: description,
			Done:        done,
		},
	}
}

// NewMessage builds a message Event.
func NewMessage(content string) Event {
	return Event{Kind: KindMessage, Message: &MessagePayload{Content: content}}
}

// NewCitation builds a citation Event.
func NewCitation(document string, metadata map[string]any, source string) Event {
	return Event{
		Kind: KindCitation,
		Citation: &CitationPayload{
			Document: document,
			Metadata: metadata,
			Source:   source,
		},
	}
}

// NewCodeExecutionResult builds a code execution result Event.
func NewCodeExecutionResult(output string) Event {
	return Event{Kind: KindCodeExecutionResult, CodeExecution: &CodeExecutionPayload{Output: output}}
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	switch e.Kind {
	case KindStatus:
		if e.Status == nil {
			return errors.New("status event requires status payload")
		}
	case KindMessage:
		if e.Message == nil {
			return errors.New("message event requires message payload")
		}
	case KindCitation:
		if e.Citation == nil {
			return errors.New("citation event requires citation payload")
		}
	case KindCodeExecutionResult:
		if e.CodeExecution == nil {
			return errors.New("code execution event requires output payload")
		}
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	return nil
}

func (e Event) data() any {
	switch e.Kind {
	case KindStatus:
		return e.Status
	case KindMessage:
		return e.Message
	case KindCitation:
		return e.Citation
	case KindCodeExecutionResult:
		return e.CodeExecution
	}
	return nil
}

// MarshalJSON encodes the Event in the host wire shape {"type": ..., "data": ...}.
func (e Event) MarshalJSON() ([]byte, error) {
	payload := struct {
		Type Kind `json:"type"`
		Data any  `json:"data"`
	}{Type: e.Kind, Data: e.data()}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", e.Kind, err)
	}
	return b, nil
}
