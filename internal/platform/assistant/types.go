package assistant

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Memory modes accepted by the provider when adding a message.
const (
	MemoryAuto = "Auto"
	MemoryOff  = "off"
)

type ChunkType string

const (
	ChunkContent            ChunkType = "content_streaming"
	ChunkMessageComplete    ChunkType = "message_complete"
	ChunkToolSubmitRequired ChunkType = "tool_submit_required"
	ChunkError              ChunkType = "error"
)

// Chunk is one decoded event of a provider stream.
type Chunk struct {
	Type      ChunkType         `json:"type"`
	Content   string            `json:"content,omitempty"`
	RunID     string            `json:"run_id,omitempty"`
	ToolCalls []openai.ToolCall `json:"tool_calls,omitempty"`
	Error     string            `json:"error,omitempty"`
}

type Assistant struct {
	AssistantID string `json:"assistant_id"`
	Name        string `json:"name"`
}

type Thread struct {
	ThreadID string     `json:"thread_id"`
	Messages []*Message `json:"messages"`
}

type Message struct {
	MessageID string    `json:"message_id,omitempty"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	RunID     string    `json:"run_id,omitempty"`
	Status    string    `json:"status,omitempty"`
}

// UnmarshalJSON accepts created_at with or without a zone offset. Timestamps
// without one are read as UTC.
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	aux := struct {
		*plain
		CreatedAt string `json:"created_at"`
	}{plain: (*plain)(m)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	ts, err := ParseTimestamp(aux.CreatedAt)
	if err != nil {
		return err
	}
	m.CreatedAt = ts
	return nil
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses an RFC 3339 timestamp, falling back to zone-less
// layouts interpreted as UTC. The result is always in UTC; "" yields the zero time.
func ParseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

type Document struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
}

type ToolOutput struct {
	ToolCallID string `json:"tool_call_id"`
	Output     string `json:"output"`
}

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("assistant api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("assistant api: status %d: %s", e.StatusCode, e.Message)
}
