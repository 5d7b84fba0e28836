package audit

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Event is one audited operation.
type Event struct {
	TraceID      string            `json:"trace_id"`
	Timestamp    time.Time         `json:"timestamp"`
	Action       string            `json:"action"`
	ResourceType string            `json:"resource_type,omitempty"`
	ResourceID   string            `json:"resource_id,omitempty"`
	OperatorID   int64             `json:"operator_id,omitempty"`
	OperatorName string            `json:"operator_name,omitempty"`
	Before       map[string]any    `json:"before,omitempty"`
	After        map[string]any    `json:"after,omitempty"`
	Params       map[string]string `json:"params,omitempty"`
	Success      bool              `json:"success"`
	Error        string            `json:"error,omitempty"`
}

var (
	traceMu      sync.Mutex
	traceEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewTraceID returns a lexically sortable unique id for correlating an
// audit event with the request that produced it.
func NewTraceID() string {
	traceMu.Lock()
	defer traceMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), traceEntropy).String()
}

// Sink receives delivered audit events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink discards every event.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink hands events to a buffered channel, for tests and for
// callers that run their own consumer loop.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan Event, buffer)}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line, suitable for piping
// an audit trail to a log file.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
