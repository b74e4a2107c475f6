// Package stream carries tool progress events to whatever is rendering them.
package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// EventType tags a progress event
type EventType string

const (
	EventComponent EventType = "component"
	EventSlot      EventType = "slot"
	EventHTML      EventType = "html"
)

// Event is one progress notification
type Event struct {
	Type    EventType `json:"type"`
	Content string    `json:"content"`
}

// Sink receives events. Emit must not block for long and must not panic.
type Sink interface {
	Emit(ev Event)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(ev Event)

func (f SinkFunc) Emit(ev Event) {
	f(ev)
}

type discard struct{}

func (discard) Emit(Event) {}

// Discard drops every event
var Discard Sink = discard{}

// OrDiscard returns s, or Discard when s is nil
func OrDiscard(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}

// Recorder keeps events in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Len returns the number of recorded events
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// jsonLinesSink writes one JSON object per line
type jsonLinesSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLinesSink writes each event as a JSON line to w
func NewJSONLinesSink(w io.Writer) Sink {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &jsonLinesSink{enc: enc}
}

func (s *jsonLinesSink) Emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(ev)
}

// SSEWriter writes server-sent event frames and flushes after each one
type SSEWriter struct {
	mu      sync.Mutex
	w       io.Writer
	flusher http.Flusher
}

// NewSSEWriter wraps w. It returns false when w cannot flush.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	return &SSEWriter{w: w, flusher: flusher}, true
}

// Send writes a named event whose data is v encoded as JSON
func (s *SSEWriter) Send(name string, v any) error {
	data, err := marshalNoEscape(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Emit sends ev as an event named after its type
func (s *SSEWriter) Emit(ev Event) {
	_ = s.Send(string(ev.Type), ev)
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
