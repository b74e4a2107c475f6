package stream

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Emit(Event{Type: EventComponent, Content: "Banner"})
	r.Emit(Event{Type: EventSlot, Content: "hero"})

	events := r.Events()
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Type != EventComponent || events[1].Type != EventSlot {
		t.Errorf("Unexpected event order: %+v", events)
	}

	// Returned slice is a copy
	events[0].Content = "changed"
	if r.Events()[0].Content != "Banner" {
		t.Error("Events() should return a copy")
	}
}

func TestRecorder_Concurrent(t *testing.T) {
	r := NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Emit(Event{Type: EventHTML, Content: "x"})
		}()
	}
	wg.Wait()

	if r.Len() != 50 {
		t.Errorf("Expected 50 events, got %d", r.Len())
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) != Discard {
		t.Error("nil sink should become Discard")
	}
	r := NewRecorder()
	if OrDiscard(r) != Sink(r) {
		t.Error("non-nil sink should be returned as is")
	}
	// Must not panic
	Discard.Emit(Event{Type: EventHTML})
}

func TestSinkFunc(t *testing.T) {
	var got []EventType
	s := SinkFunc(func(ev Event) { got = append(got, ev.Type) })
	s.Emit(Event{Type: EventComponent})
	s.Emit(Event{Type: EventHTML})

	if len(got) != 2 || got[0] != EventComponent || got[1] != EventHTML {
		t.Errorf("Unexpected events: %v", got)
	}
}

func TestJSONLinesSink(t *testing.T) {
	var buf bytes.Buffer
	s := NewJSONLinesSink(&buf)
	s.Emit(Event{Type: EventComponent, Content: "Banner"})
	s.Emit(Event{Type: EventHTML, Content: "<div>ok</div>"})

	want := `{"type":"component","content":"Banner"}` + "\n" +
		`{"type":"html","content":"<div>ok</div>"}` + "\n"
	if buf.String() != want {
		t.Errorf("Unexpected output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestSSEWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	w, ok := NewSSEWriter(rec)
	if !ok {
		t.Fatal("httptest.ResponseRecorder should support flushing")
	}

	w.Emit(Event{Type: EventSlot, Content: "hero"})
	if err := w.Send("result", map[string]string{"html": "<p>hi</p>"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "event: slot\ndata: {\"type\":\"slot\",\"content\":\"hero\"}\n\n") {
		t.Errorf("Missing slot frame in:\n%s", body)
	}
	if !strings.Contains(body, "event: result\ndata: {\"html\":\"<p>hi</p>\"}\n\n") {
		t.Errorf("Missing result frame in:\n%s", body)
	}
	if !rec.Flushed {
		t.Error("Writer should flush after each frame")
	}
}

type plainWriter struct {
	http.ResponseWriter
}

func TestNewSSEWriter_NoFlusher(t *testing.T) {
	if _, ok := NewSSEWriter(plainWriter{httptest.NewRecorder()}); ok {
		t.Error("Writer without http.Flusher should be rejected")
	}
}
