package tools

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hession/slotmate/internal/plasmic"
	"github.com/hession/slotmate/internal/stream"
)

// codegenStub is a fake render endpoint that remembers every request URL
type codegenStub struct {
	mu     sync.Mutex
	urls   []*url.URL
	tokens []string
	status int
	body   string
}

func (s *codegenStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.urls = append(s.urls, r.URL)
	s.tokens = append(s.tokens, r.Header.Get(plasmic.TokenHeader))
	s.mu.Unlock()

	if s.status != 0 {
		w.WriteHeader(s.status)
	}
	_, _ = w.Write([]byte(s.body))
}

func (s *codegenStub) seen() ([]*url.URL, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*url.URL(nil), s.urls...), append([]string(nil), s.tokens...)
}

func newStubRegistry(t *testing.T, stub *codegenStub) *Registry {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)
	client := plasmic.NewClient(srv.URL, "proj123", "secret", plasmic.WithHTTPClient(srv.Client()))
	return NewDefaultRegistry(client)
}

func TestReplaceSlotContent_EndToEnd(t *testing.T) {
	stub := &codegenStub{body: `{"html": "<div>ok</div>"}`}
	registry := newStubRegistry(t, stub)
	rec := stream.NewRecorder()

	res, err := registry.Execute(context.Background(), ReplaceSlotContentName, map[string]any{
		"component": "Banner",
		"slot":      "hero",
		"content":   "<h1>Fresh & new</h1>",
	}, rec)
	require.NoError(t, err)
	require.True(t, res.OK())

	assert.Equal(t, `Replaced slot "hero" in component "Banner".`, res.Message)
	assert.Equal(t, "<div>ok</div>", res.HTML)
	assert.Equal(t, []stream.Event{
		{Type: stream.EventComponent, Content: "Banner"},
		{Type: stream.EventSlot, Content: "hero"},
		{Type: stream.EventHTML, Content: "<div>ok</div>"},
	}, rec.Events())

	urls, tokens := stub.seen()
	require.Len(t, urls, 1)
	u := urls[0]
	assert.Equal(t, "/proj123/Banner", u.Path)
	assert.Equal(t, `{"hero":"<h1>Fresh & new</h1>"}`, u.Query().Get("componentProps"))
	assert.Equal(t, "preview", u.Query().Get("mode"))
	assert.Equal(t, "1", u.Query().Get("hydrate"))
	assert.Equal(t, "1", u.Query().Get("embedHydrate"))
	assert.Equal(t, "proj123:secret", tokens[0])
}

func TestReplaceSlotContent_FalseFlagsOmitted(t *testing.T) {
	stub := &codegenStub{body: `{"html": ""}`}
	registry := newStubRegistry(t, stub)

	res, err := registry.Execute(context.Background(), ReplaceSlotContentName, map[string]any{
		"component":    "Banner",
		"slot":         "hero",
		"content":      "x",
		"hydrate":      false,
		"embedHydrate": false,
		"mode":         "published",
	}, nil)
	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "", res.HTML)

	urls, _ := stub.seen()
	require.Len(t, urls, 1)
	q := urls[0].Query()
	_, hasHydrate := q["hydrate"]
	_, hasEmbed := q["embedHydrate"]
	assert.False(t, hasHydrate, "hydrate must be omitted, not sent as 0")
	assert.False(t, hasEmbed, "embedHydrate must be omitted, not sent as 0")
	assert.Equal(t, "published", q.Get("mode"))
}

func TestReplaceSlotContent_NotFound(t *testing.T) {
	stub := &codegenStub{status: http.StatusNotFound, body: "not found"}
	registry := newStubRegistry(t, stub)
	rec := stream.NewRecorder()

	res, err := registry.Execute(context.Background(), ReplaceSlotContentName, map[string]any{
		"component": "Banner",
		"slot":      "hero",
		"content":   "x",
	}, rec)
	require.NoError(t, err)
	require.False(t, res.OK())

	assert.Equal(t, "Plasmic API error: 404 not found", res.Failure.Message)
	assert.Equal(t, plasmic.KindRemoteAPI, res.Failure.Kind)
	assert.Equal(t, `{"error":"Plasmic API error: 404 not found","error_kind":"remote_api"}`, res.Text())
	assert.Zero(t, rec.Len())
}

func TestReplaceSlotContent_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	registry := NewDefaultRegistry(plasmic.NewClient("http://"+addr, "proj123", "secret"))
	rec := stream.NewRecorder()

	res, err := registry.Execute(context.Background(), ReplaceSlotContentName, map[string]any{
		"component": "Banner",
		"slot":      "hero",
		"content":   "x",
	}, rec)
	require.NoError(t, err)
	require.False(t, res.OK())

	assert.Equal(t, plasmic.KindNetwork, res.Failure.Kind)
	assert.Contains(t, res.Failure.Message, "connection refused")
	assert.Zero(t, rec.Len())
}

func TestReplaceSlotContent_MalformedBody(t *testing.T) {
	stub := &codegenStub{body: "<html>not json</html>"}
	registry := newStubRegistry(t, stub)
	rec := stream.NewRecorder()

	res, err := registry.Execute(context.Background(), ReplaceSlotContentName, map[string]any{
		"component": "Banner",
		"slot":      "hero",
		"content":   "x",
	}, rec)
	require.NoError(t, err)
	require.False(t, res.OK())
	assert.Equal(t, plasmic.KindMalformedResponse, res.Failure.Kind)
	assert.Zero(t, rec.Len())
}

func TestReplaceSlotContent_RepeatedCallsAreIndependent(t *testing.T) {
	stub := &codegenStub{body: `{"html": "<p>same</p>"}`}
	registry := newStubRegistry(t, stub)
	args := map[string]any{"component": "Banner", "slot": "hero", "content": "x"}

	first, err := registry.Execute(context.Background(), ReplaceSlotContentName, args, nil)
	require.NoError(t, err)
	second, err := registry.Execute(context.Background(), ReplaceSlotContentName, args, nil)
	require.NoError(t, err)

	urls, _ := stub.seen()
	assert.Len(t, urls, 2)
	assert.Equal(t, first.Text(), second.Text())
}
