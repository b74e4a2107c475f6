// Package server exposes the tool registry over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/hession/slotmate/internal/logger"
	"github.com/hession/slotmate/internal/metrics"
	"github.com/hession/slotmate/internal/stream"
	"github.com/hession/slotmate/internal/tools"
)

// RequestIDHeader carries the per-request id
const RequestIDHeader = "X-Request-Id"

const maxBodyBytes = 1 << 20

type requestIDKey struct{}

// RequestID returns the id stored by the request-id middleware
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Server serves tool calls over HTTP
type Server struct {
	registry *tools.Registry
	metrics  *metrics.Metrics
	log      *logger.Logger
	router   chi.Router
}

// New creates a server. m may be nil, in which case /metrics is not mounted.
func New(registry *tools.Registry, m *metrics.Metrics, log *logger.Logger) *Server {
	s := &Server{
		registry: registry,
		metrics:  m,
		log:      logger.OrDefault(log),
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/tools", s.handleListTools)
	r.Post("/tools/{name}", s.handleCallTool)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening on %s", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.log.Info("shutdown signal received, stopping HTTP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("%s %s -> %d in %s (request_id=%s)",
			r.Method, r.URL.Path, ww.Status(), time.Since(start), RequestID(r.Context()))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.GetSchemas())
}

// callResponse is the non-streaming answer to POST /tools/{name}
type callResponse struct {
	Events []stream.Event `json:"events"`
	Result tools.Result   `json:"result"`
}

func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := s.registry.Get(name); !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("tool not found: %s", name))
		return
	}

	var args map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&args); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "text/event-stream") {
		s.streamCall(w, r, name, args)
		return
	}

	rec := stream.NewRecorder()
	result, err := s.registry.Execute(r.Context(), name, args, rec)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events := rec.Events()
	if events == nil {
		events = []stream.Event{}
	}
	writeJSON(w, http.StatusOK, callResponse{Events: events, Result: result})
}

// streamCall forwards events as SSE frames and finishes with a result or error frame
func (s *Server) streamCall(w http.ResponseWriter, r *http.Request, name string, args map[string]any) {
	sse, ok := stream.NewSSEWriter(w)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	result, err := s.registry.Execute(r.Context(), name, args, sse)
	if err != nil {
		if sendErr := sse.Send("error", map[string]string{"error": err.Error()}); sendErr != nil {
			s.log.Warn("failed to send error frame: %v", sendErr)
		}
		return
	}
	if err := sse.Send("result", result); err != nil {
		s.log.Warn("failed to send result frame: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
