package tools

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/hession/slotmate/internal/plasmic"
	"github.com/hession/slotmate/internal/stream"
)

// Tool tool interface
type Tool interface {
	Name() string               // Tool name
	Description() string        // Tool description (for LLM)
	Parameters() []ParameterDef // Parameter definitions
	// Execute runs the tool. The error is reserved for arguments the tool
	// cannot decode; runtime failures are reported inside Result.
	Execute(ctx context.Context, args map[string]any, sink stream.Sink) (Result, error)
}

// ParameterDef parameter definition
type ParameterDef struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"` // "string" | "number" | "boolean"
	Description string   `json:"description"`
	Required    bool     `json:"required"`
	NonEmpty    bool     `json:"non_empty,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Default     any      `json:"default,omitempty"`
}

// Failure is a tagged error outcome
type Failure struct {
	Kind    plasmic.ErrorKind
	Message string
}

// Result is a tool outcome: either Message/HTML or Failure
type Result struct {
	Message string
	HTML    string
	Failure *Failure
}

// Succeeded builds a success outcome
func Succeeded(message, html string) Result {
	return Result{Message: message, HTML: html}
}

// Failed builds an error outcome from err, keeping its kind
func Failed(err error) Result {
	return Result{Failure: &Failure{Kind: plasmic.KindOf(err), Message: err.Error()}}
}

// OK reports whether the outcome is a success
func (r Result) OK() bool {
	return r.Failure == nil
}

type failurePayload struct {
	Error     string            `json:"error"`
	ErrorKind plasmic.ErrorKind `json:"error_kind"`
}

type successPayload struct {
	Message string `json:"message"`
	HTML    string `json:"html"`
}

func (r Result) payload() any {
	if r.Failure != nil {
		return failurePayload{Error: r.Failure.Message, ErrorKind: r.Failure.Kind}
	}
	return successPayload{Message: r.Message, HTML: r.HTML}
}

// MarshalJSON renders {message, html} or {error, error_kind}, leaving markup unescaped
func (r Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r.payload()); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Text returns the JSON form of the outcome for hosts that only carry strings
func (r Result) Text() string {
	data, err := r.MarshalJSON()
	if err != nil {
		return `{"error":"failed to encode result"}`
	}
	return string(data)
}
