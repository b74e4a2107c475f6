// Package plasmic is a client for the Plasmic Codegen render endpoint.
package plasmic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// TokenHeader carries "<project id>:<api token>" on every request
const TokenHeader = "x-plasmic-api-project-tokens"

// Mode selects which content version the API renders against
type Mode string

const (
	ModePreview   Mode = "preview"
	ModePublished Mode = "published"
)

// Valid reports whether m is a known mode
func (m Mode) Valid() bool {
	return m == ModePreview || m == ModePublished
}

// RenderRequest describes one component render with prop overrides
type RenderRequest struct {
	Component      string
	ComponentProps map[string]string
	Mode           Mode
	Hydrate        bool
	EmbedHydrate   bool
}

// RenderResult is the subset of the Codegen response we rely on
type RenderResult struct {
	HTML string
}

// Client calls the Codegen render API for a single project
type Client struct {
	baseURL    string
	projectID  string
	apiToken   string
	userAgent  string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Timeouts belong here.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent sets the User-Agent header sent with each request
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(userAgent)
	}
}

// NewClient creates a client. baseURL, projectID and apiToken are expected
// to be validated by the caller.
func NewClient(baseURL, projectID, apiToken string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		projectID:  strings.TrimSpace(projectID),
		apiToken:   strings.TrimSpace(apiToken),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProjectID returns the project the client renders against
func (c *Client) ProjectID() string {
	return c.projectID
}

// BuildURL returns the render URL for req
func (c *Client) BuildURL(req RenderRequest) (string, error) {
	props, err := encodeProps(req.ComponentProps)
	if err != nil {
		return "", fmt.Errorf("failed to encode component props: %w", err)
	}

	mode := req.Mode
	if mode == "" {
		mode = ModePreview
	}

	// Keys keep insertion order; url.Values would sort them.
	query := []string{
		"componentProps=" + url.QueryEscape(props),
		"mode=" + url.QueryEscape(string(mode)),
	}
	if req.Hydrate {
		query = append(query, "hydrate=1")
	}
	if req.EmbedHydrate {
		query = append(query, "embedHydrate=1")
	}

	return fmt.Sprintf("%s/%s/%s?%s",
		c.baseURL,
		url.PathEscape(c.projectID),
		url.PathEscape(req.Component),
		strings.Join(query, "&"),
	), nil
}

// Render issues one GET against the render endpoint and returns the html
func (c *Client) Render(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	target, err := c.BuildURL(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set(TokenHeader, c.projectID+":"+c.apiToken)
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payload struct {
		HTML *string `json:"html"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &MalformedResponseError{Reason: "invalid JSON", Err: err}
	}
	if payload.HTML == nil {
		return nil, &MalformedResponseError{Reason: "missing html field"}
	}

	return &RenderResult{HTML: *payload.HTML}, nil
}

// encodeProps serializes props without HTML escaping so markup survives as written
func encodeProps(props map[string]string) (string, error) {
	if props == nil {
		props = map[string]string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(props); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
