package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hession/slotmate/internal/logger"
	"github.com/hession/slotmate/internal/metrics"
	"github.com/hession/slotmate/internal/stream"
)

// Registry tool registry
type Registry struct {
	tools   map[string]Tool
	mu      sync.RWMutex
	metrics *metrics.Metrics
	log     *logger.Logger
}

// RegistryOption configures a Registry
type RegistryOption func(*Registry)

// WithMetrics records every Execute call in m
func WithMetrics(m *metrics.Metrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithLogger sets the registry logger; the package default is used otherwise
func WithLogger(l *logger.Logger) RegistryOption {
	return func(r *Registry) {
		r.log = l
	}
}

// NewRegistry creates a new tool registry
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		tools: make(map[string]Tool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register registers a tool
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %s already exists", name)
	}

	r.tools[name] = tool
	return nil
}

// Get gets a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	return tool, exists
}

// List lists all tools sorted by name
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		tools = append(tools, tool)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name() < tools[j].Name() })
	return tools
}

// Execute validates args against the tool's parameters, applies defaults,
// and runs the tool. Unknown tools and invalid arguments are errors; tool
// failures come back as a failed Result.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any, sink stream.Sink) (Result, error) {
	tool, exists := r.Get(name)
	if !exists {
		return Result{}, fmt.Errorf("tool not found: %s", name)
	}

	log := logger.OrDefault(r.log)
	start := time.Now()

	validated, err := ValidateArgs(tool.Parameters(), args)
	if err != nil {
		r.metrics.ObserveCall(name, metrics.OutcomeInvalid, time.Since(start))
		log.Warn("tool %s rejected arguments: %v", name, err)
		return Result{}, fmt.Errorf("invalid arguments for %s: %w", name, err)
	}

	result, err := tool.Execute(ctx, validated, stream.OrDiscard(sink))
	elapsed := time.Since(start)
	if err != nil {
		r.metrics.ObserveCall(name, metrics.OutcomeInvalid, elapsed)
		return Result{}, err
	}

	if result.OK() {
		r.metrics.ObserveCall(name, metrics.OutcomeSuccess, elapsed)
	} else {
		r.metrics.ObserveCall(name, metrics.OutcomeError, elapsed)
		r.metrics.ObserveError(name, string(result.Failure.Kind))
	}
	log.Debug("tool %s finished in %s (ok=%v)", name, elapsed, result.OK())

	return result, nil
}

// ToolSchema tool schema (for Function Calling)
type ToolSchema struct {
	Type     string         `json:"type"`
	Function FunctionSchema `json:"function"`
}

// FunctionSchema function schema
type FunctionSchema struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// GetSchemas gets all tool schemas for Function Calling
func (r *Registry) GetSchemas() []ToolSchema {
	tools := r.List()
	schemas := make([]ToolSchema, 0, len(tools))
	for _, tool := range tools {
		schemas = append(schemas, ToolSchema{
			Type: "function",
			Function: FunctionSchema{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  buildParameterSchema(tool.Parameters()),
			},
		})
	}
	return schemas
}

// NewDefaultRegistry creates and registers all default tools
func NewDefaultRegistry(renderer Renderer, opts ...RegistryOption) *Registry {
	registry := NewRegistry(opts...)

	tools := []Tool{
		NewReplaceSlotContentTool(renderer, registry.log),
	}

	for _, tool := range tools {
		_ = registry.Register(tool) // Ignore errors as we know these tool names won't conflict
	}

	return registry
}
