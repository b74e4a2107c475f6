// Package metrics holds the prometheus collectors for tool invocations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeInvalid = "invalid"
)

// Metrics groups the collectors and the registry they live in
type Metrics struct {
	registry     *prometheus.Registry
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	remoteErrors *prometheus.CounterVec
}

// New creates collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slotmate_tool_calls_total",
				Help: "Total number of tool invocations by outcome",
			},
			[]string{"tool_name", "outcome"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "slotmate_tool_duration_seconds",
				Help:    "Duration of tool executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool_name"},
		),
		remoteErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "slotmate_tool_errors_total",
				Help: "Failed tool invocations by error kind",
			},
			[]string{"tool_name", "kind"},
		),
	}
	m.registry.MustRegister(
		m.toolCalls,
		m.toolDuration,
		m.remoteErrors,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCall records one invocation
func (m *Metrics) ObserveCall(tool, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
}

// ObserveError records the kind of a failed invocation
func (m *Metrics) ObserveError(tool, kind string) {
	if m == nil {
		return
	}
	m.remoteErrors.WithLabelValues(tool, kind).Inc()
}

// ToolCalls exposes the call counter, mainly for tests
func (m *Metrics) ToolCalls() *prometheus.CounterVec {
	return m.toolCalls
}

// ToolErrors exposes the error counter, mainly for tests
func (m *Metrics) ToolErrors() *prometheus.CounterVec {
	return m.remoteErrors
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
