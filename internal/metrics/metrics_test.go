package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCall(t *testing.T) {
	m := New()
	m.ObserveCall("replace_slot_content", OutcomeSuccess, 20*time.Millisecond)
	m.ObserveCall("replace_slot_content", OutcomeSuccess, 30*time.Millisecond)
	m.ObserveCall("replace_slot_content", OutcomeError, time.Millisecond)
	m.ObserveError("replace_slot_content", "network")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ToolCalls().WithLabelValues("replace_slot_content", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls().WithLabelValues("replace_slot_content", OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolErrors().WithLabelValues("replace_slot_content", "network")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveCall("x", OutcomeSuccess, time.Second)
	m.ObserveError("x", "network")
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveCall("replace_slot_content", OutcomeSuccess, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `slotmate_tool_calls_total{outcome="success",tool_name="replace_slot_content"} 1`)
	assert.Contains(t, string(body), "slotmate_tool_duration_seconds_bucket")
}
