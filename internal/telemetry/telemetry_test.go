package telemetry

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_DisabledReturnsNilAndIsSafe(t *testing.T) {
	m := NewMetrics(false)
	require.Nil(t, m)

	assert.NotPanics(t, func() {
		m.TaskSubmitted("tenant-1", "agent-1")
		m.TaskCompleted("tenant-1", "completed")
		m.ToolCall("tenant-1", "search", "success", 0.1)
		m.LLMCall("tenant-1", "gpt-4o", 10, 20, 0.01)
		m.RateLimitRejected("tenant-1", "llm")
		m.GovernanceBlocked("tenant-1", "gpt-4o", "blocked")
	})
}

func TestNewMetrics_EnabledRecordsAndServesMetrics(t *testing.T) {
	m := NewMetrics(true)
	require.NotNil(t, m)

	m.TaskSubmitted("tenant-1", "agent-1")
	m.LLMCall("tenant-1", "gpt-4o", 100, 50, 0.02)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "agentcore_tasks_submitted_total")
	assert.Contains(t, rec.Body.String(), "agentcore_llm_cost_usd_total")
}

func TestInitTracerProvider_Disabled(t *testing.T) {
	tp, err := InitTracerProvider(context.Background(), TracerConfig{Enabled: false})
	require.NoError(t, err)
	assert.NotNil(t, tp)
}

func TestInitTracerProvider_EnabledWritesSpans(t *testing.T) {
	var buf bytes.Buffer
	tp, err := InitTracerProvider(context.Background(), TracerConfig{
		Enabled:      true,
		ServiceName:  "agentcored-test",
		SamplingRate: 1,
		Output:       &buf,
	})
	require.NoError(t, err)
	require.NotNil(t, tp)

	tracer := tp.Tracer("test")
	_, span := tracer.Start(context.Background(), "test-span")
	span.End()

	if shutdownable, ok := tp.(interface{ Shutdown(context.Context) error }); ok {
		require.NoError(t, shutdownable.Shutdown(context.Background()))
	}

	assert.Contains(t, buf.String(), "test-span")
}
