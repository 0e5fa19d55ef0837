// Package telemetry wires Prometheus metrics and an OpenTelemetry tracer
// provider for agentcored, grounded on the teacher's pkg/observability
// (metrics.go's CounterVec/HistogramVec registration style, tracer.go's
// TracerProvider setup) and adapted to this runtime's domain: tasks,
// reasoning chains, tool calls, and LLM calls instead of Hector's agent
// pipeline stages.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the Prometheus surface for the runtime's core operations.
// A nil *Metrics (from NewMetrics(false)) is valid and every method on it
// is a no-op, so callers never need a nil check before recording.
type Metrics struct {
	registry *prometheus.Registry

	taskSubmitted     *prometheus.CounterVec
	taskCompleted     *prometheus.CounterVec
	taskDuration      *prometheus.HistogramVec
	reasoningSteps    *prometheus.CounterVec
	toolCalls         *prometheus.CounterVec
	toolCallDuration  *prometheus.HistogramVec
	llmCalls          *prometheus.CounterVec
	llmTokens         *prometheus.CounterVec
	llmCostUSD        *prometheus.CounterVec
	rateLimitRejected *prometheus.CounterVec
	governanceBlocked *prometheus.CounterVec
}

// NewMetrics builds and registers the runtime's metrics. enabled=false
// returns a nil *Metrics whose methods are safe to call and do nothing.
func NewMetrics(enabled bool) *Metrics {
	if !enabled {
		return nil
	}

	m := &Metrics{registry: prometheus.NewRegistry()}

	m.taskSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentcore_tasks_submitted_total",
		Help: "Total tasks submitted, by tenant and agent.",
	}, []string{"tenant_id", "agent_id"})

	m.taskCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentcore_tasks_completed_total",
		Help: "Total tasks reaching a terminal state, by tenant and final state.",
	}, []string{"tenant_id", "state"})

	m.taskDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agentcore_task_duration_seconds",
		Help:    "Wall-clock duration of a task from submission to terminal state.",
		Buckets: prometheus.DefBuckets,
	}, []string{"tenant_id", "agent_id"})

	m.reasoningSteps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentcore_reasoning_steps_total",
		Help: "Reasoning chain steps appended, by tenant and step type.",
	}, []string{"tenant_id", "step_type"})

	m.toolCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentcore_tool_calls_total",
		Help: "Tool invocations, by tenant, tool name, and outcome.",
	}, []string{"tenant_id", "tool_name", "outcome"})

	m.toolCallDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agentcore_tool_call_duration_seconds",
		Help:    "Tool invocation duration.",
		Buckets: prometheus.DefBuckets,
	}, []string{"tenant_id", "tool_name"})

	m.llmCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentcore_llm_calls_total",
		Help: "LLM calls, by tenant and model.",
	}, []string{"tenant_id", "model"})

	m.llmTokens = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentcore_llm_tokens_total",
		Help: "LLM tokens consumed, by tenant, model, and direction.",
	}, []string{"tenant_id", "model", "direction"})

	m.llmCostUSD = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentcore_llm_cost_usd_total",
		Help: "Estimated LLM spend in USD, by tenant and model.",
	}, []string{"tenant_id", "model"})

	m.rateLimitRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentcore_rate_limit_rejected_total",
		Help: "Calls rejected by the rate limiter, by tenant and category.",
	}, []string{"tenant_id", "category"})

	m.governanceBlocked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agentcore_governance_blocked_total",
		Help: "Calls rejected by model governance, by tenant, model, and reason.",
	}, []string{"tenant_id", "model", "reason"})

	m.registry.MustRegister(
		m.taskSubmitted, m.taskCompleted, m.taskDuration, m.reasoningSteps,
		m.toolCalls, m.toolCallDuration, m.llmCalls, m.llmTokens, m.llmCostUSD,
		m.rateLimitRejected, m.governanceBlocked,
	)

	return m
}

// Handler returns the promhttp handler for the metrics registry, to be
// mounted at e.g. GET /metrics. Returns nil if m is nil.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return nil
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) TaskSubmitted(tenantID, agentID string) {
	if m == nil {
		return
	}
	m.taskSubmitted.WithLabelValues(tenantID, agentID).Inc()
}

func (m *Metrics) TaskCompleted(tenantID, state string) {
	if m == nil {
		return
	}
	m.taskCompleted.WithLabelValues(tenantID, state).Inc()
}

func (m *Metrics) TaskDurationSeconds(tenantID, agentID string, seconds float64) {
	if m == nil {
		return
	}
	m.taskDuration.WithLabelValues(tenantID, agentID).Observe(seconds)
}

func (m *Metrics) ReasoningStep(tenantID, stepType string) {
	if m == nil {
		return
	}
	m.reasoningSteps.WithLabelValues(tenantID, stepType).Inc()
}

func (m *Metrics) ToolCall(tenantID, toolName, outcome string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tenantID, toolName, outcome).Inc()
	m.toolCallDuration.WithLabelValues(tenantID, toolName).Observe(durationSeconds)
}

func (m *Metrics) LLMCall(tenantID, model string, promptTokens, completionTokens int64, costUSD float64) {
	if m == nil {
		return
	}
	m.llmCalls.WithLabelValues(tenantID, model).Inc()
	m.llmTokens.WithLabelValues(tenantID, model, "prompt").Add(float64(promptTokens))
	m.llmTokens.WithLabelValues(tenantID, model, "completion").Add(float64(completionTokens))
	m.llmCostUSD.WithLabelValues(tenantID, model).Add(costUSD)
}

func (m *Metrics) RateLimitRejected(tenantID, category string) {
	if m == nil {
		return
	}
	m.rateLimitRejected.WithLabelValues(tenantID, category).Inc()
}

func (m *Metrics) GovernanceBlocked(tenantID, model, reason string) {
	if m == nil {
		return
	}
	m.governanceBlocked.WithLabelValues(tenantID, model, reason).Inc()
}
