package reasoning

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Chain is an append-only ReasoningChain. It is exclusively owned by the
// Engine that builds it; once persisted (ChainRepository.Save) it becomes
// read-only to the rest of the system. All mutation happens through its
// Append* methods so Metrics stays a correct fold over Steps on every
// call, grounded on the teacher's ReasoningState ownership model
// (pkg/reasoning/state.go) adapted from "agent owns / strategy owns"
// fields to "chain owns everything, callers only append."
type Chain struct {
	mu sync.Mutex

	id            string
	taskID        string
	agentID       string
	tenantID      string
	status        Status
	startedAt     time.Time
	completedAt   *time.Time
	steps         []Step
	metrics       Metrics
	childChainIDs []string
	failureReason string

	// TenantPolicySnapshot is a copy of the governance/rate-limit policy in
	// effect when the chain started (SPEC_FULL.md §3.1), so a persisted
	// chain can be audited against the policy that gated it even after
	// the policy later changes.
	TenantPolicySnapshot map[string]any

	// correlations maps a tool_call step's correlation_id to its step id,
	// so AppendToolResult can enforce the spec.md §3 matching invariant.
	correlations map[string]string
}

// New creates a running Chain for the given task/agent/tenant.
func New(taskID, agentID, tenantID string) *Chain {
	return &Chain{
		id:           uuid.NewString(),
		taskID:       taskID,
		agentID:      agentID,
		tenantID:     tenantID,
		status:       StatusRunning,
		startedAt:    time.Now(),
		correlations: make(map[string]string),
	}
}

func (c *Chain) ID() string       { return c.id }
func (c *Chain) TaskID() string   { return c.taskID }
func (c *Chain) AgentID() string  { return c.agentID }
func (c *Chain) TenantID() string { return c.tenantID }

func (c *Chain) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Steps returns a snapshot copy of the chain's steps so far.
func (c *Chain) Steps() []Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Step, len(c.steps))
	copy(out, c.steps)
	return out
}

// Metrics returns a snapshot of the chain's current metrics fold.
func (c *Chain) Metrics() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metrics
}

func (c *Chain) ChildChainIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.childChainIDs))
	copy(out, c.childChainIDs)
	return out
}

// AddChildChain records id as a delegated sub-agent chain of c.
func (c *Chain) AddChildChain(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.childChainIDs = append(c.childChainIDs, id)
}

func (c *Chain) append(stepType StepType, parentStepID *string, payload any, vis Visibility, tokensUsed int64, cost float64) Step {
	step := Step{
		ID:           uuid.NewString(),
		StepNumber:   len(c.steps),
		Type:         stepType,
		Timestamp:    time.Now(),
		ParentStepID: parentStepID,
		Payload:      payload,
		Visibility:   vis,
		TokensUsed:   tokensUsed,
		Cost:         cost,
	}
	c.steps = append(c.steps, step)
	c.foldMetrics(step)
	return step
}

func (c *Chain) foldMetrics(step Step) {
	c.metrics.TotalSteps++
	c.metrics.TotalTokens += step.TokensUsed
	c.metrics.TotalCost += step.Cost

	if step.Type == StepToolCall {
		c.metrics.ToolCalls++
		if payload, ok := step.Payload.(ToolCallPayload); ok && payload.ToolType == "llm" {
			c.metrics.LLMCalls++
		}
	}
}

// AppendThinking appends a thinking step and returns it.
func (c *Chain) AppendThinking(content string, confidence *float64, vis Visibility) Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.append(StepThinking, nil, ThinkingPayload{Content: content, Confidence: confidence}, vis, 0, 0)
}

// AppendToolCall appends a tool_call step and records its correlation id
// for later matching by AppendToolResult.
func (c *Chain) AppendToolCall(correlationID, toolName, toolType string, parameters map[string]any, vis Visibility) Step {
	c.mu.Lock()
	defer c.mu.Unlock()

	step := c.append(StepToolCall, nil, ToolCallPayload{
		CorrelationID: correlationID,
		ToolName:      toolName,
		ToolType:      toolType,
		Parameters:    parameters,
	}, vis, 0, 0)
	c.correlations[correlationID] = step.ID
	return step
}

// AppendToolResult appends a tool_result step. It returns an error if
// correlationID does not match an earlier tool_call step in this chain —
// spec.md §3's "unmatched results are a bug" invariant.
func (c *Chain) AppendToolResult(correlationID string, success bool, result map[string]any, errMsg string, durationMS int64, tokensUsed int64, cost float64, vis Visibility) (Step, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	callStepID, ok := c.correlations[correlationID]
	if !ok {
		return Step{}, fmt.Errorf("reasoning: tool_result correlation_id %q has no matching tool_call step", correlationID)
	}

	step := c.append(StepToolResult, &callStepID, ToolResultPayload{
		CorrelationID: correlationID,
		Success:       success,
		Result:        result,
		Error:         errMsg,
		DurationMS:    durationMS,
	}, vis, tokensUsed, cost)
	return step, nil
}

// AppendSynthesis appends a synthesis step referencing the given source
// step ids.
func (c *Chain) AppendSynthesis(content string, sources []string, vis Visibility) Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.append(StepSynthesis, nil, SynthesisPayload{Content: content, Sources: sources}, vis, 0, 0)
}

// Complete marks the chain as completed.
func (c *Chain) Complete() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	c.status = StatusCompleted
	c.completedAt = &now
}

// Fail marks the chain as failed, recording reason for the persisted
// snapshot.
func (c *Chain) Fail(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	c.status = StatusFailed
	c.completedAt = &now
	c.failureReason = reason
}

// Cancel marks the chain as cancelled.
func (c *Chain) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	c.status = StatusCancelled
	c.completedAt = &now
}

// StartedAt returns when the chain began running.
func (c *Chain) StartedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startedAt
}

// CompletedAt returns when the chain finished, if it has.
func (c *Chain) CompletedAt() *time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completedAt
}

// Snapshot is the persisted, read-only representation of a Chain — what
// ChainRepository.Save writes and Get/GetByTask/ListByTenant return.
type Snapshot struct {
	ID                   string         `json:"id"`
	TaskID               string         `json:"task_id"`
	AgentID              string         `json:"agent_id"`
	TenantID             string         `json:"tenant_id,omitempty"`
	Status               Status         `json:"status"`
	StartedAt            time.Time      `json:"started_at"`
	CompletedAt          *time.Time     `json:"completed_at,omitempty"`
	Steps                []Step         `json:"steps"`
	Metrics              Metrics        `json:"metrics"`
	ChildChainIDs        []string       `json:"child_chain_ids"`
	TenantPolicySnapshot map[string]any `json:"tenant_policy_snapshot,omitempty"`
	FailureReason        string         `json:"failure_reason,omitempty"`
}

// ToSnapshot freezes the chain's current state for persistence.
func (c *Chain) ToSnapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	steps := make([]Step, len(c.steps))
	copy(steps, c.steps)
	children := make([]string, len(c.childChainIDs))
	copy(children, c.childChainIDs)

	return Snapshot{
		ID:                   c.id,
		TaskID:               c.taskID,
		AgentID:              c.agentID,
		TenantID:             c.tenantID,
		Status:               c.status,
		StartedAt:            c.startedAt,
		CompletedAt:          c.completedAt,
		Steps:                steps,
		Metrics:              c.metrics,
		ChildChainIDs:        children,
		TenantPolicySnapshot: c.TenantPolicySnapshot,
		FailureReason:        c.failureReason,
	}
}
