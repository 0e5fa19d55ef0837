// Package reasoning implements the append-only ReasoningChain / ReasoningStep
// model described in spec.md §3 and §4.5: the record of everything an agent
// thought, called, and concluded during one execution attempt.
package reasoning

import "time"

// StepType discriminates a Step's Payload shape.
type StepType string

const (
	StepThinking   StepType = "thinking"
	StepToolCall   StepType = "tool_call"
	StepToolResult StepType = "tool_result"
	StepSynthesis  StepType = "synthesis"
)

// VisibilityLevel controls how much of a step's payload is exposed to a
// given audience; enforced by pkg/visibility, not here.
type VisibilityLevel string

const (
	VisibilityFull    VisibilityLevel = "full"
	VisibilitySummary VisibilityLevel = "summary"
	VisibilityHidden  VisibilityLevel = "hidden"
)

// Visibility is a step's redaction directive plus an optional human-readable
// reason for it (e.g. "contains PII").
type Visibility struct {
	Level  VisibilityLevel `json:"level"`
	Reason string          `json:"reason,omitempty"`
}

// ThinkingPayload is the payload of a StepThinking step.
type ThinkingPayload struct {
	Content    string   `json:"content"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// ToolCallPayload is the payload of a StepToolCall step.
type ToolCallPayload struct {
	CorrelationID string         `json:"correlation_id"`
	ToolName      string         `json:"tool_name"`
	ToolType      string         `json:"tool_type"`
	Parameters    map[string]any `json:"parameters"`
}

// ToolResultPayload is the payload of a StepToolResult step. Exactly one
// of Result/Error is populated, mirroring tool.Result.
type ToolResultPayload struct {
	CorrelationID string         `json:"correlation_id"`
	Success       bool           `json:"success"`
	Result        map[string]any `json:"result,omitempty"`
	Error         string         `json:"error,omitempty"`
	DurationMS    int64          `json:"duration_ms"`
}

// SynthesisPayload is the payload of a StepSynthesis step.
type SynthesisPayload struct {
	Content string   `json:"content"`
	Sources []string `json:"sources"`
}

// Step is one append-only node in a Chain. StepNumber is 0-based and
// gap-free within its chain.
type Step struct {
	ID           string          `json:"id"`
	StepNumber   int             `json:"step_number"`
	Type         StepType        `json:"type"`
	Timestamp    time.Time       `json:"timestamp"`
	ParentStepID *string         `json:"parent_step_id,omitempty"`
	Payload      any             `json:"payload"`
	Visibility   Visibility      `json:"visibility"`
	TokensUsed   int64           `json:"tokens_used"`
	Cost         float64         `json:"cost"`
}

// Status is the lifecycle state of a Chain.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Metrics is a deterministic fold over a Chain's Steps, kept consistent on
// every append (spec.md §3 invariant).
type Metrics struct {
	TotalSteps  int     `json:"total_steps"`
	LLMCalls    int     `json:"llm_calls"`
	ToolCalls   int     `json:"tool_calls"`
	TotalTokens int64   `json:"total_tokens"`
	TotalCost   float64 `json:"total_cost"`
}
