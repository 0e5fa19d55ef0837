// Package visibility implements the post-hoc redaction filter described
// in spec.md §4.9: a per-role, per-tool-type policy applied to a
// persisted ReasoningChain before it is returned to a caller.
package visibility

import (
	"fmt"
	"strings"

	"github.com/omniforge/agentcore/pkg/reasoning"
)

// DefaultSensitiveFieldNames is used when a Config does not override it.
var DefaultSensitiveFieldNames = []string{"password", "api_key", "token", "secret"}

const redactedValue = "[REDACTED]"

// Config is the Visibility Controller's policy.
type Config struct {
	DefaultLevel       reasoning.VisibilityLevel
	RulesByToolType    map[string]reasoning.VisibilityLevel
	RulesByRole        map[string]reasoning.VisibilityLevel
	SensitiveFieldNames []string
}

// SummaryPayload replaces a redacted step's Payload in summary mode: a
// short deterministic phrase plus any structured fields the original
// payload carried, redacted rather than dropped, per spec.md §4.9.
type SummaryPayload struct {
	Summary  string         `json:"summary"`
	Redacted map[string]any `json:"redacted,omitempty"`
}

// Controller applies a Config to a chain's steps.
type Controller struct {
	cfg Config
}

// New creates a Controller. A zero-value Config is valid: DefaultLevel
// becomes VisibilityFull and sensitive names fall back to
// DefaultSensitiveFieldNames.
func New(cfg Config) *Controller {
	if cfg.DefaultLevel == "" {
		cfg.DefaultLevel = reasoning.VisibilityFull
	}
	if len(cfg.SensitiveFieldNames) == 0 {
		cfg.SensitiveFieldNames = DefaultSensitiveFieldNames
	}
	return &Controller{cfg: cfg}
}

// Apply filters and redacts steps for the given role, per the resolution
// order in spec.md §4.9 (step-level override > role rule > tool-type
// rule > default). Steps resolved to `hidden` are dropped from the
// result entirely.
func (c *Controller) Apply(steps []reasoning.Step, role string) []reasoning.Step {
	toolTypes := correlationToolTypes(steps)

	out := make([]reasoning.Step, 0, len(steps))
	for _, step := range steps {
		level := c.resolveLevel(step, role, toolTypes)
		switch level {
		case reasoning.VisibilityHidden:
			continue
		case reasoning.VisibilitySummary:
			out = append(out, c.summarize(step))
		default:
			out = append(out, step)
		}
	}
	return out
}

// correlationToolTypes maps each tool_call's correlation id to its tool
// type, so a tool_result step (which doesn't itself carry tool_type) can
// still be matched by a tool-type rule.
func correlationToolTypes(steps []reasoning.Step) map[string]string {
	m := make(map[string]string)
	for _, step := range steps {
		if step.Type != reasoning.StepToolCall {
			continue
		}
		if payload, ok := step.Payload.(reasoning.ToolCallPayload); ok {
			m[payload.CorrelationID] = payload.ToolType
		}
	}
	return m
}

func (c *Controller) resolveLevel(step reasoning.Step, role string, toolTypes map[string]string) reasoning.VisibilityLevel {
	if step.Visibility.Level != "" && step.Visibility.Level != reasoning.VisibilityFull {
		return step.Visibility.Level
	}
	if level, ok := c.cfg.RulesByRole[role]; ok {
		return level
	}
	if toolType, ok := stepToolType(step, toolTypes); ok {
		if level, ok := c.cfg.RulesByToolType[toolType]; ok {
			return level
		}
	}
	return c.cfg.DefaultLevel
}

func stepToolType(step reasoning.Step, toolTypes map[string]string) (string, bool) {
	switch payload := step.Payload.(type) {
	case reasoning.ToolCallPayload:
		return payload.ToolType, true
	case reasoning.ToolResultPayload:
		t, ok := toolTypes[payload.CorrelationID]
		return t, ok
	default:
		return "", false
	}
}

func (c *Controller) summarize(step reasoning.Step) reasoning.Step {
	summary := SummaryPayload{Summary: fmt.Sprintf("Reasoning step #%d", step.StepNumber)}

	switch payload := step.Payload.(type) {
	case reasoning.ThinkingPayload:
		summary.Summary = fmt.Sprintf("Reasoning step #%d", step.StepNumber)
	case reasoning.ToolCallPayload:
		summary.Summary = fmt.Sprintf("Called %s", payload.ToolName)
		summary.Redacted = c.redactMap(payload.Parameters)
	case reasoning.ToolResultPayload:
		if payload.Success {
			summary.Summary = "Tool call succeeded"
		} else {
			summary.Summary = "Tool call failed"
		}
		summary.Redacted = c.redactMap(payload.Result)
	case reasoning.SynthesisPayload:
		summary.Summary = fmt.Sprintf("Reasoning step #%d", step.StepNumber)
	}

	step.Payload = summary
	return step
}

func (c *Controller) redactMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if c.isSensitive(k) {
			out[k] = redactedValue
			continue
		}
		out[k] = c.redactValue(v)
	}
	return out
}

func (c *Controller) redactValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return c.redactMap(val)
	case []any:
		redacted := make([]any, len(val))
		for i, item := range val {
			redacted[i] = c.redactValue(item)
		}
		return redacted
	default:
		return v
	}
}

// isSensitive reports whether fieldName matches a sensitive fragment
// after normalization (lowercase, underscores stripped), per spec.md
// §4.9.
func (c *Controller) isSensitive(fieldName string) bool {
	normalized := strings.ReplaceAll(strings.ToLower(fieldName), "_", "")
	for _, frag := range c.cfg.SensitiveFieldNames {
		normFrag := strings.ReplaceAll(strings.ToLower(frag), "_", "")
		if strings.Contains(normalized, normFrag) {
			return true
		}
	}
	return false
}
