// Package driver implements the Autonomous ReAct Driver (C8) described
// in spec.md §4.6: a bounded Reason-Act-Observe loop running on top of
// the Reasoning Engine, driving an LLM through a strict JSON reply
// protocol until it produces a final answer or exhausts its iteration
// budget.
package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/omniforge/agentcore/pkg/engine"
)

// DefaultMaxIterations bounds the ReAct loop when Config.MaxIterations
// is unset.
const DefaultMaxIterations = 15

// malformedJSONLimit is how many consecutive unparseable LLM replies the
// Driver tolerates before giving up (spec.md §4.6 step "tie-breaks").
const malformedJSONLimit = 3

// Config configures one Driver execution.
type Config struct {
	MaxIterations int
	Model         string
	Temperature   float64
	SystemPrompt  string
}

func (c Config) withDefaults() Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	return c
}

// MaxIterationsExceededError is returned when the loop exhausts its
// iteration budget without the model ever signalling is_final.
type MaxIterationsExceededError struct {
	MaxIterations int
}

func (e *MaxIterationsExceededError) Error() string {
	return fmt.Sprintf("driver: exceeded max_iterations (%d) without a final answer", e.MaxIterations)
}

// ReasoningFailedError is returned when the model produces malformed
// JSON replies malformedJSONLimit times in a row.
type ReasoningFailedError struct {
	ConsecutiveMalformed int
}

func (e *ReasoningFailedError) Error() string {
	return fmt.Sprintf("driver: %d consecutive malformed JSON replies from the model", e.ConsecutiveMalformed)
}

// reactReply is the strict JSON shape spec.md §4.6 step 2 requires the
// model to reply with.
type reactReply struct {
	Thought     string          `json:"thought"`
	Action      string          `json:"action"`
	ActionInput json.RawMessage `json:"action_input"`
	IsFinal     bool            `json:"is_final"`
}

// Driver runs the bounded ReAct loop on top of an Engine.
type Driver struct {
	engine *engine.Engine
	cfg    Config
}

// New constructs a Driver for one task execution.
func New(e *engine.Engine, cfg Config) *Driver {
	return &Driver{engine: e, cfg: cfg.withDefaults()}
}

// Run executes the ReAct loop against userRequest, returning the final
// answer's action_input decoded into a map, or an error (always either
// *MaxIterationsExceededError, *ReasoningFailedError, or a context
// error from ctx).
func (d *Driver) Run(ctx context.Context, userRequest string) (map[string]any, error) {
	if userRequest == "" {
		userRequest = "Proceed with the task using the tools available to you."
	}

	messages := []map[string]any{
		{"role": "system", "content": d.systemPrompt()},
		{"role": "user", "content": userRequest},
	}

	var stepIDs []string
	consecutiveMalformed := 0

	for iter := 1; iter <= d.cfg.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		llmResult := d.engine.CallLLM(ctx, engine.CallLLMOptions{
			Messages:    messages,
			Model:       d.cfg.Model,
			Temperature: d.cfg.Temperature,
		})
		if llmResult.StepID != "" {
			stepIDs = append(stepIDs, llmResult.StepID)
		}
		if !llmResult.Success {
			messages = append(messages, observationMessage(fmt.Sprintf("llm call failed: %s", llmResult.Error)))
			continue
		}

		content, _ := llmResult.Value["content"].(string)
		reply, err := parseReactReply(content)
		if err != nil {
			consecutiveMalformed++
			if consecutiveMalformed >= malformedJSONLimit {
				return nil, &ReasoningFailedError{ConsecutiveMalformed: consecutiveMalformed}
			}
			messages = append(messages, observationMessage(fmt.Sprintf("your reply was not valid JSON matching the required format: %v", err)))
			continue
		}
		consecutiveMalformed = 0

		thinkingStep := d.engine.AddThinking(reply.Thought, nil)
		stepIDs = append(stepIDs, thinkingStep.ID)

		if reply.IsFinal || reply.Action == "final_answer" {
			finalAnswer := decodeActionInput(reply.ActionInput)
			synthesisStep := d.engine.AddSynthesis(reply.Thought, stepIDs)
			stepIDs = append(stepIDs, synthesisStep.ID)
			return finalAnswer, nil
		}

		toolResult := d.engine.CallTool(ctx, reply.Action, decodeActionInput(reply.ActionInput), engine.CallToolOptions{})
		if toolResult.StepID != "" {
			stepIDs = append(stepIDs, toolResult.StepID)
		}
		messages = append(messages, observationMessage(engine.ObservationText(toolResult)))
	}

	return nil, &MaxIterationsExceededError{MaxIterations: d.cfg.MaxIterations}
}

func observationMessage(text string) map[string]any {
	return map[string]any{"role": "tool", "content": text}
}

// parseReactReply strips optional markdown code fences and decodes the
// model's reply into reactReply, validating the fields spec.md §4.6 step
// 4b requires.
func parseReactReply(content string) (reactReply, error) {
	trimmed := stripCodeFences(content)

	var raw map[string]any
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return reactReply{}, fmt.Errorf("invalid JSON: %w", err)
	}

	thought, ok := raw["thought"].(string)
	if !ok {
		return reactReply{}, fmt.Errorf("missing or non-string field %q", "thought")
	}
	action, ok := raw["action"].(string)
	if !ok {
		return reactReply{}, fmt.Errorf("missing or non-string field %q", "action")
	}
	isFinal, ok := raw["is_final"].(bool)
	if !ok {
		return reactReply{}, fmt.Errorf("missing or non-bool field %q", "is_final")
	}

	var actionInput json.RawMessage
	if v, ok := raw["action_input"]; ok {
		data, err := json.Marshal(v)
		if err != nil {
			return reactReply{}, fmt.Errorf("re-marshalling action_input: %w", err)
		}
		actionInput = data
	}

	return reactReply{Thought: thought, Action: action, ActionInput: actionInput, IsFinal: isFinal}, nil
}

func stripCodeFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		firstLine := strings.TrimSpace(trimmed[:idx])
		if firstLine == "" || !strings.ContainsAny(firstLine, " {\"") {
			trimmed = trimmed[idx+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// decodeActionInput decodes action_input into a map, wrapping a bare
// string/scalar under "value" since spec.md §4.6 allows either shape.
func decodeActionInput(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}

	var asMap map[string]any
	if err := json.Unmarshal(raw, &asMap); err == nil {
		return asMap
	}

	var asAny any
	if err := json.Unmarshal(raw, &asAny); err == nil {
		return map[string]any{"value": asAny}
	}
	return map[string]any{}
}
