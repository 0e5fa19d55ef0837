// Package engine implements the Reasoning Engine (C7) described in
// spec.md §4.5: the agent-facing façade over a reasoning chain and the
// Tool Executor, constructed per task and publishing every step it
// appends as a reasoning_step event onto its caller's queue.
package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/omniforge/agentcore/pkg/event"
	"github.com/omniforge/agentcore/pkg/executor"
	"github.com/omniforge/agentcore/pkg/reasoning"
	"github.com/omniforge/agentcore/pkg/tool"
)

// TaskInfo carries the identity the Engine stamps onto every tool call
// it issues. TenantID is authoritative; it never comes from LLM output.
type TaskInfo struct {
	TaskID     string
	AgentID    string
	TenantID   string
	MaxTokens  *int64
	MaxCostUSD *float64
}

// Result wraps the outcome of a call_tool/call_llm invocation with the
// step(s) it produced, per spec.md §4.5.
type Result struct {
	StepID  string
	Success bool
	Value   map[string]any
	Error   string
}

// Engine is the C7 façade. It does not own its event queue: the queue
// is created and drained by the Driver's caller (spec.md §4.7), so the
// Engine only ever publishes to it.
type Engine struct {
	chain    *reasoning.Chain
	executor *executor.Executor
	task     TaskInfo
	queue    *event.Queue
	registry *tool.Registry
}

// New constructs an Engine for a single task execution.
func New(chain *reasoning.Chain, exec *executor.Executor, registry *tool.Registry, task TaskInfo, queue *event.Queue) *Engine {
	return &Engine{chain: chain, executor: exec, task: task, queue: queue, registry: registry}
}

func (e *Engine) publish(step reasoning.Step) {
	if e.queue == nil {
		return
	}
	e.queue.Send(event.ReasoningStepEvent(e.task.TaskID, e.chain.ID(), step))
}

// AddThinking appends a thinking step.
func (e *Engine) AddThinking(text string, confidence *float64) reasoning.Step {
	step := e.chain.AppendThinking(text, confidence, reasoning.Visibility{Level: reasoning.VisibilityFull})
	e.publish(step)
	return step
}

// AddSynthesis appends a synthesis step referencing the given source
// step ids.
func (e *Engine) AddSynthesis(conclusion string, sourceStepIDs []string) reasoning.Step {
	step := e.chain.AppendSynthesis(conclusion, sourceStepIDs, reasoning.Visibility{Level: reasoning.VisibilityFull})
	e.publish(step)
	return step
}

// CallToolOptions carries call_tool's optional arguments.
type CallToolOptions struct {
	Visibility *reasoning.Visibility
}

// CallTool delegates to the Executor and publishes the tool_call and
// tool_result steps it produces.
func (e *Engine) CallTool(ctx context.Context, name string, arguments map[string]any, opts CallToolOptions) Result {
	vis := reasoning.Visibility{Level: reasoning.VisibilityFull}
	if opts.Visibility != nil {
		vis = *opts.Visibility
	}

	callCtx := tool.CallContext{
		TaskID:     e.task.TaskID,
		AgentID:    e.task.AgentID,
		TenantID:   e.task.TenantID,
		ChainID:    e.chain.ID(),
		MaxTokens:  e.task.MaxTokens,
		MaxCostUSD: e.task.MaxCostUSD,
	}

	res, _ := e.executor.ExecuteWithVisibility(ctx, name, arguments, callCtx, e.chain, vis)

	steps := e.chain.Steps()
	var stepID string
	if len(steps) > 0 {
		stepID = steps[len(steps)-1].ID
		e.publish(steps[len(steps)-2])
		e.publish(steps[len(steps)-1])
	}

	return Result{StepID: stepID, Success: res.Success, Value: res.Result, Error: res.Error}
}

// CallLLMOptions carries call_llm's optional arguments.
type CallLLMOptions struct {
	Prompt      string
	Messages    []map[string]any
	Model       string
	System      string
	Temperature float64
	MaxTokens   *int64
	Visibility  *reasoning.Visibility
}

// CallLLM is a convenience wrapper building JSON-mode arguments for the
// registered "llm" tool and invoking it through CallTool.
func (e *Engine) CallLLM(ctx context.Context, opts CallLLMOptions) Result {
	messages := opts.Messages
	if messages == nil && opts.Prompt != "" {
		if opts.System != "" {
			messages = append(messages, map[string]any{"role": "system", "content": opts.System})
		}
		messages = append(messages, map[string]any{"role": "user", "content": opts.Prompt})
	}

	args := map[string]any{
		"messages":    messages,
		"model":       opts.Model,
		"temperature": opts.Temperature,
	}
	if opts.MaxTokens != nil {
		args["max_tokens"] = *opts.MaxTokens
	}

	return e.CallTool(ctx, "llm", args, CallToolOptions{Visibility: opts.Visibility})
}

// GetAvailableTools returns every tool currently registered.
func (e *Engine) GetAvailableTools() []tool.Definition {
	return e.registry.List("")
}

// ObservationText renders a CallTool Result as a plain-text observation
// the Driver appends to its conversation, per spec.md §4.6 step 4e.
func ObservationText(r Result) string {
	if !r.Success {
		return fmt.Sprintf("error: %s", r.Error)
	}
	data, err := json.Marshal(r.Value)
	if err != nil {
		return fmt.Sprintf("%v", r.Value)
	}
	return string(data)
}
