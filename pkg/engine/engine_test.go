package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniforge/agentcore/pkg/event"
	"github.com/omniforge/agentcore/pkg/executor"
	"github.com/omniforge/agentcore/pkg/governance"
	"github.com/omniforge/agentcore/pkg/ratelimit"
	"github.com/omniforge/agentcore/pkg/reasoning"
	"github.com/omniforge/agentcore/pkg/tool"
)

func newTestEngine(t *testing.T) (*Engine, *event.Queue) {
	t.Helper()
	reg := tool.NewRegistry()
	require.NoError(t, reg.Register(tool.FuncTool{
		Def: tool.Definition{Name: "llm", Type: tool.TypeLLM},
		Fn: func(ctx context.Context, args map[string]any) (tool.Result, error) {
			return tool.Result{Success: true, Result: map[string]any{"text": "hello"}}, nil
		},
	}, false))

	gov := governance.NewGovernance(nil)
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore())
	exec := executor.New(reg, gov, limiter)

	chain := reasoning.New("task-1", "agent-1", "tenant-1")
	queue := event.NewQueue(10)
	task := TaskInfo{TaskID: "task-1", AgentID: "agent-1", TenantID: "tenant-1"}

	return New(chain, exec, reg, task, queue), queue
}

func TestEngine_AddThinkingPublishesEvent(t *testing.T) {
	e, queue := newTestEngine(t)
	e.AddThinking("pondering", nil)
	queue.Close()

	var types []event.Type
	for ev := range queue.Drain() {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []event.Type{event.TypeReasoningStep}, types)
}

func TestEngine_CallToolPublishesCallAndResultSteps(t *testing.T) {
	e, queue := newTestEngine(t)
	result := e.CallTool(context.Background(), "llm", map[string]any{"model": "gpt-4o-mini"}, CallToolOptions{})
	assert.True(t, result.Success)
	assert.Equal(t, "hello", result.Value["text"])

	queue.Close()
	var stepTypes []reasoning.StepType
	for ev := range queue.Drain() {
		require.NotNil(t, ev.Step)
		stepTypes = append(stepTypes, ev.Step.Type)
	}
	assert.Equal(t, []reasoning.StepType{reasoning.StepToolCall, reasoning.StepToolResult}, stepTypes)
}

func TestEngine_CallLLMBuildsMessages(t *testing.T) {
	e, queue := newTestEngine(t)
	result := e.CallLLM(context.Background(), CallLLMOptions{Prompt: "hi", Model: "gpt-4o-mini"})
	assert.True(t, result.Success)
	queue.Close()
	for range queue.Drain() {
	}
}

func TestEngine_GetAvailableTools(t *testing.T) {
	e, _ := newTestEngine(t)
	defs := e.GetAvailableTools()
	require.Len(t, defs, 1)
	assert.Equal(t, "llm", defs[0].Name)
}

func TestEngine_CallToolNotFound(t *testing.T) {
	e, queue := newTestEngine(t)
	result := e.CallTool(context.Background(), "missing", nil, CallToolOptions{})
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "tool not found")
	queue.Close()
	for range queue.Drain() {
	}
}

func TestObservationText(t *testing.T) {
	assert.Equal(t, "error: boom", ObservationText(Result{Success: false, Error: "boom"}))
	assert.Contains(t, ObservationText(Result{Success: true, Value: map[string]any{"a": 1}}), "\"a\":1")
}
