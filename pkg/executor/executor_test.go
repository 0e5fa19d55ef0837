package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omniforge/agentcore/pkg/governance"
	"github.com/omniforge/agentcore/pkg/ratelimit"
	"github.com/omniforge/agentcore/pkg/reasoning"
	"github.com/omniforge/agentcore/pkg/tool"
)

func echoTool(name string, typ tool.Type, fn func(ctx context.Context, args map[string]any) (tool.Result, error)) tool.Tool {
	return tool.FuncTool{
		Def: tool.Definition{Name: name, Type: typ},
		Fn:  fn,
	}
}

func newExecutor() (*Executor, *tool.Registry) {
	reg := tool.NewRegistry()
	gov := governance.NewGovernance(nil)
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore())
	return New(reg, gov, limiter), reg
}

func TestExecutor_ToolNotFound(t *testing.T) {
	e, _ := newExecutor()
	chain := reasoning.New("task-1", "agent-1", "tenant-1")

	result, err := e.Execute(context.Background(), "missing", nil, tool.CallContext{TenantID: "tenant-1"}, chain)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "tool not found")

	steps := chain.Steps()
	require.Len(t, steps, 2)
	assert.Equal(t, reasoning.StepToolCall, steps[0].Type)
	assert.Equal(t, reasoning.StepToolResult, steps[1].Type)
}

func TestExecutor_SuccessRecordsMetrics(t *testing.T) {
	e, reg := newExecutor()
	tokens := int64(10)
	cost := 0.001
	require.NoError(t, reg.Register(echoTool("search", tool.TypeSearch, func(ctx context.Context, args map[string]any) (tool.Result, error) {
		return tool.Result{Success: true, Result: map[string]any{"hits": 3}, TokensUsed: &tokens, Cost: &cost}, nil
	}), false))

	chain := reasoning.New("task-1", "agent-1", "tenant-1")
	result, err := e.Execute(context.Background(), "search", map[string]any{"q": "go"}, tool.CallContext{TenantID: "tenant-1"}, chain)
	require.NoError(t, err)
	assert.True(t, result.Success)

	metrics := chain.Metrics()
	assert.Equal(t, 2, metrics.TotalSteps)
	assert.Equal(t, 1, metrics.ToolCalls)
	assert.Equal(t, int64(10), metrics.TotalTokens)
	assert.InDelta(t, 0.001, metrics.TotalCost, 0.0000001)
}

func TestExecutor_TimeoutIsRecordedAsFailure(t *testing.T) {
	reg := tool.NewRegistry()
	slow := tool.FuncTool{
		Def: tool.Definition{Name: "slow", Type: tool.TypeFunction, TimeoutMS: 20},
		Fn: func(ctx context.Context, args map[string]any) (tool.Result, error) {
			select {
			case <-time.After(200 * time.Millisecond):
				return tool.Result{Success: true}, nil
			case <-ctx.Done():
				return tool.Result{}, ctx.Err()
			}
		},
	}
	require.NoError(t, reg.Register(slow, false))

	gov := governance.NewGovernance(nil)
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore())
	e := New(reg, gov, limiter)

	chain := reasoning.New("task-1", "agent-1", "tenant-1")
	result, err := e.Execute(context.Background(), "slow", nil, tool.CallContext{TenantID: "tenant-1"}, chain)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "timeout", result.Error)
}

func TestExecutor_GovernanceBlocksModel(t *testing.T) {
	reg := tool.NewRegistry()
	require.NoError(t, reg.Register(echoTool("llm", tool.TypeLLM, func(ctx context.Context, args map[string]any) (tool.Result, error) {
		return tool.Result{Success: true}, nil
	}), false))

	gov := governance.NewGovernance(nil)
	gov.SetTenantPolicy("tenant-1", governance.Policy{BlockedModels: []string{"gpt-4o"}})
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore())
	e := New(reg, gov, limiter)

	chain := reasoning.New("task-1", "agent-1", "tenant-1")
	result, err := e.Execute(context.Background(), "llm", map[string]any{"model": "gpt-4o"}, tool.CallContext{TenantID: "tenant-1"}, chain)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "blocked")
}

func TestExecutor_RateLimitExceeded(t *testing.T) {
	reg := tool.NewRegistry()
	require.NoError(t, reg.Register(echoTool("fetch", tool.TypeAPI, func(ctx context.Context, args map[string]any) (tool.Result, error) {
		return tool.Result{Success: true}, nil
	}), false))

	gov := governance.NewGovernance(nil)
	limiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore())
	limiter.SetTenantConfig("tenant-1", ratelimit.Config{ExternalCallsPerMinute: 1})
	e := New(reg, gov, limiter)

	chain := reasoning.New("task-1", "agent-1", "tenant-1")
	ctx := context.Background()
	callCtx := tool.CallContext{TenantID: "tenant-1"}

	first, err := e.Execute(ctx, "fetch", nil, callCtx, chain)
	require.NoError(t, err)
	assert.True(t, first.Success)

	second, err := e.Execute(ctx, "fetch", nil, callCtx, chain)
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.Contains(t, second.Error, "rate limit")
}

func TestExecutor_NilChainStillReturnsResult(t *testing.T) {
	e, reg := newExecutor()
	require.NoError(t, reg.Register(echoTool("search", tool.TypeSearch, func(ctx context.Context, args map[string]any) (tool.Result, error) {
		return tool.Result{Success: true}, nil
	}), false))

	result, err := e.Execute(context.Background(), "search", nil, tool.CallContext{TenantID: "tenant-1"}, nil)
	require.NoError(t, err)
	assert.True(t, result.Success)
}
