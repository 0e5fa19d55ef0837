// Package executor implements the Tool Executor described in spec.md
// §4.4: the single funnel every tool side-effect passes through, gating
// each call via governance and rate-limit checks before invoking it
// under a timeout and recording the outcome on the reasoning chain.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/omniforge/agentcore/pkg/governance"
	"github.com/omniforge/agentcore/pkg/ratelimit"
	"github.com/omniforge/agentcore/pkg/reasoning"
	"github.com/omniforge/agentcore/pkg/tool"
)

// Executor is the C6 Tool Executor. It never raises: every failure is
// encoded as a non-successful tool.Result and its corresponding
// tool_result step. Retries are a higher-level concern and are not
// performed here, per spec.md §4.4.
type Executor struct {
	registry   *tool.Registry
	governance *governance.Governance
	limiter    *ratelimit.Limiter
}

// New creates an Executor wired to the given Registry, Governance, and
// Limiter.
func New(registry *tool.Registry, gov *governance.Governance, limiter *ratelimit.Limiter) *Executor {
	return &Executor{registry: registry, governance: gov, limiter: limiter}
}

// Execute runs toolName with arguments under callCtx, appending
// full-visibility tool_call/tool_result steps to chain. See
// ExecuteWithVisibility to override the recorded visibility.
func (e *Executor) Execute(ctx context.Context, toolName string, arguments map[string]any, callCtx tool.CallContext, chain *reasoning.Chain) (tool.Result, error) {
	return e.ExecuteWithVisibility(ctx, toolName, arguments, callCtx, chain, reasoning.Visibility{Level: reasoning.VisibilityFull})
}

// ExecuteWithVisibility is Execute with an explicit step visibility,
// used by the Engine (C7) to honor the optional visibility argument on
// call_tool. With a nil chain the call is still gated and executed;
// only the recording of tool_call/tool_result steps is skipped.
func (e *Executor) ExecuteWithVisibility(ctx context.Context, toolName string, arguments map[string]any, callCtx tool.CallContext, chain *reasoning.Chain, vis reasoning.Visibility) (tool.Result, error) {
	correlationID := callCtx.CorrelationID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	def, t, err := e.lookup(toolName)
	if err != nil {
		return e.failWithoutCall(chain, correlationID, toolName, err.Error())
	}

	if chain != nil {
		chain.AppendToolCall(correlationID, def.Name, string(def.Type), arguments, vis)
	}

	if failResult, failed := e.preflight(callCtx, def, arguments); failed {
		return e.recordResult(chain, correlationID, failResult, vis), nil
	}

	result := e.invoke(ctx, t, def, arguments)
	return e.recordResult(chain, correlationID, result, vis), nil
}

func (e *Executor) lookup(toolName string) (tool.Definition, tool.Tool, error) {
	t, err := e.registry.Get(toolName)
	if err != nil {
		return tool.Definition{}, nil, err
	}
	return t.Definition(), t, nil
}

// failWithoutCall handles the Registry-miss case. It appends a
// placeholder tool_call step (tool type "unknown") under correlationID
// and then the failing tool_result through AppendToolResult, so the
// result still has a matching call to correlate against.
func (e *Executor) failWithoutCall(chain *reasoning.Chain, correlationID, toolName, errMsg string) (tool.Result, error) {
	result := tool.Result{Success: false, Error: fmt.Sprintf("tool not found: %s (%s)", toolName, errMsg)}
	if chain != nil {
		chain.AppendToolCall(correlationID, toolName, "unknown", nil, reasoning.Visibility{Level: reasoning.VisibilityFull})
		chain.AppendToolResult(correlationID, false, nil, result.Error, 0, 0, 0, reasoning.Visibility{Level: reasoning.VisibilityFull}) //nolint:errcheck -- correlation was just created above
	}
	return result, nil
}

// preflight runs the gating checks in the order spec.md §4.4 step 3
// requires: governance (llm calls only), budget estimate against
// callCtx.MaxCostUSD, then rate-limit check_and_consume. It returns the
// failing tool.Result and true the moment any check fails.
func (e *Executor) preflight(callCtx tool.CallContext, def tool.Definition, arguments map[string]any) (tool.Result, bool) {
	var estimatedCost *float64

	if def.Type == tool.TypeLLM {
		model, _ := arguments["model"].(string)
		if model != "" && e.governance != nil {
			estimated := e.estimateCost(model, arguments, callCtx)
			estimatedCost = &estimated

			if err := e.governance.Validate(callCtx.TenantID, model, estimatedCost); err != nil {
				return tool.Result{Success: false, Error: err.Error()}, true
			}
		}
	}

	if estimatedCost != nil && callCtx.MaxCostUSD != nil && *estimatedCost > *callCtx.MaxCostUSD {
		return tool.Result{Success: false, Error: "estimated cost exceeds max_cost_usd for this call"}, true
	}

	if e.limiter != nil {
		var tokens int64
		if callCtx.MaxTokens != nil {
			tokens = *callCtx.MaxTokens
		}
		var cost float64
		if estimatedCost != nil {
			cost = *estimatedCost
		}
		ok, err := e.limiter.CheckAndConsume(context.Background(), callCtx.TenantID, def.Type, tokens, cost)
		if err != nil {
			return tool.Result{Success: false, Error: fmt.Sprintf("rate limit check failed: %v", err)}, true
		}
		if !ok {
			return tool.Result{Success: false, Error: "rate limit exceeded"}, true
		}
	}

	return tool.Result{}, false
}

func (e *Executor) estimateCost(model string, arguments map[string]any, callCtx tool.CallContext) float64 {
	var messages []governance.Message
	if raw, ok := arguments["messages"].([]any); ok {
		for _, m := range raw {
			if mm, ok := m.(map[string]any); ok {
				role, _ := mm["role"].(string)
				content, _ := mm["content"].(string)
				messages = append(messages, governance.Message{Role: role, Content: content})
			}
		}
	} else if raw, ok := arguments["messages"].([]map[string]any); ok {
		for _, mm := range raw {
			role, _ := mm["role"].(string)
			content, _ := mm["content"].(string)
			messages = append(messages, governance.Message{Role: role, Content: content})
		}
	} else if prompt, ok := arguments["prompt"].(string); ok {
		messages = append(messages, governance.Message{Role: "user", Content: prompt})
	}

	var maxTokens *int64
	if v, ok := arguments["max_tokens"]; ok {
		switch n := v.(type) {
		case int64:
			maxTokens = &n
		case float64:
			i := int64(n)
			maxTokens = &i
		}
	} else if callCtx.MaxTokens != nil {
		maxTokens = callCtx.MaxTokens
	}

	return e.governance.EstimateCall(model, messages, maxTokens)
}

// invoke runs t under def.Timeout(), cancelling and recording a timeout
// failure if it doesn't return in time.
func (e *Executor) invoke(ctx context.Context, t tool.Tool, def tool.Definition, arguments map[string]any) tool.Result {
	callCtx, cancel := context.WithTimeout(ctx, def.Timeout())
	defer cancel()

	start := time.Now()
	resultCh := make(chan tool.Result, 1)
	errCh := make(chan error, 1)

	go func() {
		result, err := t.Execute(callCtx, arguments)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- result
	}()

	select {
	case <-callCtx.Done():
		return tool.Result{Success: false, Error: "timeout", DurationMS: time.Since(start).Milliseconds()}
	case err := <-errCh:
		return tool.Result{Success: false, Error: err.Error(), DurationMS: time.Since(start).Milliseconds()}
	case result := <-resultCh:
		if result.DurationMS == 0 {
			result.DurationMS = time.Since(start).Milliseconds()
		}
		return result
	}
}

func (e *Executor) recordResult(chain *reasoning.Chain, correlationID string, result tool.Result, vis reasoning.Visibility) tool.Result {
	if chain == nil {
		return result
	}

	var tokensUsed int64
	if result.TokensUsed != nil {
		tokensUsed = *result.TokensUsed
	}
	var cost float64
	if result.Cost != nil {
		cost = *result.Cost
	}

	chain.AppendToolResult(correlationID, result.Success, result.Result, result.Error, result.DurationMS, tokensUsed, cost, vis) //nolint:errcheck -- correlation was established by Execute before invoking
	return result
}
