package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/omniforge/agentcore/internal/telemetry"
	"github.com/omniforge/agentcore/pkg/chainrepo"
	"github.com/omniforge/agentcore/pkg/driver"
	"github.com/omniforge/agentcore/pkg/engine"
	"github.com/omniforge/agentcore/pkg/event"
	"github.com/omniforge/agentcore/pkg/executor"
	"github.com/omniforge/agentcore/pkg/reasoning"
	"github.com/omniforge/agentcore/pkg/server"
	"github.com/omniforge/agentcore/pkg/task"
	"github.com/omniforge/agentcore/pkg/tool"
)

// finishTimeout bounds the finalization writes (chain snapshot, task
// state) a worker performs after its run ends, so a cancelled run's
// cleanup isn't itself tied to the now-cancelled run context.
const finishTimeout = 10 * time.Second

// agentRunner wires one task execution's Chain/Engine/Driver stack and
// implements server.AgentRunner, per spec.md §4.6/§4.7: the HTTP layer
// only needs to kick off a run and drain the resulting events.
type agentRunner struct {
	registry *tool.Registry
	executor *executor.Executor
	chains   chainrepo.Repository
	tasks    task.Repository
	metrics  *telemetry.Metrics
	model    string

	eventBuffer int

	mu      sync.Mutex
	running map[string]context.CancelFunc
}

func newAgentRunner(registry *tool.Registry, exec *executor.Executor, chains chainrepo.Repository, tasks task.Repository, metrics *telemetry.Metrics, model string) *agentRunner {
	return &agentRunner{
		registry:    registry,
		executor:    exec,
		chains:      chains,
		tasks:       tasks,
		metrics:     metrics,
		model:       model,
		eventBuffer: 64,
		running:     make(map[string]context.CancelFunc),
	}
}

// RunTask starts the ReAct Driver for t in a background goroutine and
// returns the event channel the caller (the SSE handler) drains.
// spec.md §4.7's "no drops" guarantee comes from event.Queue.Send's
// blocking semantics; the worker goroutine simply pays that
// back-pressure cost instead of the HTTP handler's goroutine.
func (r *agentRunner) RunTask(ctx context.Context, agentID string, t *task.Task) (<-chan server.RunEvent, error) {
	if err := t.TransitionTo(task.StateWorking, ""); err != nil {
		return nil, err
	}
	if err := r.tasks.Update(ctx, t); err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.setRunning(t.ID(), cancel)

	queue := event.NewQueue(r.eventBuffer)
	out := make(chan server.RunEvent, r.eventBuffer)

	go r.bridge(queue, out)
	go r.run(runCtx, agentID, t, queue)

	r.metrics.TaskSubmitted(t.TenantID(), agentID)
	return out, nil
}

// CancelTask implements server.AgentRunner: it cancels the worker's
// context if one is tracked for taskID. The worker itself drives the
// actual terminal transition once d.Run observes the cancellation, so
// this method never touches task/chain state directly.
func (r *agentRunner) CancelTask(ctx context.Context, taskID string) (bool, error) {
	r.mu.Lock()
	cancel, ok := r.running[taskID]
	r.mu.Unlock()
	if !ok {
		return false, nil
	}
	cancel()
	return true, nil
}

func (r *agentRunner) setRunning(taskID string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running[taskID] = cancel
}

func (r *agentRunner) clearRunning(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.running, taskID)
}

// bridge translates pkg/event.Event values into server.RunEvent, closing
// out once the queue's sentinel is observed.
func (r *agentRunner) bridge(queue *event.Queue, out chan<- server.RunEvent) {
	defer close(out)
	for ev := range queue.Drain() {
		out <- server.RunEvent{Type: string(ev.Type), Payload: ev}
	}
}

func (r *agentRunner) run(ctx context.Context, agentID string, t *task.Task, queue *event.Queue) {
	defer queue.Close()
	defer r.clearRunning(t.ID())

	chain := reasoning.New(t.ID(), agentID, t.TenantID())
	queue.Send(event.ChainStarted(t.ID(), chain.ID()))
	queue.Send(event.TaskStatus(t.ID(), string(task.StateWorking)))

	maxTokens, maxCost := budgetFromTask(t)
	eng := engine.New(chain, r.executor, r.registry, engine.TaskInfo{
		TaskID:     t.ID(),
		AgentID:    agentID,
		TenantID:   t.TenantID(),
		MaxTokens:  maxTokens,
		MaxCostUSD: maxCost,
	}, queue)

	d := driver.New(eng, driver.Config{Model: r.model})

	userRequest := latestUserText(t)
	result, err := d.Run(ctx, userRequest)

	finalState, reason := outcomeOf(err)
	switch finalState {
	case task.StateCompleted:
		chain.Complete()
	case task.StateCancelled:
		chain.Cancel()
	default:
		chain.Fail(reason)
	}

	// Finalization writes use their own context: the run's own ctx may
	// already be cancelled (the cancellation path) or tied to a request
	// that disconnected, and neither should stop the terminal state and
	// chain snapshot from being persisted.
	finishCtx, finishCancel := context.WithTimeout(context.Background(), finishTimeout)
	defer finishCancel()

	snapshot := chain.ToSnapshot()
	if saveErr := r.chains.Save(finishCtx, snapshot); saveErr != nil {
		slog.Error("failed to persist chain snapshot", "chain_id", chain.ID(), "error", saveErr)
	}

	switch finalState {
	case task.StateCompleted:
		text, ok := result["content"].(string)
		if !ok {
			// A bare-string final answer arrives wrapped under "value".
			text, ok = result["value"].(string)
		}
		if ok {
			if appendErr := t.AppendMessage(task.Message{Role: task.RoleAgent, Parts: []task.Part{task.TextPart(text)}}); appendErr != nil {
				slog.Error("failed to append agent reply", "task_id", t.ID(), "error", appendErr)
			}
			queue.Send(event.TaskMessage(t.ID(), text))
		}
		queue.Send(event.ChainCompleted(t.ID(), chain.ID(), chain.Metrics()))
	case task.StateCancelled:
		queue.Send(event.ChainFailed(t.ID(), chain.ID(), reason))
	default:
		queue.Send(event.ChainFailed(t.ID(), chain.ID(), reason))
		queue.Send(event.TaskError(t.ID(), reason))
	}

	// The cancel endpoint only cancels ctx; it never transitions the task
	// itself. TransitionTo fails here only if the task has already left
	// the working state, which is logged rather than treated as an error.
	if transErr := t.TransitionTo(finalState, reason); transErr != nil {
		slog.Debug("task already reached a terminal state", "task_id", t.ID(), "state", t.State())
	} else if updateErr := r.tasks.Update(finishCtx, t); updateErr != nil {
		slog.Error("failed to persist final task state", "task_id", t.ID(), "error", updateErr)
	}

	r.metrics.TaskCompleted(t.TenantID(), string(t.State()))
	queue.Send(event.TaskDone(t.ID(), string(t.State())))
}

// outcomeOf maps a Driver.Run error to the task's terminal state and the
// reason recorded against it. A context.Canceled error is the
// cancellation endpoint's signal, not a failure.
func outcomeOf(err error) (task.State, string) {
	switch {
	case err == nil:
		return task.StateCompleted, ""
	case errors.Is(err, context.Canceled):
		return task.StateCancelled, "cancelled"
	default:
		return task.StateFailed, err.Error()
	}
}

// budgetFromTask has no per-task budget override yet (spec.md's
// submit-task request carries none); both limits are left unset so the
// tenant's governance/rate-limit policy alone gates cost.
func budgetFromTask(t *task.Task) (*int64, *float64) {
	return nil, nil
}

// latestUserText extracts the most recent user message's text for the
// Driver's initial request, per spec.md §4.6 step 1.
func latestUserText(t *task.Task) string {
	messages := t.Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != task.RoleUser {
			continue
		}
		for _, part := range messages[i].Parts {
			if part.Text != "" {
				return part.Text
			}
		}
	}
	return ""
}
