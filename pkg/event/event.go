// Package event implements the caller-owned event queue described in
// spec.md §4.7: a single-producer/single-consumer channel of typed
// events, terminated by a sentinel, that the Driver's worker writes to
// and an HTTP/SSE handler (or any other caller) drains.
package event

import (
	"time"

	"github.com/omniforge/agentcore/pkg/reasoning"
)

// Type discriminates an Event's payload.
type Type string

const (
	TypeChainStarted   Type = "chain_started"
	TypeReasoningStep  Type = "reasoning_step"
	TypeChainCompleted Type = "chain_completed"
	TypeChainFailed    Type = "chain_failed"
	TypeTaskStatus     Type = "task_status"
	TypeTaskMessage    Type = "task_message"
	TypeTaskDone       Type = "task_done"
	TypeTaskError      Type = "task_error"
)

// Event is the tagged union delivered over the queue. Every event carries
// TaskID and Timestamp; the remaining fields are populated according to
// Type.
type Event struct {
	Type      Type      `json:"type"`
	TaskID    string    `json:"task_id"`
	Timestamp time.Time `json:"timestamp"`

	ChainID string `json:"chain_id,omitempty"`

	// Step is populated for TypeReasoningStep.
	Step *reasoning.Step `json:"step,omitempty"`

	// Metrics is populated for TypeChainCompleted/TypeChainFailed.
	Metrics *reasoning.Metrics `json:"metrics,omitempty"`

	// TaskState is populated for TypeTaskStatus/TypeTaskDone.
	TaskState string `json:"task_state,omitempty"`

	// Message is populated for TypeTaskMessage (agent-visible text).
	Message string `json:"message,omitempty"`

	// Error is populated for TypeChainFailed/TypeTaskError.
	Error string `json:"error,omitempty"`
}

func now() time.Time { return time.Now() }

// ChainStarted builds a chain_started event.
func ChainStarted(taskID, chainID string) Event {
	return Event{Type: TypeChainStarted, TaskID: taskID, ChainID: chainID, Timestamp: now()}
}

// ReasoningStepEvent builds a reasoning_step event.
func ReasoningStepEvent(taskID, chainID string, step reasoning.Step) Event {
	return Event{Type: TypeReasoningStep, TaskID: taskID, ChainID: chainID, Step: &step, Timestamp: now()}
}

// ChainCompleted builds a chain_completed event.
func ChainCompleted(taskID, chainID string, metrics reasoning.Metrics) Event {
	return Event{Type: TypeChainCompleted, TaskID: taskID, ChainID: chainID, Metrics: &metrics, Timestamp: now()}
}

// ChainFailed builds a chain_failed event.
func ChainFailed(taskID, chainID, errMsg string) Event {
	return Event{Type: TypeChainFailed, TaskID: taskID, ChainID: chainID, Error: errMsg, Timestamp: now()}
}

// TaskStatus builds a task_status event.
func TaskStatus(taskID, state string) Event {
	return Event{Type: TypeTaskStatus, TaskID: taskID, TaskState: state, Timestamp: now()}
}

// TaskMessage builds a task_message event.
func TaskMessage(taskID, message string) Event {
	return Event{Type: TypeTaskMessage, TaskID: taskID, Message: message, Timestamp: now()}
}

// TaskDone builds a task_done event.
func TaskDone(taskID, state string) Event {
	return Event{Type: TypeTaskDone, TaskID: taskID, TaskState: state, Timestamp: now()}
}

// TaskError builds a task_error event.
func TaskError(taskID, errMsg string) Event {
	return Event{Type: TypeTaskError, TaskID: taskID, Error: errMsg, Timestamp: now()}
}
