package task

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Repository operations when a task does
	// not exist, or exists under a different tenant than the caller's —
	// those two cases are indistinguishable by design (spec.md §4.8).
	ErrNotFound = errors.New("task not found")

	// ErrParentNotFound is returned when creating a task with a
	// parent_task_id that does not resolve to an existing task.
	ErrParentNotFound = errors.New("parent task not found")

	errEmptyMessageParts = errors.New("task: message must have at least one part")
)

// IllegalTransitionError is returned by Task.TransitionTo for any edge
// not present in the spec.md §4.8 table.
type IllegalTransitionError struct {
	From State
	To   State
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("task: illegal transition %s -> %s", e.From, e.To)
}
