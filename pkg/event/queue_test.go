package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_OrderingAndSentinel(t *testing.T) {
	q := NewQueue(10)

	go func() {
		q.Send(TaskStatus("task-1", "working"))
		q.Send(TaskMessage("task-1", "hello"))
		q.Send(TaskDone("task-1", "completed"))
		q.Close()
	}()

	var received []Event
	for ev := range q.Drain() {
		received = append(received, ev)
	}

	require.Len(t, received, 3)
	assert.Equal(t, TypeTaskStatus, received[0].Type)
	assert.Equal(t, TypeTaskMessage, received[1].Type)
	assert.Equal(t, TypeTaskDone, received[2].Type)
}

func TestQueue_DoubleCloseIsSafe(t *testing.T) {
	q := NewQueue(1)
	assert.NotPanics(t, func() {
		q.Close()
		q.Close()
	})
}

func TestQueue_BackpressureBlocksUntilDrained(t *testing.T) {
	q := NewQueue(1)
	q.Send(TaskStatus("task-1", "working"))

	sent := make(chan struct{})
	go func() {
		q.Send(TaskStatus("task-1", "input_required")) // blocks: buffer full
		close(sent)
	}()

	select {
	case <-sent:
		t.Fatal("second send should have blocked while the queue was full")
	case <-time.After(20 * time.Millisecond):
	}

	<-q.Drain() // drain one slot

	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("second send should have unblocked after drain freed capacity")
	}
	q.Close()
}
