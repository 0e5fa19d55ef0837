package event

import "sync"

// Queue is the caller-owned event channel spec.md §4.7 describes: the
// caller (typically an HTTP/SSE handler) creates it and passes it to the
// Engine/Driver; the Driver's worker is the sole writer, the caller is
// the sole reader. Send never discards an event — it blocks the writer
// under back-pressure instead, per the "no drops" guarantee. Close
// enqueues the sentinel exactly once, however many times it's called.
type Queue struct {
	ch chan Event

	closeOnce sync.Once
}

// NewQueue creates a Queue with the given buffer size. A size of 0 is a
// synchronous (unbuffered) queue; callers wanting the "unbounded" queue
// spec.md describes should pick a generously large buffer, since a truly
// unbounded Go channel does not exist.
func NewQueue(buffer int) *Queue {
	return &Queue{ch: make(chan Event, buffer)}
}

// Send enqueues ev. It blocks if the queue is full, which is how
// back-pressure propagates to the worker without dropping data. Send
// must not be called after Close.
func (q *Queue) Send(ev Event) {
	q.ch <- ev
}

// Close enqueues the sentinel (a closed channel) marking the end of the
// stream. Safe to call more than once; only the first call has effect.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.ch)
	})
}

// Drain returns the receive-only channel for the caller to range over.
// The range loop ends naturally when Close is called and all buffered
// events have been received — that closed channel read is the sentinel.
func (q *Queue) Drain() <-chan Event {
	return q.ch
}
