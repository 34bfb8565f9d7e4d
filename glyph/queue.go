package glyph

import (
	"context"
	"sync"
)

// RenderQueue serialises work onto the host's render goroutine.
//
// Any goroutine may Submit a task. Tasks run only inside Drain, which the
// host calls from its render loop, or inside Run when the host dedicates a
// goroutine to the queue. Tasks run in submission order.
type RenderQueue struct {
	mu     sync.Mutex
	tasks  []func()
	closed bool
	signal chan struct{} // buffered, size 1
}

// NewRenderQueue creates an empty, open queue.
func NewRenderQueue() *RenderQueue {
	return &RenderQueue{
		tasks:  make([]func(), 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Submit queues fn for the render goroutine. It never runs fn inline.
// Returns false if the queue is closed.
func (q *RenderQueue) Submit(fn func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || fn == nil {
		return false
	}
	q.tasks = append(q.tasks, fn)

	// Non-blocking: the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// Drain runs every queued task on the calling goroutine and returns how
// many ran. Tasks submitted while draining run in the same call.
func (q *RenderQueue) Drain() int {
	n := 0
	for {
		q.mu.Lock()
		batch := q.tasks
		q.tasks = nil
		q.mu.Unlock()

		if len(batch) == 0 {
			return n
		}
		for _, fn := range batch {
			fn()
		}
		n += len(batch)
	}
}

// Pending returns the number of queued tasks.
func (q *RenderQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Closed reports whether Close has been called.
func (q *RenderQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Run drains the queue each time work is submitted until ctx is done or the
// queue is closed. The goroutine calling Run becomes the render goroutine.
func (q *RenderQueue) Run(ctx context.Context) error {
	for {
		q.Drain()

		if q.Closed() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.signal:
		}
	}
}

// Close rejects further submissions and wakes Run. Already queued tasks are
// still run by the next Drain.
func (q *RenderQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
