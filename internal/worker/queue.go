package worker

import "sync"

// envelope is a queued request with its sequence number.
type envelope struct {
	seq int64
	req Request
}

// requestQueue is a thread-safe, unbounded FIFO queue.
//
// Submit never blocks the caller (the UI side); the worker's Run loop is the
// only consumer. The signal channel lets Run wait without ignoring context
// cancellation.
type requestQueue struct {
	mu     sync.Mutex
	items  []envelope
	closed bool
	signal chan struct{} // buffered, size 1
}

func newRequestQueue() *requestQueue {
	return &requestQueue{
		items:  make([]envelope, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a request to the back of the queue.
// Returns false if the queue is closed.
func (q *requestQueue) Enqueue(e envelope) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.items = append(q.items, e)

	// Buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front request without blocking.
func (q *requestQueue) TryDequeue() (envelope, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return envelope{}, false
	}

	e := q.items[0]
	q.items[0] = envelope{} // release references held by the backing array

	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}

	return e, true
}

// Wait returns a channel that signals when requests may be available.
// It is closed when the queue is closed.
func (q *requestQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *requestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drained reports whether the queue is closed and empty.
func (q *requestQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.items) == 0
}

// Close stops further Enqueue calls and wakes the consumer. Requests
// already queued are still handed out by TryDequeue.
func (q *requestQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
