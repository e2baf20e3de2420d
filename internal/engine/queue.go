package engine

import "sync"

// callQueue is the append-only buffer of pending calls for one window.
//
// Enqueue appends under the mutex before returning, so calls made
// back-to-back from one goroutine always land in the same window. Drain swaps
// the whole slice out in one critical section: no two flushes ever observe
// overlapping contents.
//
// Thread-safety: all methods are safe for concurrent use.
type callQueue struct {
	mu    sync.Mutex
	calls []*Call
}

func newCallQueue() *callQueue {
	return &callQueue{calls: make([]*Call, 0, 16)}
}

// Enqueue appends c and returns the new queue length.
func (q *callQueue) Enqueue(c *Call) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls = append(q.calls, c)
	return len(q.calls)
}

// Drain removes and returns every pending call.
func (q *callQueue) Drain() []*Call {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.calls) == 0 {
		return nil
	}
	out := q.calls
	// Fresh slice: the drained backing array belongs to the flush now.
	q.calls = make([]*Call, 0, cap(out))
	return out
}

// Len returns the number of pending calls.
func (q *callQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.calls)
}
