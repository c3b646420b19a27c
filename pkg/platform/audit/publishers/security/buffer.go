package security

import (
	"sync"

	audit "yksilo/pkg/platform/audit"
)

const defaultCapacity = 1024

// eventQueue is a bounded FIFO. A push onto a full queue evicts the oldest
// event and counts it as dropped.
type eventQueue struct {
	mu      sync.Mutex
	slots   []audit.Event
	start   int
	size    int
	dropped int64
}

func newEventQueue(capacity int) *eventQueue {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &eventQueue{slots: make([]audit.Event, capacity)}
}

func (q *eventQueue) push(event audit.Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.slots)
	if q.size == n {
		q.slots[q.start] = event
		q.start = (q.start + 1) % n
		q.dropped++
		return
	}
	q.slots[(q.start+q.size)%n] = event
	q.size++
}

// pop removes and returns up to max events, oldest first.
func (q *eventQueue) pop(max int) []audit.Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	take := min(max, q.size)
	if take == 0 {
		return nil
	}
	out := make([]audit.Event, take)
	for i := range out {
		j := (q.start + i) % len(q.slots)
		out[i] = q.slots[j]
		q.slots[j] = audit.Event{}
	}
	q.start = (q.start + take) % len(q.slots)
	q.size -= take
	return out
}

func (q *eventQueue) droppedCount() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
