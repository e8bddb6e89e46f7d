package security

import (
	"sync"
	"sync/atomic"

	audit "docverify/pkg/platform/audit"
)

const defaultCapacity = 10000

// pending is a bounded FIFO of security events awaiting persistence. A push
// into a full queue evicts the oldest event.
type pending struct {
	mu      sync.Mutex
	events  []audit.SecurityEvent
	limit   int
	evicted atomic.Int64
}

func newPending(limit int) *pending {
	if limit <= 0 {
		limit = defaultCapacity
	}
	return &pending{limit: limit, events: make([]audit.SecurityEvent, 0, min(limit, 256))}
}

func (q *pending) push(events ...audit.SecurityEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, events...)
	if over := len(q.events) - q.limit; over > 0 {
		q.events = append(q.events[:0], q.events[over:]...)
		q.evicted.Add(int64(over))
	}
}

// take removes and returns up to n events, oldest first.
func (q *pending) take(n int) []audit.SecurityEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	n = min(n, len(q.events))
	if n == 0 {
		return nil
	}
	out := make([]audit.SecurityEvent, n)
	copy(out, q.events)
	q.events = append(q.events[:0], q.events[n:]...)
	return out
}

func (q *pending) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
