package queue

import "time"

// Option configures an InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity bounds the buffer. Non-positive values keep the default.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithClock replaces the source of EnqueuedAt stamps; the processing latency
// histogram is measured against them.
func WithClock(now func() time.Time) Option {
	return func(q *InMemoryQueue) {
		if now != nil {
			q.now = now
		}
	}
}
