// Package queue holds prediction logs between the request path and the
// store writers.
//
// Enqueue never blocks: when the buffer is full the entry is rejected and the
// caller decides what to do with it.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/turnover/internal/domain/model"
	"github.com/okian/turnover/pkg/metrics"
)

const defaultQueueCapacity = 10000

// Entry is one queued prediction log.
type Entry struct {
	Log        model.PredictionLog
	EnqueuedAt time.Time
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a log. It returns ErrFull or ErrClosed when the log was
	// not accepted.
	Enqueue(ctx context.Context, log model.PredictionLog) error

	// Dequeue returns the channel consumers range over. It is closed by Close
	// once the remaining entries are drained.
	Dequeue(ctx context.Context) <-chan Entry

	// Len returns the number of queued entries.
	Len(ctx context.Context) int

	// Close stops accepting entries. Queued entries stay readable.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	entries  chan Entry
	capacity int
	now      func() time.Time

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a bounded queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity, now: time.Now}
	for _, opt := range opts {
		opt(q)
	}
	q.entries = make(chan Entry, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)
	return q
}

// Capacity returns the maximum number of queued entries.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Enqueue adds a log without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, log model.PredictionLog) error { //nolint:gocritic // hugeParam: copied into the channel anyway
	// Read lock keeps Close from closing the channel under a send.
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		return err
	}

	select {
	case q.entries <- Entry{Log: log, EnqueuedAt: q.now()}:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		return ErrFull
	}
}

// Dequeue returns the entry channel. Every consumer shares it.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Entry {
	return q.entries
}

// Len returns the current number of queued entries.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return q.observe()
}

func (q *InMemoryQueue) observe() int {
	size := len(q.entries)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Close stops accepting entries. It is safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.entries)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
