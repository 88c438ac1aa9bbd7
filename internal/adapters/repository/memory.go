package repository

import (
	"context"
	"sync"

	"github.com/okian/turnover/internal/domain/model"
	"github.com/okian/turnover/pkg/metrics"
)

const defaultMemoryCapacity = 10000

// MemoryStore is a bounded ring of the most recent logs. It is the default
// when no database is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	capacity int
	ring     []model.PredictionLog
	next     int
	size     int
	closed   bool
}

// NewMemoryStore constructs an empty ring.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{capacity: defaultMemoryCapacity}
	for _, opt := range opts {
		opt(s)
	}
	s.ring = make([]model.PredictionLog, s.capacity)
	return s
}

// Kind implements Store.
func (s *MemoryStore) Kind() string { return "memory" }

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, log model.PredictionLog) error { //nolint:gocritic // stored by value
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.ring[s.next] = log
	s.next = (s.next + 1) % s.capacity
	if s.size < s.capacity {
		s.size++
	}
	size := s.size
	s.mu.Unlock()

	metrics.UpdatePredictionLogsStored(size)
	return nil
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size, nil
}

// Recent implements Store.
func (s *MemoryStore) Recent(_ context.Context, n int) ([]model.PredictionLog, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	n = min(n, s.size)
	out := make([]model.PredictionLog, n)
	for i := range out {
		out[i] = s.ring[(s.next-1-i+s.capacity)%s.capacity]
	}
	return out, nil
}

// Close implements Store. Saves after Close fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
