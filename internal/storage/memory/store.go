// Package memory provides an in-memory completion store, used when no
// database is configured and in tests.
package memory

import (
	"context"
	"sync"

	"github.com/lucamaraschi/fastify/internal/storage"
)

// defaultCapacity bounds the number of retained records.
const defaultCapacity = 1024

// Store is an in-memory implementation of storage.Store.
// It retains the most recent records up to a fixed capacity.
type Store struct {
	mu       sync.Mutex
	records  []*storage.Completion
	capacity int
}

var _ storage.Store = (*Store)(nil)

// New creates an in-memory store with the default capacity.
func New() *Store {
	return NewWithCapacity(defaultCapacity)
}

// NewWithCapacity creates an in-memory store retaining at most capacity records.
func NewWithCapacity(capacity int) *Store {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Store{capacity: capacity}
}

// RecordCompletion saves a completion record, evicting the oldest when full.
func (s *Store) RecordCompletion(_ context.Context, c *storage.Completion) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, c)
	if len(s.records) > s.capacity {
		s.records = s.records[len(s.records)-s.capacity:]
	}
	return nil
}

// ListCompletions returns the most recent records, newest first.
func (s *Store) ListCompletions(_ context.Context, limit int) ([]*storage.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.records)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]*storage.Completion, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
