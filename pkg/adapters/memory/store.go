// Package memory provides an in-process RunStore, used as the default
// backend for the CLI and in tests.
package memory

import (
	"context"
	"sync"

	"github.com/aretw0/gleaner/pkg/domain"
)

// Store implements ports.RunStore in memory. Safe for concurrent use.
type Store struct {
	data map[string]*domain.Result
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Result),
	}
}

// Save persists the result in memory. The result is copied so the caller
// cannot mutate the stored record afterwards.
func (s *Store) Save(ctx context.Context, runID string, result *domain.Result) error {
	copied := copyResult(result)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[runID] = copied
	return nil
}

// Load retrieves the result from memory, again as a copy.
func (s *Store) Load(ctx context.Context, runID string) (*domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result, ok := s.data[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return copyResult(result), nil
}

// Delete removes the result.
func (s *Store) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

// List returns the known run IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]string, 0, len(s.data))
	for id := range s.data {
		runs = append(runs, id)
	}
	return runs, nil
}

func copyResult(r *domain.Result) *domain.Result {
	copied := &domain.Result{
		FinalState: r.FinalState.Clone(),
		Trace:      append(domain.Trace(nil), r.Trace...),
	}
	if r.Err != nil {
		errCopy := *r.Err
		copied.Err = &errCopy
	}
	return copied
}
