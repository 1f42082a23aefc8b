package quota

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu   sync.Mutex
	data map[string]Status
}

// NewMemoryStore constructs an in-memory quota store for dev and tests.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Status)}
}

// Seed sets a user's status directly, bypassing the transition rules.
func (s *MemoryStore) Seed(userID string, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[userID] = status
}

func (s *MemoryStore) Status(ctx context.Context, userID string) (Status, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	status, ok := s.data[userID]
	if !ok {
		// Unknown users are provisioned lazily with a free slot, matching
		// the users-table default.
		return StatusNotUploaded, nil
	}
	return status, nil
}

func (s *MemoryStore) Consume(ctx context.Context, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if status, ok := s.data[userID]; ok && status != StatusNotUploaded {
		return false, nil
	}
	s.data[userID] = StatusUploaded
	return true, nil
}

func (s *MemoryStore) Release(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[userID] == StatusUnlimited {
		return nil
	}
	s.data[userID] = StatusNotUploaded
	return nil
}
