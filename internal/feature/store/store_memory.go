// Package store persists admin overrides of feature defaults.
package store

import (
	"context"
	"maps"
	"sync"

	"yksilo/internal/feature"
)

// InMemoryStore keeps overrides for the lifetime of the process.
type InMemoryStore struct {
	mu        sync.RWMutex
	overrides map[feature.Feature]bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{overrides: make(map[feature.Feature]bool)}
}

func (s *InMemoryStore) Overrides(_ context.Context) (map[feature.Feature]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.overrides), nil
}

func (s *InMemoryStore) SetOverride(_ context.Context, f feature.Feature, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[f] = enabled
	return nil
}

func (s *InMemoryStore) ClearOverride(_ context.Context, f feature.Feature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides, f)
	return nil
}
