// Package store persists reference data rows.
package store

import (
	"context"
	"slices"
	"sync"

	"yksilo/internal/koodisto/models"
)

// InMemoryStore is used when no database is configured and in tests.
type InMemoryStore struct {
	mu   sync.RWMutex
	rows map[string][]models.Row
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{rows: make(map[string][]models.Row)}
}

func (s *InMemoryStore) LoadAll(_ context.Context) ([]models.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Row
	for _, rows := range s.rows {
		out = append(out, rows...)
	}
	return out, nil
}

// Replace swaps a whole code list under one lock.
func (s *InMemoryStore) Replace(_ context.Context, koodisto string, rows []models.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(rows) == 0 {
		delete(s.rows, koodisto)
		return nil
	}
	s.rows[koodisto] = slices.Clone(rows)
	return nil
}
