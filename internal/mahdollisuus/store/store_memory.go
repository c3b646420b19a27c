// Package store persists the opportunity catalog.
package store

import (
	"context"
	"slices"
	"strings"
	"sync"

	"yksilo/internal/mahdollisuus/models"
	id "yksilo/pkg/domain"
	"yksilo/pkg/platform/sentinel"
)

// InMemoryStore is used when no database is configured and in tests.
type InMemoryStore struct {
	mu    sync.RWMutex
	items map[id.MahdollisuusID]models.Mahdollisuus
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{items: make(map[id.MahdollisuusID]models.Mahdollisuus)}
}

func (s *InMemoryStore) Upsert(_ context.Context, items []models.Mahdollisuus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range items {
		s.items[m.ID] = m
	}
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, mid id.MahdollisuusID) (models.Mahdollisuus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.items[mid]
	if !ok {
		return models.Mahdollisuus{}, sentinel.ErrNotFound
	}
	return m, nil
}

// ListActive returns active entries of one type ordered by id.
func (s *InMemoryStore) ListActive(_ context.Context, tyyppi models.Tyyppi, offset, limit int) ([]models.Mahdollisuus, error) {
	all := s.active(tyyppi)
	if offset < 0 || offset > len(all) {
		offset = len(all)
	}
	end := offset + min(max(limit, 0), len(all)-offset)
	return all[offset:end], nil
}

func (s *InMemoryStore) CountActive(_ context.Context, tyyppi models.Tyyppi) (int64, error) {
	return int64(len(s.active(tyyppi))), nil
}

// Exists reports whether an active entry of the given type exists.
func (s *InMemoryStore) Exists(_ context.Context, tyyppi models.Tyyppi, mid id.MahdollisuusID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.items[mid]
	return ok && m.Aktiivinen && m.Tyyppi == tyyppi, nil
}

func (s *InMemoryStore) active(tyyppi models.Tyyppi) []models.Mahdollisuus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Mahdollisuus
	for _, m := range s.items {
		if m.Aktiivinen && m.Tyyppi == tyyppi {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b models.Mahdollisuus) int {
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out
}
