// Package store persists profiles together with their goals and skills.
package store

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
	"sync"

	"yksilo/internal/yksilo/models"
	id "yksilo/pkg/domain"
	"yksilo/pkg/platform/sentinel"
)

// ErrPaamaaraLimit is returned by AddPaamaara when the profile already holds
// the maximum number of goals.
var ErrPaamaaraLimit = errors.New("paamaara limit reached")

// InMemoryStore is used when no database is configured and in tests.
type InMemoryStore struct {
	txMu      sync.Mutex
	mu        sync.RWMutex
	profiles  map[id.YksiloID]models.Yksilo
	paamaarat map[id.YksiloID][]models.Paamaara
	osaamiset map[id.YksiloID][]models.YksilonOsaaminen
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		profiles:  make(map[id.YksiloID]models.Yksilo),
		paamaarat: make(map[id.YksiloID][]models.Paamaara),
		osaamiset: make(map[id.YksiloID][]models.YksilonOsaaminen),
	}
}

// RunInTx runs fn and restores the previous contents when it fails.
// Transactions serialize with each other but not with plain writes.
func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	profiles := maps.Clone(s.profiles)
	paamaarat := cloneValues(s.paamaarat)
	osaamiset := cloneValues(s.osaamiset)
	s.mu.RUnlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.profiles, s.paamaarat, s.osaamiset = profiles, paamaarat, osaamiset
		s.mu.Unlock()
		return err
	}
	return nil
}

func cloneValues[K comparable, V any](m map[K][]V) map[K][]V {
	out := make(map[K][]V, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

func (s *InMemoryStore) FindByID(_ context.Context, yid id.YksiloID) (models.Yksilo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	y, ok := s.profiles[yid]
	if !ok {
		return models.Yksilo{}, sentinel.ErrNotFound
	}
	return y, nil
}

func (s *InMemoryStore) Save(_ context.Context, y models.Yksilo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[y.ID] = y
	return nil
}

// Delete removes the profile with its goals and skills.
func (s *InMemoryStore) Delete(_ context.Context, yid id.YksiloID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[yid]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.profiles, yid)
	delete(s.paamaarat, yid)
	delete(s.osaamiset, yid)
	return nil
}

func (s *InMemoryStore) ListPaamaarat(_ context.Context, yid id.YksiloID) ([]models.Paamaara, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.paamaarat[yid]), nil
}

// AddPaamaara appends a goal unless the profile is missing or already holds
// limit goals.
func (s *InMemoryStore) AddPaamaara(_ context.Context, p models.Paamaara, limit int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.YksiloID]; !ok {
		return sentinel.ErrNotFound
	}
	if len(s.paamaarat[p.YksiloID]) >= limit {
		return ErrPaamaaraLimit
	}
	s.paamaarat[p.YksiloID] = append(s.paamaarat[p.YksiloID], p)
	return nil
}

func (s *InMemoryStore) DeletePaamaara(_ context.Context, yid id.YksiloID, pid id.PaamaaraID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	goals := s.paamaarat[yid]
	i := slices.IndexFunc(goals, func(p models.Paamaara) bool { return p.ID == pid })
	if i < 0 {
		return sentinel.ErrNotFound
	}
	s.paamaarat[yid] = slices.Delete(slices.Clone(goals), i, i+1)
	return nil
}

func (s *InMemoryStore) ListOsaamiset(_ context.Context, yid id.YksiloID) ([]models.YksilonOsaaminen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.osaamiset[yid]), nil
}

func (s *InMemoryStore) AddOsaaminen(_ context.Context, o models.YksilonOsaaminen) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[o.YksiloID]; !ok {
		return sentinel.ErrNotFound
	}
	for _, existing := range s.osaamiset[o.YksiloID] {
		if existing.Osaaminen == o.Osaaminen && existing.Lahde == o.Lahde {
			return sentinel.ErrConflict
		}
	}
	s.osaamiset[o.YksiloID] = append(s.osaamiset[o.YksiloID], o)
	return nil
}

func (s *InMemoryStore) DeleteOsaaminen(_ context.Context, yid id.YksiloID, oid id.OsaaminenID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	skills := s.osaamiset[yid]
	i := slices.IndexFunc(skills, func(o models.YksilonOsaaminen) bool { return o.ID == oid })
	if i < 0 {
		return sentinel.ErrNotFound
	}
	s.osaamiset[yid] = slices.Delete(slices.Clone(skills), i, i+1)
	return nil
}

// CountShared counts profiles that consented to sharing with partners.
func (s *InMemoryStore) CountShared(_ context.Context) (int64, error) {
	return int64(len(s.shared())), nil
}

// ListShared pages sharing profiles ordered by id.
func (s *InMemoryStore) ListShared(_ context.Context, offset, limit int) ([]models.Yksilo, error) {
	all := s.shared()
	if offset < 0 || offset > len(all) {
		offset = len(all)
	}
	end := offset + min(max(limit, 0), len(all)-offset)
	return all[offset:end], nil
}

func (s *InMemoryStore) PaamaaratFor(_ context.Context, ids []id.YksiloID) (map[id.YksiloID][]models.Paamaara, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.YksiloID][]models.Paamaara, len(ids))
	for _, yid := range ids {
		if goals := s.paamaarat[yid]; len(goals) > 0 {
			out[yid] = slices.Clone(goals)
		}
	}
	return out, nil
}

func (s *InMemoryStore) OsaamisetFor(_ context.Context, ids []id.YksiloID) (map[id.YksiloID][]models.YksilonOsaaminen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[id.YksiloID][]models.YksilonOsaaminen, len(ids))
	for _, yid := range ids {
		if skills := s.osaamiset[yid]; len(skills) > 0 {
			out[yid] = slices.Clone(skills)
		}
	}
	return out, nil
}

func (s *InMemoryStore) shared() []models.Yksilo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Yksilo
	for _, y := range s.profiles {
		if y.LupaLuovuttaaTiedotUlkopuoliselle {
			out = append(out, y)
		}
	}
	slices.SortFunc(out, func(a, b models.Yksilo) int {
		return strings.Compare(a.ID.String(), b.ID.String())
	})
	return out
}
