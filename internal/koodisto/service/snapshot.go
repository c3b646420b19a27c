package service

import (
	"slices"

	"yksilo/internal/koodisto/models"
)

// snapshot is an immutable view of every code list. It is built completely
// before being published and never modified afterwards.
type snapshot struct {
	byCode map[string]map[string]models.Koodi
	lists  map[string][]models.Koodi
	names  []string
	size   int
}

func emptySnapshot() *snapshot {
	return &snapshot{
		byCode: map[string]map[string]models.Koodi{},
		lists:  map[string][]models.Koodi{},
	}
}

// newSnapshot expects codes sorted by koodisto then koodi, as models.Group
// returns them.
func newSnapshot(codes []models.Koodi) *snapshot {
	s := emptySnapshot()
	for _, k := range codes {
		byCode, ok := s.byCode[k.Koodisto]
		if !ok {
			byCode = make(map[string]models.Koodi)
			s.byCode[k.Koodisto] = byCode
			s.names = append(s.names, k.Koodisto)
		}
		byCode[k.Koodi] = k
		s.lists[k.Koodisto] = append(s.lists[k.Koodisto], k)
	}
	s.size = len(codes)
	slices.Sort(s.names)
	return s
}

func (s *snapshot) find(koodisto, koodi string) (models.Koodi, bool) {
	k, ok := s.byCode[koodisto][koodi]
	return k, ok
}

func (s *snapshot) has(koodisto string) bool {
	_, ok := s.byCode[koodisto]
	return ok
}
