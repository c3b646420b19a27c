package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"yksilo/internal/koodisto/models"
	"yksilo/internal/koodisto/store"
	"yksilo/pkg/domain"
	dErrors "yksilo/pkg/domain-errors"
	"yksilo/pkg/platform/audit"
	auditmemory "yksilo/pkg/platform/audit/store/memory"
)

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	store   *store.InMemoryStore
	events  *auditmemory.InMemoryStore
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemoryStore()
	s.events = auditmemory.NewInMemoryStore()
	s.service = New(s.store, WithPublisher(s.events))
}

func ptr(v string) *string { return &v }

func (s *ServiceSuite) seedKoulutus() {
	_, err := s.service.Import(s.ctx, models.KoodistoKoulutus, []models.Row{
		{Koodi: "671101", Kieli: domain.KieliFI, Nimi: "Lääketieteen lisensiaatti", Kuvaus: ptr("LL")},
		{Koodi: "671101", Kieli: domain.KieliSV, Nimi: "Medicine licentiat"},
		{Koodi: "751101", Kieli: domain.KieliFI, Nimi: "Lääketieteen tohtori"},
		{Koodi: "001101", Kieli: domain.KieliEN, Nimi: "Basic education"},
	})
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestFindByCode() {
	s.seedKoulutus()

	k, ok := s.service.FindByCode(s.ctx, models.KoodistoKoulutus, "671101")
	s.Require().True(ok)
	s.Equal(map[domain.Kieli]string{domain.KieliFI: "Lääketieteen lisensiaatti", domain.KieliSV: "Medicine licentiat"}, k.Nimi.AsMap())
	s.Equal(map[domain.Kieli]string{domain.KieliFI: "LL"}, k.Kuvaus.AsMap())

	koulutus, ok := models.AsKoulutuskoodi(k)
	s.True(ok)
	s.Equal("671101", koulutus.Koodi.Koodi)
	_, ok = models.AsAmmattiryhma(k)
	s.False(ok)
}

func (s *ServiceSuite) TestFindByCodeUnknownIsAbsentNotError() {
	s.seedKoulutus()

	_, ok := s.service.FindByCode(s.ctx, models.KoodistoKoulutus, "UNKNOWN")
	s.False(ok)
	_, ok = s.service.FindByCode(s.ctx, "eiole", "UNKNOWN")
	s.False(ok)
}

func (s *ServiceSuite) TestFindBeforeFirstRefresh() {
	_, ok := New(s.store).FindByCode(s.ctx, models.KoodistoKoulutus, "671101")
	s.False(ok)
}

func (s *ServiceSuite) TestList() {
	s.seedKoulutus()

	page, err := s.service.List(s.ctx, models.KoodistoKoulutus, domain.PageRequest{Sivu: 0, Koko: 2})
	s.Require().NoError(err)
	s.EqualValues(3, page.Maara)
	s.Equal(2, page.Sivuja)
	s.Require().Len(page.Sisalto, 2)
	s.Equal("001101", page.Sisalto[0].Koodi)
	s.Equal("671101", page.Sisalto[1].Koodi)

	page, err = s.service.List(s.ctx, models.KoodistoKoulutus, domain.PageRequest{Sivu: 1, Koko: 2})
	s.Require().NoError(err)
	s.Require().Len(page.Sisalto, 1)
	s.Equal("751101", page.Sisalto[0].Koodi)

	page, err = s.service.List(s.ctx, models.KoodistoKoulutus, domain.PageRequest{Sivu: 9, Koko: 2})
	s.Require().NoError(err)
	s.Empty(page.Sisalto)
	s.EqualValues(3, page.Maara)

	page, err = s.service.List(s.ctx, "eiole", domain.PageRequest{Koko: 2})
	s.Require().NoError(err)
	s.Zero(page.Maara)
	s.NotNil(page.Sisalto)
}

func (s *ServiceSuite) TestListDoesNotExposeSnapshot() {
	s.seedKoulutus()

	page, err := s.service.List(s.ctx, models.KoodistoKoulutus, domain.PageRequest{Koko: 2})
	s.Require().NoError(err)
	page.Sisalto[0] = models.Koodi{Koodi: "changed"}

	again, err := s.service.List(s.ctx, models.KoodistoKoulutus, domain.PageRequest{Koko: 2})
	s.Require().NoError(err)
	s.Equal("001101", again.Sisalto[0].Koodi)
}

func (s *ServiceSuite) TestListToleratesUnvalidatedOffset() {
	s.seedKoulutus()

	page, err := s.service.List(s.ctx, models.KoodistoKoulutus, domain.PageRequest{Sivu: math.MaxInt, Koko: 2})
	s.Require().NoError(err)
	s.Empty(page.Sisalto)
	s.EqualValues(3, page.Maara)
}

func (s *ServiceSuite) TestImportReplacesList() {
	s.seedKoulutus()

	summary, err := s.service.Import(s.ctx, models.KoodistoKoulutus, []models.Row{
		{Koodi: "999999", Kieli: domain.KieliFI, Nimi: "Uusi"},
	})
	s.Require().NoError(err)
	s.Equal(models.ImportSummary{Koodisto: models.KoodistoKoulutus, Koodit: 1, Rivit: 1}, summary)

	_, ok := s.service.FindByCode(s.ctx, models.KoodistoKoulutus, "671101")
	s.False(ok)
	_, ok = s.service.FindByCode(s.ctx, models.KoodistoKoulutus, "999999")
	s.True(ok)
	s.Equal([]string{models.KoodistoKoulutus}, s.service.Koodistot(s.ctx))
	s.Len(s.events.ListByAction(s.ctx, audit.EventKoodistoImported), 2)
}

func (s *ServiceSuite) TestImportValidation() {
	s.seedKoulutus()

	_, err := s.service.Import(s.ctx, models.KoodistoKoulutus, []models.Row{
		{Koodi: "", Kieli: domain.KieliFI, Nimi: "x"},
		{Koodi: "1", Kieli: domain.Kieli("de"), Nimi: "x"},
		{Koodi: "2", Kieli: domain.KieliFI, Nimi: ""},
		{Koodi: "3", Kieli: domain.KieliFI, Nimi: "a"},
		{Koodi: "3", Kieli: domain.KieliFI, Nimi: "b"},
	})
	s.Require().Error(err)
	de, ok := dErrors.As(err)
	s.Require().True(ok)
	s.Equal(dErrors.CodeValidation, de.Code)
	s.Equal([]string{
		"row 1: koodi is required",
		`row 2: unsupported kieli "de"`,
		"row 3: nimi is required",
		"row 5: duplicates row 4",
	}, de.Details)

	_, ok = s.service.FindByCode(s.ctx, models.KoodistoKoulutus, "671101")
	s.True(ok, "failed import leaves previous data in place")
}

func (s *ServiceSuite) TestImportRestrictedLanguages() {
	svc := New(store.NewInMemoryStore(), WithKielet([]domain.Kieli{domain.KieliFI}))
	_, err := svc.Import(s.ctx, "kieli", []models.Row{{Koodi: "SV", Kieli: domain.KieliSV, Nimi: "svenska"}})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestImportRejectsBadKoodistoName() {
	_, err := s.service.Import(s.ctx, "../etc", []models.Row{{Koodi: "1", Kieli: domain.KieliFI, Nimi: "x"}})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

// slowStore blocks LoadAll until released and counts calls.
type slowStore struct {
	*store.InMemoryStore
	loads   atomic.Int32
	release chan struct{}
	fail    bool
}

func (s *slowStore) LoadAll(ctx context.Context) ([]models.Row, error) {
	s.loads.Add(1)
	<-s.release
	if s.fail {
		return nil, errors.New("connection refused")
	}
	return s.InMemoryStore.LoadAll(ctx)
}

func (s *ServiceSuite) TestConcurrentRefreshesShareOneLoad() {
	slow := &slowStore{InMemoryStore: store.NewInMemoryStore(), release: make(chan struct{})}
	svc := New(slow)

	var wg sync.WaitGroup
	var started atomic.Int32
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started.Add(1)
			s.NoError(svc.Refresh(s.ctx))
		}()
	}
	s.Eventually(func() bool { return started.Load() == 8 && slow.loads.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(slow.release)
	wg.Wait()

	s.EqualValues(1, slow.loads.Load())
}

func (s *ServiceSuite) TestFailedRefreshKeepsSnapshot() {
	s.seedKoulutus()
	rows, err := s.store.LoadAll(s.ctx)
	s.Require().NoError(err)

	slow := &slowStore{InMemoryStore: store.NewInMemoryStore(), release: make(chan struct{}), fail: true}
	svc := New(slow)
	svc.current.Store(newSnapshot(mustGroup(s, rows)))
	close(slow.release)

	err = svc.Refresh(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	_, ok := svc.FindByCode(s.ctx, models.KoodistoKoulutus, "671101")
	s.True(ok)
}

func mustGroup(s *ServiceSuite, rows []models.Row) []models.Koodi {
	koodit, err := models.Group(rows)
	s.Require().NoError(err)
	return koodit
}

func (s *ServiceSuite) TestReadersNeverSeeTornSnapshot() {
	s.seedKoulutus()
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ctx.Err() == nil; i++ {
			rows := []models.Row{
				{Koodi: "A", Kieli: domain.KieliFI, Nimi: "a"},
				{Koodi: "B", Kieli: domain.KieliFI, Nimi: "b"},
			}
			if i%2 == 0 {
				rows = append(rows, models.Row{Koodi: "C", Kieli: domain.KieliFI, Nimi: "c"})
			}
			_, _ = s.service.Import(ctx, "vuoro", rows)
		}
	}()

	for range 500 {
		page, err := s.service.List(s.ctx, "vuoro", domain.PageRequest{Koko: 10})
		s.Require().NoError(err)
		s.EqualValues(len(page.Sisalto), page.Maara)
		s.Contains([]int{0, 2, 3}, len(page.Sisalto))
	}
	cancel()
	wg.Wait()
}
