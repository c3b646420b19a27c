//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"yksilo/internal/mahdollisuus/models"
	"yksilo/internal/mahdollisuus/store"
	"yksilo/pkg/domain"
	"yksilo/pkg/platform/sentinel"
	"yksilo/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.Postgres(s.T())
	s.store = store.NewPostgres(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.pg.Truncate(s.T())
}

func entry(tyyppi models.Tyyppi, fi string, aktiivinen bool) models.Mahdollisuus {
	return models.Mahdollisuus{
		ID:         domain.NewMahdollisuusID(),
		Tyyppi:     tyyppi,
		Otsikko:    domain.MustLocalizedString(map[domain.Kieli]string{domain.KieliFI: fi}),
		Aktiivinen: aktiivinen,
		Muokattu:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *PostgresStoreSuite) TestUpsertRoundTrip() {
	ctx := context.Background()
	m := entry(models.TyyppiTyo, "Sähköasentaja", true)
	s.Require().NoError(s.store.Upsert(ctx, []models.Mahdollisuus{m}))

	m.Otsikko = domain.MustLocalizedString(map[domain.Kieli]string{domain.KieliFI: "Sähköasentaja", domain.KieliSV: "Elmontör"})
	s.Require().NoError(s.store.Upsert(ctx, []models.Mahdollisuus{m}))

	got, err := s.store.FindByID(ctx, m.ID)
	s.Require().NoError(err)
	s.True(got.Otsikko.Equal(m.Otsikko))
	s.True(got.Kuvaus.IsEmpty())
	s.True(m.Muokattu.Equal(got.Muokattu))

	_, err = s.store.FindByID(ctx, domain.NewMahdollisuusID())
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresStoreSuite) TestListAndCountOnlyActiveOfType() {
	ctx := context.Background()
	items := []models.Mahdollisuus{
		entry(models.TyyppiTyo, "A", true),
		entry(models.TyyppiTyo, "B", true),
		entry(models.TyyppiTyo, "C", false),
		entry(models.TyyppiKoulutus, "D", true),
	}
	s.Require().NoError(s.store.Upsert(ctx, items))

	n, err := s.store.CountActive(ctx, models.TyyppiTyo)
	s.Require().NoError(err)
	s.EqualValues(2, n)

	list, err := s.store.ListActive(ctx, models.TyyppiTyo, 1, 10)
	s.Require().NoError(err)
	s.Len(list, 1)

	ok, err := s.store.Exists(ctx, models.TyyppiKoulutus, items[3].ID)
	s.Require().NoError(err)
	s.True(ok)
	ok, err = s.store.Exists(ctx, models.TyyppiTyo, items[2].ID)
	s.Require().NoError(err)
	s.False(ok)
}
