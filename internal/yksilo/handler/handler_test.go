package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"yksilo/internal/feature"
	featurestore "yksilo/internal/feature/store"
	mahdollisuus "yksilo/internal/mahdollisuus/models"
	mahdollisuusservice "yksilo/internal/mahdollisuus/service"
	mahdollisuusstore "yksilo/internal/mahdollisuus/store"
	"yksilo/internal/yksilo/models"
	"yksilo/internal/yksilo/service"
	"yksilo/internal/yksilo/store"
	id "yksilo/pkg/domain"
	"yksilo/pkg/platform/httputil"
	"yksilo/pkg/testutil"
)

// HandlerSuite runs the profile routes over real services and in-memory
// stores.
type HandlerSuite struct {
	suite.Suite
	router chi.Router
	flags  *feature.Flags
	store  *store.InMemoryStore
	yid    string
	tyo    id.MahdollisuusID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	var err error
	s.flags, err = feature.New(map[string]bool{"paamaarat": true, "osaamiset": true}, featurestore.NewInMemoryStore())
	s.Require().NoError(err)

	catalog := mahdollisuusservice.New(mahdollisuusstore.NewInMemoryStore())
	s.tyo = id.NewMahdollisuusID()
	_, err = catalog.Import(context.Background(), mahdollisuus.UpsertBatch{{
		ID:      s.tyo,
		Tyyppi:  mahdollisuus.TyyppiTyo,
		Otsikko: id.MustLocalizedString(map[id.Kieli]string{id.KieliFI: "Ohjelmistokehittäjä"}),
	}})
	s.Require().NoError(err)

	s.store = store.NewInMemoryStore()
	svc := service.New(s.store, catalog, s.flags)
	r := chi.NewRouter()
	New(svc, s.flags, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	s.router = r
	s.yid = uuid.NewString()
}

func (s *HandlerSuite) do(method, path string, body any) *http.Request {
	var req *http.Request
	if body == nil {
		req = testutil.NewRequest(s.T(), method, path)
	} else {
		req = testutil.NewJSONRequest(s.T(), method, path, body)
	}
	return testutil.WithYksiloID(req, s.yid)
}

func (s *HandlerSuite) createProfile() {
	rr := testutil.DoRequest(s.router, s.do(http.MethodPut, "/profiili", map[string]bool{"tervetuloapolku": true}))
	testutil.AssertStatusOK(s.T(), rr)
}

func (s *HandlerSuite) TestProfileLifecycle() {
	rr := testutil.DoRequest(s.router, s.do(http.MethodGet, "/profiili", nil))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, httputil.ErrorCodeNotFound)

	s.createProfile()

	rr = testutil.DoRequest(s.router, s.do(http.MethodGet, "/profiili", nil))
	testutil.AssertStatusOK(s.T(), rr)
	dto := testutil.UnmarshalResponse[models.YksiloDto](s.T(), rr)
	s.Equal(s.yid, dto.ID.String())
	s.True(dto.Tervetuloapolku)

	rr = testutil.DoRequest(s.router, s.do(http.MethodDelete, "/profiili", nil))
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

	rr = testutil.DoRequest(s.router, s.do(http.MethodGet, "/profiili", nil))
	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
}

func (s *HandlerSuite) TestRequiresSession() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/profiili"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, httputil.ErrorCodeAuthenticationFailure)
}

func (s *HandlerSuite) TestUpdateRejectsUnknownFields() {
	rr := testutil.DoRequest(s.router, s.do(http.MethodPut, "/profiili", map[string]bool{"admin": true}))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, httputil.ErrorCodeInvalidRequest)
}

func (s *HandlerSuite) TestAddAndListPaamaarat() {
	s.createProfile()
	body := map[string]any{
		"tyyppi":             "LYHYT",
		"mahdollisuusTyyppi": "TYOMAHDOLLISUUS",
		"mahdollisuusId":     s.tyo.String(),
		"tavoite":            map[string]string{"fi": "Uusi työ vuoden sisällä"},
	}
	rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/profiili/paamaarat", body))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)
	created := testutil.UnmarshalResponse[models.PaamaaraDto](s.T(), rr)

	rr = testutil.DoRequest(s.router, s.do(http.MethodGet, "/profiili/paamaarat", nil))
	testutil.AssertStatusOK(s.T(), rr)
	goals := testutil.UnmarshalResponse[[]models.PaamaaraDto](s.T(), rr)
	s.Require().Len(*goals, 1)
	s.Equal(created.ID, (*goals)[0].ID)
	tavoite, ok := (*goals)[0].Tavoite.Get(id.KieliFI)
	s.True(ok)
	s.Equal("Uusi työ vuoden sisällä", tavoite)

	rr = testutil.DoRequest(s.router, s.do(http.MethodDelete, "/profiili/paamaarat/"+created.ID.String(), nil))
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
}

func (s *HandlerSuite) TestAddPaamaaraUnknownMahdollisuus() {
	s.createProfile()
	body := map[string]any{
		"tyyppi":             "PITKA",
		"mahdollisuusTyyppi": "TYOMAHDOLLISUUS",
		"mahdollisuusId":     uuid.NewString(),
	}
	rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/profiili/paamaarat", body))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, httputil.ErrorCodeInvalidRequest)
}

func (s *HandlerSuite) TestDisabledFeatureWritesNothing() {
	s.createProfile()
	s.Require().NoError(s.flags.Set(context.Background(), feature.Paamaarat, false))

	body := map[string]any{
		"tyyppi":             "LYHYT",
		"mahdollisuusTyyppi": "TYOMAHDOLLISUUS",
		"mahdollisuusId":     s.tyo.String(),
	}
	rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/profiili/paamaarat", body))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusForbidden, httputil.ErrorCodeFeatureDisabled)

	yid, err := id.ParseYksiloID(s.yid)
	s.Require().NoError(err)
	goals, err := s.store.ListPaamaarat(context.Background(), yid)
	s.Require().NoError(err)
	s.Empty(goals)
}

func (s *HandlerSuite) TestOsaamiset() {
	s.createProfile()
	body := map[string]string{"osaaminen": "http://data.europa.eu/esco/skill/0ae1a8d1", "lahde": "PATEVYYS"}

	rr := testutil.DoRequest(s.router, s.do(http.MethodPost, "/profiili/osaamiset", body))
	testutil.AssertStatus(s.T(), rr, http.StatusCreated)

	rr = testutil.DoRequest(s.router, s.do(http.MethodPost, "/profiili/osaamiset", body))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, httputil.ErrorCodeConflict)

	rr = testutil.DoRequest(s.router, s.do(http.MethodGet, "/profiili/osaamiset", nil))
	skills := testutil.UnmarshalResponse[[]models.OsaaminenDto](s.T(), rr)
	s.Len(*skills, 1)

	rr = testutil.DoRequest(s.router, s.do(http.MethodDelete, "/profiili/osaamiset/not-an-id", nil))
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}
