package handler

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"yksilo/internal/koodisto/importer"
	"yksilo/internal/koodisto/models"
	"yksilo/internal/koodisto/service"
	"yksilo/internal/koodisto/store"
	"yksilo/pkg/domain"
	"yksilo/pkg/platform/httputil"
	"yksilo/pkg/testutil"
)

// HandlerSuite runs the handlers over the real service and in-memory store.
type HandlerSuite struct {
	suite.Suite
	router  chi.Router
	service *service.Service
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.service = service.New(store.NewInMemoryStore())
	h := New(s.service, domain.DefaultMaxPageSize, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	r.Route("/api", h.RegisterPublic)
	r.Route("/admin", h.RegisterAdmin)
	s.router = r

	_, err := s.service.Import(context.Background(), "ammattiryhma", []models.Row{
		{Koodi: "2211", Kieli: domain.KieliFI, Nimi: "Yleislääkärit"},
		{Koodi: "2211", Kieli: domain.KieliEN, Nimi: "Generalist medical practitioners"},
		{Koodi: "2212", Kieli: domain.KieliFI, Nimi: "Erikoislääkärit"},
	})
	s.Require().NoError(err)
}

func (s *HandlerSuite) TestGet() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/koodisto/ammattiryhma/2211"))

	testutil.AssertStatusOK(s.T(), rr)
	dto := testutil.UnmarshalResponse[models.KoodiDto](s.T(), rr)
	s.Equal("2211", dto.Koodi)
	nimi, ok := dto.Nimi.Get(domain.KieliEN)
	s.True(ok)
	s.Equal("Generalist medical practitioners", nimi)
	s.True(dto.Kuvaus.IsEmpty())
}

func (s *HandlerSuite) TestGetUnknown() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/koodisto/ammattiryhma/UNKNOWN"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, httputil.ErrorCodeNotFound)
}

func (s *HandlerSuite) TestList() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/koodisto/ammattiryhma?sivu=0&koko=1"))

	testutil.AssertStatusOK(s.T(), rr)
	page := testutil.UnmarshalResponse[domain.Page[models.KoodiDto]](s.T(), rr)
	s.EqualValues(2, page.Maara)
	s.Equal(2, page.Sivuja)
	s.Require().Len(page.Sisalto, 1)
	s.Equal("2211", page.Sisalto[0].Koodi)
}

func (s *HandlerSuite) TestListOversizedPage() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/koodisto/ammattiryhma?koko=5000"))
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, httputil.ErrorCodeInvalidRequest)
}

func (s *HandlerSuite) TestListRejectsOverflowingPageIndex() {
	for _, query := range []string{
		"sivu=9223372036854775807&koko=2",
		"sivu=4611686018427387904&koko=4",
		"sivu=99999999999999999999&koko=1",
	} {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/koodisto/ammattiryhma?"+query))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, httputil.ErrorCodeInvalidRequest)
	}
}

func (s *HandlerSuite) TestListPastTheEnd() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/api/koodisto/ammattiryhma?sivu=50&koko=10"))

	testutil.AssertStatusOK(s.T(), rr)
	page := testutil.UnmarshalResponse[domain.Page[models.KoodiDto]](s.T(), rr)
	s.EqualValues(2, page.Maara)
	s.Empty(page.Sisalto)
}

func (s *HandlerSuite) TestImportCSVBody() {
	req := httptest.NewRequest(http.MethodPost, "/admin/koodisto/kieli",
		bytes.NewBufferString("koodi,kieli,nimi\nFI,fi,suomi\nFI,sv,finska\nSV,fi,ruotsi\n"))
	req.Header.Set("Content-Type", importer.ContentTypeCSV)

	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
	summary := testutil.UnmarshalResponse[models.ImportSummary](s.T(), rr)
	s.Equal(models.ImportSummary{Koodisto: "kieli", Koodit: 2, Rivit: 3}, *summary)
	_, ok := s.service.FindByCode(context.Background(), "kieli", "SV")
	s.True(ok)
}

func (s *HandlerSuite) TestImportMultipart() {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "kieli.csv")
	s.Require().NoError(err)
	_, err = part.Write([]byte("koodi,kieli,nimi\nEN,fi,englanti\n"))
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/koodisto/kieli", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
	_, ok := s.service.FindByCode(context.Background(), "kieli", "EN")
	s.True(ok)
}

func (s *HandlerSuite) TestImportRejectsUnsupportedFormat() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/koodisto/kieli", map[string]string{"koodi": "FI"})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, httputil.ErrorCodeInvalidRequest)
}

func (s *HandlerSuite) TestImportInvalidRowsKeepsData() {
	req := httptest.NewRequest(http.MethodPost, "/admin/koodisto/ammattiryhma",
		bytes.NewBufferString("koodi,kieli,nimi\n,fi,tyhjä\n"))
	req.Header.Set("Content-Type", importer.ContentTypeCSV)

	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	info := testutil.UnmarshalErrorResponse(s.T(), rr)
	s.Equal([]string{"row 1: koodi is required"}, info.ErrorDetails)
	_, ok := s.service.FindByCode(context.Background(), "ammattiryhma", "2211")
	s.True(ok)
}

func (s *HandlerSuite) TestRefresh() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, "/admin/koodisto/refresh"))
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)
}
