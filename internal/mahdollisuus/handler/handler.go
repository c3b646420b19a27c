// Package handler exposes the opportunity catalog: public listings under
// /api/tyomahdollisuudet and /api/koulutusmahdollisuudet, imports under
// /admin/mahdollisuudet.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"yksilo/internal/feature"
	"yksilo/internal/mahdollisuus/models"
	"yksilo/pkg/domain"
	"yksilo/pkg/platform/httputil"
	request "yksilo/pkg/platform/middleware/request"
)

type Service interface {
	Get(ctx context.Context, tyyppi models.Tyyppi, mid domain.MahdollisuusID) (models.Mahdollisuus, error)
	List(ctx context.Context, tyyppi models.Tyyppi, req domain.PageRequest) (domain.Page[models.Mahdollisuus], error)
	Import(ctx context.Context, batch models.UpsertBatch) (models.UpsertSummary, error)
}

type Handler struct {
	service     Service
	features    feature.Checker
	maxPageSize int
	logger      *slog.Logger
}

func New(service Service, features feature.Checker, maxPageSize int, logger *slog.Logger) *Handler {
	return &Handler{service: service, features: features, maxPageSize: maxPageSize, logger: logger}
}

// RegisterPublic mounts one listing per opportunity type, each behind its
// own feature switch.
func (h *Handler) RegisterPublic(r chi.Router) {
	h.mount(r, "/tyomahdollisuudet", models.TyyppiTyo, feature.Tyomahdollisuudet)
	h.mount(r, "/koulutusmahdollisuudet", models.TyyppiKoulutus, feature.Koulutusmahdollisuudet)
}

func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Put("/mahdollisuudet", h.handleImport)
}

func (h *Handler) mount(r chi.Router, path string, tyyppi models.Tyyppi, feat feature.Feature) {
	r.Route(path, func(r chi.Router) {
		r.Use(feature.RequireFeature(h.features, feat))
		r.Get("/", h.handleList(tyyppi))
		r.Get("/{id}", h.handleGet(tyyppi))
	})
}

func (h *Handler) handleList(tyyppi models.Tyyppi) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		pageReq, err := httputil.ParsePageRequest(r, h.maxPageSize)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		page, err := h.service.List(ctx, tyyppi, pageReq)
		if err != nil {
			h.logger.ErrorContext(ctx, "failed to list mahdollisuudet",
				"request_id", request.GetRequestID(ctx),
				"tyyppi", tyyppi,
				"error", err,
			)
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, domain.MapPage(page, models.ToDto))
	}
}

func (h *Handler) handleGet(tyyppi models.Tyyppi) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		mid, err := domain.ParseMahdollisuusID(chi.URLParam(r, "id"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		m, err := h.service.Get(ctx, tyyppi, mid)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, models.ToDto(m))
	}
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	batch, ok := httputil.DecodeAndPrepare[models.UpsertBatch](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	summary, err := h.service.Import(ctx, *batch)
	if err != nil {
		h.logger.WarnContext(ctx, "mahdollisuus import rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "mahdollisuudet imported",
		"request_id", requestID,
		"tallennettu", summary.Tallennettu,
	)
	httputil.WriteJSON(w, http.StatusOK, summary)
}
