// Package handler serves GET /external-api/v1/profiilit. The caller mounts
// it behind the API key gate.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"yksilo/internal/external/models"
	"yksilo/internal/feature"
	"yksilo/pkg/domain"
	"yksilo/pkg/platform/httputil"
	request "yksilo/pkg/platform/middleware/request"
)

type Service interface {
	ListProfiilit(ctx context.Context, req domain.PageRequest) (domain.Page[models.ExtProfiiliDto], error)
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

func (h *Handler) Register(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Use(feature.RequireFeature(h.features, feature.UlkoinenAPI))
		r.Get("/profiilit", h.handleListProfiilit)
	})
}

// handleListProfiilit validates paging before the service runs, so an
// oversized page never reaches the store.
func (h *Handler) handleListProfiilit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pageReq, err := httputil.ParsePageRequest(r, h.maxPageSize)
	if err != nil {
		h.logger.WarnContext(ctx, "invalid external page request",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	page, err := h.service.ListProfiilit(ctx, pageReq)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list external profiles",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, page)
}
