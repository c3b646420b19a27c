// Package handler exposes feature flags on the admin API.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"yksilo/internal/feature"
	dErrors "yksilo/pkg/domain-errors"
	"yksilo/pkg/platform/httputil"
	request "yksilo/pkg/platform/middleware/request"
)

// Service is the subset of *feature.Flags the admin API needs.
type Service interface {
	States(ctx context.Context) []feature.State
	Set(ctx context.Context, f feature.Feature, enabled bool) error
	Reset(ctx context.Context, f feature.Feature) error
}

type Handler struct {
	flags  Service
	logger *slog.Logger
}

func New(flags Service, logger *slog.Logger) *Handler {
	return &Handler{flags: flags, logger: logger}
}

// Register mounts the routes on an admin router that is already behind the
// admin token gate.
func (h *Handler) Register(r chi.Router) {
	r.Get("/features", h.handleList)
	r.Put("/features/{feature}", h.handleSet)
	r.Delete("/features/{feature}", h.handleReset)
}

type setRequest struct {
	Enabled *bool `json:"enabled"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.flags.States(r.Context()))
}

func (h *Handler) handleSet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)

	feat, err := feature.ParseFeature(chi.URLParam(r, "feature"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[setRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if req.Enabled == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "enabled is required"))
		return
	}
	if err := h.flags.Set(ctx, feat, *req.Enabled); err != nil {
		h.logger.ErrorContext(ctx, "failed to set feature override",
			"request_id", requestID,
			"feature", feat,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "feature override set",
		"request_id", requestID,
		"feature", feat,
		"enabled", *req.Enabled,
	)
	httputil.WriteJSON(w, http.StatusOK, h.flags.States(ctx))
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	feat, err := feature.ParseFeature(chi.URLParam(r, "feature"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.flags.Reset(ctx, feat); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
