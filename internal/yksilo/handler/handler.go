// Package handler exposes the signed-in individual's profile under
// /api/profiili. Routes expect the session middleware to have placed the
// profile id in the request context.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"yksilo/internal/feature"
	"yksilo/internal/yksilo/models"
	id "yksilo/pkg/domain"
	dErrors "yksilo/pkg/domain-errors"
	"yksilo/pkg/platform/httputil"
	request "yksilo/pkg/platform/middleware/request"
	"yksilo/pkg/requestcontext"
)

type Service interface {
	Get(ctx context.Context, yid id.YksiloID) (models.Yksilo, error)
	Update(ctx context.Context, yid id.YksiloID, req models.UpdateRequest) (models.Yksilo, error)
	Delete(ctx context.Context, yid id.YksiloID) error
	ListPaamaarat(ctx context.Context, yid id.YksiloID) ([]models.Paamaara, error)
	AddPaamaara(ctx context.Context, yid id.YksiloID, req models.AddPaamaaraRequest) (models.Paamaara, error)
	DeletePaamaara(ctx context.Context, yid id.YksiloID, pid id.PaamaaraID) error
	ListOsaamiset(ctx context.Context, yid id.YksiloID) ([]models.YksilonOsaaminen, error)
	AddOsaaminen(ctx context.Context, yid id.YksiloID, req models.AddOsaaminenRequest) (models.YksilonOsaaminen, error)
	DeleteOsaaminen(ctx context.Context, yid id.YksiloID, oid id.OsaaminenID) error
}

type Handler struct {
	service  Service
	features feature.Checker
	logger   *slog.Logger
}

func New(service Service, features feature.Checker, logger *slog.Logger) *Handler {
	return &Handler{service: service, features: features, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/profiili", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Put("/", h.handleUpdate)
		r.Delete("/", h.handleDelete)

		r.Route("/paamaarat", func(r chi.Router) {
			r.Use(feature.RequireFeature(h.features, feature.Paamaarat))
			r.Get("/", h.handleListPaamaarat)
			r.Post("/", h.handleAddPaamaara)
			r.Delete("/{id}", h.handleDeletePaamaara)
		})
		r.Route("/osaamiset", func(r chi.Router) {
			r.Use(feature.RequireFeature(h.features, feature.Osaamiset))
			r.Get("/", h.handleListOsaamiset)
			r.Post("/", h.handleAddOsaaminen)
			r.Delete("/{id}", h.handleDeleteOsaaminen)
		})
	})
}

// yksiloID reads the authenticated profile id, writing 401 when the session
// middleware did not run.
func yksiloID(w http.ResponseWriter, r *http.Request) (id.YksiloID, bool) {
	yid := requestcontext.YksiloID(r.Context())
	if yid.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "session required"))
		return id.YksiloID{}, false
	}
	return yid, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	status, _ := httputil.Classify(err)
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"request_id", request.GetRequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	yid, ok := yksiloID(w, r)
	if !ok {
		return
	}
	y, err := h.service.Get(r.Context(), yid)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToDto(y))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	yid, ok := yksiloID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.UpdateRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	y, err := h.service.Update(ctx, yid, *req)
	if err != nil {
		h.fail(ctx, w, "failed to update yksilo", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToDto(y))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	yid, ok := yksiloID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, yid); err != nil {
		h.fail(ctx, w, "failed to delete yksilo", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListPaamaarat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	yid, ok := yksiloID(w, r)
	if !ok {
		return
	}
	goals, err := h.service.ListPaamaarat(ctx, yid)
	if err != nil {
		h.fail(ctx, w, "failed to list paamaarat", err)
		return
	}
	out := make([]models.PaamaaraDto, 0, len(goals))
	for _, p := range goals {
		out = append(out, models.ToPaamaaraDto(p))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleAddPaamaara(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	yid, ok := yksiloID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.AddPaamaaraRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	p, err := h.service.AddPaamaara(ctx, yid, *req)
	if err != nil {
		h.fail(ctx, w, "failed to add paamaara", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.ToPaamaaraDto(p))
}

func (h *Handler) handleDeletePaamaara(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	yid, ok := yksiloID(w, r)
	if !ok {
		return
	}
	pid, err := id.ParsePaamaaraID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeletePaamaara(ctx, yid, pid); err != nil {
		h.fail(ctx, w, "failed to delete paamaara", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListOsaamiset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	yid, ok := yksiloID(w, r)
	if !ok {
		return
	}
	skills, err := h.service.ListOsaamiset(ctx, yid)
	if err != nil {
		h.fail(ctx, w, "failed to list osaamiset", err)
		return
	}
	out := make([]models.OsaaminenDto, 0, len(skills))
	for _, o := range skills {
		out = append(out, models.ToOsaaminenDto(o))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleAddOsaaminen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	yid, ok := yksiloID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[models.AddOsaaminenRequest](w, r, h.logger, ctx, request.GetRequestID(ctx))
	if !ok {
		return
	}
	o, err := h.service.AddOsaaminen(ctx, yid, *req)
	if err != nil {
		h.fail(ctx, w, "failed to add osaaminen", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.ToOsaaminenDto(o))
}

func (h *Handler) handleDeleteOsaaminen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	yid, ok := yksiloID(w, r)
	if !ok {
		return
	}
	oid, err := id.ParseOsaaminenID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteOsaaminen(ctx, yid, oid); err != nil {
		h.fail(ctx, w, "failed to delete osaaminen", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
