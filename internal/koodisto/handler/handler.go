// Package handler exposes reference data over HTTP: public lookups under
// /api/koodisto and imports under /admin/koodisto.
package handler

import (
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"yksilo/internal/koodisto/importer"
	"yksilo/internal/koodisto/models"
	"yksilo/pkg/domain"
	dErrors "yksilo/pkg/domain-errors"
	"yksilo/pkg/platform/httputil"
	request "yksilo/pkg/platform/middleware/request"
)

const maxUploadBytes = 32 << 20

// Service defines the reference data operations used by the handlers.
type Service interface {
	FindByCode(ctx context.Context, koodisto, koodi string) (models.Koodi, bool)
	List(ctx context.Context, koodisto string, req domain.PageRequest) (domain.Page[models.Koodi], error)
	Import(ctx context.Context, koodisto string, rows []models.Row) (models.ImportSummary, error)
	Refresh(ctx context.Context) error
}

type Handler struct {
	service     Service
	maxPageSize int
	logger      *slog.Logger
}

func New(service Service, maxPageSize int, logger *slog.Logger) *Handler {
	return &Handler{service: service, maxPageSize: maxPageSize, logger: logger}
}

// RegisterPublic mounts the read routes.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/koodisto/{koodisto}", h.handleList)
	r.Get("/koodisto/{koodisto}/{koodi}", h.handleGet)
}

// RegisterAdmin mounts the import routes on an admin router.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/koodisto/refresh", h.handleRefresh)
	r.Post("/koodisto/{koodisto}", h.handleImport)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	koodisto := chi.URLParam(r, "koodisto")
	if err := models.ValidateKoodisto(koodisto); err != nil {
		httputil.WriteError(w, err)
		return
	}
	pageReq, err := httputil.ParsePageRequest(r, h.maxPageSize)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	page, err := h.service.List(ctx, koodisto, pageReq)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list koodisto",
			"request_id", request.GetRequestID(ctx),
			"koodisto", koodisto,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, domain.MapPage(page, models.ToDto))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	koodisto := chi.URLParam(r, "koodisto")
	koodi := chi.URLParam(r, "koodi")
	k, ok := h.service.FindByCode(ctx, koodisto, koodi)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "koodi not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.ToDto(k))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Refresh(ctx); err != nil {
		h.logger.ErrorContext(ctx, "koodisto refresh failed",
			"request_id", request.GetRequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := request.GetRequestID(ctx)
	koodisto := chi.URLParam(r, "koodisto")
	if err := models.ValidateKoodisto(koodisto); err != nil {
		httputil.WriteError(w, err)
		return
	}

	format, payload, err := readUpload(w, r)
	if err != nil {
		h.logger.WarnContext(ctx, "unreadable koodisto upload",
			"request_id", requestID,
			"koodisto", koodisto,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	rows, err := importer.Parse(format, payload)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	summary, err := h.service.Import(ctx, koodisto, rows)
	if err != nil {
		h.logger.WarnContext(ctx, "koodisto import rejected",
			"request_id", requestID,
			"koodisto", koodisto,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "koodisto imported",
		"request_id", requestID,
		"koodisto", koodisto,
		"koodit", summary.Koodit,
	)
	httputil.WriteJSON(w, http.StatusOK, summary)
}

// readUpload accepts either a multipart form with a "file" part or a raw
// CSV/XLSX body.
func readUpload(w http.ResponseWriter, r *http.Request) (importer.Format, []byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if strings.HasPrefix(mediaType, "multipart/") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "multipart upload must carry a file part")
		}
		defer func() { _ = file.Close() }()
		format, err := importer.DetectFormat(header.Header.Get("Content-Type"), header.Filename)
		if err != nil {
			return "", nil, err
		}
		payload, err := io.ReadAll(file)
		if err != nil {
			return "", nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read upload")
		}
		return format, payload, nil
	}

	format, err := importer.DetectFormat(mediaType, r.URL.Query().Get("filename"))
	if err != nil {
		return "", nil, err
	}
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read upload")
	}
	return format, payload, nil
}
