// Package service maintains the opportunity catalog that goals point at.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"yksilo/internal/mahdollisuus/models"
	"yksilo/pkg/domain"
	dErrors "yksilo/pkg/domain-errors"
	"yksilo/pkg/platform/audit"
	"yksilo/pkg/platform/sentinel"
	"yksilo/pkg/requestcontext"
)

type Store interface {
	Upsert(ctx context.Context, items []models.Mahdollisuus) error
	FindByID(ctx context.Context, mid domain.MahdollisuusID) (models.Mahdollisuus, error)
	ListActive(ctx context.Context, tyyppi models.Tyyppi, offset, limit int) ([]models.Mahdollisuus, error)
	CountActive(ctx context.Context, tyyppi models.Tyyppi) (int64, error)
	Exists(ctx context.Context, tyyppi models.Tyyppi, mid domain.MahdollisuusID) (bool, error)
}

type Service struct {
	store     Store
	publisher audit.Publisher
	logger    *slog.Logger
	tracer    trace.Tracer
}

type Option func(*Service)

func WithPublisher(p audit.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		publisher: audit.Nop{},
		logger:    slog.Default(),
		tracer:    otel.Tracer("yksilo/mahdollisuus"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns an active entry of the given type. Inactive entries and entries
// of the other type are reported as not found.
func (s *Service) Get(ctx context.Context, tyyppi models.Tyyppi, mid domain.MahdollisuusID) (models.Mahdollisuus, error) {
	m, err := s.store.FindByID(ctx, mid)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.Mahdollisuus{}, dErrors.New(dErrors.CodeNotFound, "mahdollisuus not found")
		}
		return models.Mahdollisuus{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load mahdollisuus")
	}
	if !m.Aktiivinen || m.Tyyppi != tyyppi {
		return models.Mahdollisuus{}, dErrors.New(dErrors.CodeNotFound, "mahdollisuus not found")
	}
	return m, nil
}

// List pages the active entries of one type. req must already be validated;
// the count runs first so an empty catalog costs one query.
func (s *Service) List(ctx context.Context, tyyppi models.Tyyppi, req domain.PageRequest) (domain.Page[models.Mahdollisuus], error) {
	total, err := s.store.CountActive(ctx, tyyppi)
	if err != nil {
		return domain.Page[models.Mahdollisuus]{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to count mahdollisuudet")
	}
	var items []models.Mahdollisuus
	if offset := req.Offset(); offset >= 0 && int64(offset) < total {
		items, err = s.store.ListActive(ctx, tyyppi, offset, req.Koko)
		if err != nil {
			return domain.Page[models.Mahdollisuus]{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list mahdollisuudet")
		}
	}
	return domain.Paginate(total, items, req)
}

// Exists reports whether a goal may point at the entry.
func (s *Service) Exists(ctx context.Context, tyyppi models.Tyyppi, mid domain.MahdollisuusID) (bool, error) {
	ok, err := s.store.Exists(ctx, tyyppi, mid)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to check mahdollisuus")
	}
	return ok, nil
}

// Import upserts a validated batch. The batch is written as a whole or not
// at all.
func (s *Service) Import(ctx context.Context, batch models.UpsertBatch) (models.UpsertSummary, error) {
	ctx, span := s.tracer.Start(ctx, "mahdollisuus.Import", trace.WithAttributes(
		attribute.Int("items", len(batch)),
	))
	defer span.End()

	if err := batch.Validate(); err != nil {
		return models.UpsertSummary{}, err
	}
	items := batch.ToModels(requestcontext.Now(ctx))
	if err := s.store.Upsert(ctx, items); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upsert failed")
		if errors.Is(err, sentinel.ErrConflict) {
			return models.UpsertSummary{}, dErrors.Wrap(err, dErrors.CodeConflict, "mahdollisuus batch conflicts with stored data")
		}
		return models.UpsertSummary{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store mahdollisuudet")
	}

	event := audit.NewEvent(audit.EventMahdollisuudetImported, requestcontext.Now(ctx))
	event.Reason = fmt.Sprintf("%d items", len(items))
	event.ActorID = "admin"
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "error", err)
	}
	return models.UpsertSummary{Tallennettu: len(items)}, nil
}
