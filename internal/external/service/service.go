// Package service assembles pages of shared profiles for partners.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"yksilo/internal/external/models"
	yksilo "yksilo/internal/yksilo/models"
	"yksilo/pkg/domain"
	dErrors "yksilo/pkg/domain-errors"
	"yksilo/pkg/platform/audit"
	"yksilo/pkg/requestcontext"
)

// Store reads profiles that consented to sharing, ordered by id, and their
// goals and skills in batches.
type Store interface {
	CountShared(ctx context.Context) (int64, error)
	ListShared(ctx context.Context, offset, limit int) ([]yksilo.Yksilo, error)
	PaamaaratFor(ctx context.Context, ids []domain.YksiloID) (map[domain.YksiloID][]yksilo.Paamaara, error)
	OsaamisetFor(ctx context.Context, ids []domain.YksiloID) (map[domain.YksiloID][]yksilo.YksilonOsaaminen, error)
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
		tracer:    otel.Tracer("yksilo/external"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListProfiilit returns one page of shared profiles. req must already be
// validated against the configured maximum page size.
func (s *Service) ListProfiilit(ctx context.Context, req domain.PageRequest) (domain.Page[models.ExtProfiiliDto], error) {
	ctx, span := s.tracer.Start(ctx, "external.ListProfiilit", trace.WithAttributes(
		attribute.Int("page.sivu", req.Sivu),
		attribute.Int("page.koko", req.Koko),
	))
	defer span.End()

	total, err := s.store.CountShared(ctx)
	if err != nil {
		return domain.Page[models.ExtProfiiliDto]{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to count profiles")
	}
	var items []models.ExtProfiiliDto
	if offset := req.Offset(); offset >= 0 && int64(offset) < total {
		items, err = s.load(ctx, req)
		if err != nil {
			return domain.Page[models.ExtProfiiliDto]{}, err
		}
	}
	page, err := domain.Paginate(total, items, req)
	if err != nil {
		return domain.Page[models.ExtProfiiliDto]{}, err
	}

	event := audit.NewEvent(audit.EventExternalProfilesListed, requestcontext.Now(ctx))
	event.ActorID = requestcontext.Authority(ctx)
	event.Reason = fmt.Sprintf("sivu=%d koko=%d palautettu=%d", req.Sivu, req.Koko, len(page.Sisalto))
	event.IP = requestcontext.ClientIP(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "error", err)
	}
	return page, nil
}

func (s *Service) load(ctx context.Context, req domain.PageRequest) ([]models.ExtProfiiliDto, error) {
	profiles, err := s.store.ListShared(ctx, req.Offset(), req.Koko)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list profiles")
	}
	if len(profiles) == 0 {
		return nil, nil
	}
	ids := make([]domain.YksiloID, 0, len(profiles))
	for _, y := range profiles {
		ids = append(ids, y.ID)
	}
	paamaarat, err := s.store.PaamaaratFor(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load paamaarat")
	}
	osaamiset, err := s.store.OsaamisetFor(ctx, ids)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load osaamiset")
	}
	out := make([]models.ExtProfiiliDto, 0, len(profiles))
	for _, y := range profiles {
		out = append(out, models.NewExtProfiili(y, osaamiset[y.ID], paamaarat[y.ID]))
	}
	return out, nil
}
