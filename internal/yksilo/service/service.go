// Package service owns the profile aggregate: the profile flags, its goals
// and its skills. Writes to goals and skills are refused while the matching
// feature is switched off.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"yksilo/internal/feature"
	mahdollisuus "yksilo/internal/mahdollisuus/models"
	"yksilo/internal/yksilo/models"
	"yksilo/internal/yksilo/store"
	id "yksilo/pkg/domain"
	dErrors "yksilo/pkg/domain-errors"
	"yksilo/pkg/platform/audit"
	"yksilo/pkg/platform/sentinel"
	"yksilo/pkg/requestcontext"
)

type Store interface {
	FindByID(ctx context.Context, yid id.YksiloID) (models.Yksilo, error)
	Save(ctx context.Context, y models.Yksilo) error
	Delete(ctx context.Context, yid id.YksiloID) error
	ListPaamaarat(ctx context.Context, yid id.YksiloID) ([]models.Paamaara, error)
	AddPaamaara(ctx context.Context, p models.Paamaara, limit int) error
	DeletePaamaara(ctx context.Context, yid id.YksiloID, pid id.PaamaaraID) error
	ListOsaamiset(ctx context.Context, yid id.YksiloID) ([]models.YksilonOsaaminen, error)
	AddOsaaminen(ctx context.Context, o models.YksilonOsaaminen) error
	DeleteOsaaminen(ctx context.Context, yid id.YksiloID, oid id.OsaaminenID) error
	// RunInTx runs fn so that every store call made with the context it
	// receives commits together, or not at all when fn fails.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Catalog tells whether a goal may point at a catalog entry.
type Catalog interface {
	Exists(ctx context.Context, tyyppi mahdollisuus.Tyyppi, mid id.MahdollisuusID) (bool, error)
}

type Service struct {
	store     Store
	catalog   Catalog
	features  feature.Checker
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

func New(store Store, catalog Catalog, features feature.Checker, opts ...Option) *Service {
	s := &Service{
		store:     store,
		catalog:   catalog,
		features:  features,
		publisher: audit.Nop{},
		logger:    slog.Default(),
		tracer:    otel.Tracer("yksilo/yksilo"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Get(ctx context.Context, yid id.YksiloID) (models.Yksilo, error) {
	y, err := s.store.FindByID(ctx, yid)
	if err != nil {
		return models.Yksilo{}, translate(err, "yksilo not found", "failed to load yksilo")
	}
	return y, nil
}

// Update applies the requested flags, creating the profile on first call.
// The write and its compliance events share one transaction: if the audit
// record cannot be written the profile change is rolled back.
func (s *Service) Update(ctx context.Context, yid id.YksiloID, req models.UpdateRequest) (models.Yksilo, error) {
	ctx, span := s.tracer.Start(ctx, "yksilo.Update")
	defer span.End()

	var updated models.Yksilo
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)
		existing, err := s.store.FindByID(ctx, yid)
		created := errors.Is(err, sentinel.ErrNotFound)
		if err != nil && !created {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load yksilo")
		}
		if created {
			existing = models.Yksilo{ID: yid, Luotu: now}
		}
		updated = req.Apply(existing)
		updated.Muokattu = now
		span.SetAttributes(attribute.Bool("yksilo.created", created))

		if err := s.store.Save(ctx, updated); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to save yksilo")
		}

		action := audit.EventProfileUpdated
		if created {
			action = audit.EventProfileCreated
		}
		if err := s.emit(ctx, action, yid, ""); err != nil {
			return err
		}
		switch {
		case updated.LupaLuovuttaaTiedotUlkopuoliselle && (created || !existing.LupaLuovuttaaTiedotUlkopuoliselle):
			return s.emit(ctx, audit.EventSharingGranted, yid, "")
		case !updated.LupaLuovuttaaTiedotUlkopuoliselle && !created && existing.LupaLuovuttaaTiedotUlkopuoliselle:
			return s.emit(ctx, audit.EventSharingRevoked, yid, "")
		}
		return nil
	})
	if err != nil {
		return models.Yksilo{}, asUnavailable(err, "failed to update yksilo")
	}
	return updated, nil
}

// Delete removes the profile with its goals and skills. The removal is rolled
// back when the compliance event cannot be recorded.
func (s *Service) Delete(ctx context.Context, yid id.YksiloID) error {
	ctx, span := s.tracer.Start(ctx, "yksilo.Delete")
	defer span.End()

	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Delete(ctx, yid); err != nil {
			return translate(err, "yksilo not found", "failed to delete yksilo")
		}
		return s.emit(ctx, audit.EventProfileDeleted, yid, "")
	})
	if err != nil {
		return asUnavailable(err, "failed to delete yksilo")
	}
	return nil
}

func (s *Service) ListPaamaarat(ctx context.Context, yid id.YksiloID) ([]models.Paamaara, error) {
	goals, err := s.store.ListPaamaarat(ctx, yid)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list paamaarat")
	}
	return goals, nil
}

// AddPaamaara adds a goal pointing at an active catalog entry of the named
// type.
func (s *Service) AddPaamaara(ctx context.Context, yid id.YksiloID, req models.AddPaamaaraRequest) (models.Paamaara, error) {
	if err := feature.Require(ctx, s.features, feature.Paamaarat); err != nil {
		return models.Paamaara{}, err
	}
	if err := req.Validate(); err != nil {
		return models.Paamaara{}, err
	}
	ok, err := s.catalog.Exists(ctx, req.MahdollisuusTyyppi, req.MahdollisuusID)
	if err != nil {
		return models.Paamaara{}, err
	}
	if !ok {
		return models.Paamaara{}, dErrors.WithDetails(dErrors.CodeValidation, "invalid paamaara",
			"mahdollisuusId: no such "+string(req.MahdollisuusTyyppi))
	}

	p := models.Paamaara{
		ID:                 id.NewPaamaaraID(),
		YksiloID:           yid,
		Tyyppi:             req.Tyyppi,
		MahdollisuusTyyppi: req.MahdollisuusTyyppi,
		MahdollisuusID:     req.MahdollisuusID,
		Tavoite:            req.Tavoite,
		Luotu:              requestcontext.Now(ctx),
	}
	if err := s.store.AddPaamaara(ctx, p, models.MaxPaamaarat); err != nil {
		if errors.Is(err, store.ErrPaamaaraLimit) {
			return models.Paamaara{}, dErrors.New(dErrors.CodeConflict, "paamaara limit reached")
		}
		return models.Paamaara{}, translate(err, "yksilo not found", "failed to add paamaara")
	}
	_ = s.emit(ctx, audit.EventPaamaaraAdded, yid, p.ID.String())
	return p, nil
}

func (s *Service) DeletePaamaara(ctx context.Context, yid id.YksiloID, pid id.PaamaaraID) error {
	if err := feature.Require(ctx, s.features, feature.Paamaarat); err != nil {
		return err
	}
	if err := s.store.DeletePaamaara(ctx, yid, pid); err != nil {
		return translate(err, "paamaara not found", "failed to delete paamaara")
	}
	_ = s.emit(ctx, audit.EventPaamaaraRemoved, yid, pid.String())
	return nil
}

func (s *Service) ListOsaamiset(ctx context.Context, yid id.YksiloID) ([]models.YksilonOsaaminen, error) {
	skills, err := s.store.ListOsaamiset(ctx, yid)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to list osaamiset")
	}
	return skills, nil
}

func (s *Service) AddOsaaminen(ctx context.Context, yid id.YksiloID, req models.AddOsaaminenRequest) (models.YksilonOsaaminen, error) {
	if err := feature.Require(ctx, s.features, feature.Osaamiset); err != nil {
		return models.YksilonOsaaminen{}, err
	}
	if err := req.Validate(); err != nil {
		return models.YksilonOsaaminen{}, err
	}
	o := models.YksilonOsaaminen{
		ID:        id.NewOsaaminenID(),
		YksiloID:  yid,
		Osaaminen: req.Osaaminen,
		Lahde:     req.Lahde,
		Luotu:     requestcontext.Now(ctx),
	}
	if err := s.store.AddOsaaminen(ctx, o); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return models.YksilonOsaaminen{}, dErrors.New(dErrors.CodeConflict, "osaaminen already added")
		}
		return models.YksilonOsaaminen{}, translate(err, "yksilo not found", "failed to add osaaminen")
	}
	_ = s.emit(ctx, audit.EventOsaaminenAdded, yid, o.ID.String())
	return o, nil
}

func (s *Service) DeleteOsaaminen(ctx context.Context, yid id.YksiloID, oid id.OsaaminenID) error {
	if err := feature.Require(ctx, s.features, feature.Osaamiset); err != nil {
		return err
	}
	if err := s.store.DeleteOsaaminen(ctx, yid, oid); err != nil {
		return translate(err, "osaaminen not found", "failed to delete osaaminen")
	}
	_ = s.emit(ctx, audit.EventOsaaminenRemoved, yid, oid.String())
	return nil
}

// emit publishes an audit event. Only compliance events report failure to
// the caller; the rest are logged and dropped.
func (s *Service) emit(ctx context.Context, action audit.AuditEvent, yid id.YksiloID, subject string) error {
	event := audit.NewEvent(action, requestcontext.Now(ctx))
	event.YksiloID = yid
	event.Subject = subject
	event.IP = requestcontext.ClientIP(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	err := s.publisher.Emit(ctx, event)
	if err == nil {
		return nil
	}
	s.logger.ErrorContext(ctx, "failed to emit audit event",
		"action", string(action),
		"error", err,
	)
	if event.Category == audit.CategoryCompliance {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to record audit event")
	}
	return nil
}

// asUnavailable keeps classified errors and treats anything else, such as a
// failed commit, as the store being unavailable.
func asUnavailable(err error, msg string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
}

func translate(err error, notFound, unavailable string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFound)
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, unavailable)
}
