// Package service serves reference data lookups from an in-memory snapshot
// and replaces code lists on admin import.
//
// Readers load the current snapshot through an atomic pointer and never see a
// partially built one. A refresh builds a complete new snapshot from the
// store and publishes it with a single pointer store; concurrent refresh
// requests share one load.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"yksilo/internal/koodisto/metrics"
	"yksilo/internal/koodisto/models"
	"yksilo/pkg/domain"
	dErrors "yksilo/pkg/domain-errors"
	"yksilo/pkg/platform/audit"
	"yksilo/pkg/requestcontext"
)

// Store persists reference data rows.
type Store interface {
	LoadAll(ctx context.Context) ([]models.Row, error)
	Replace(ctx context.Context, koodisto string, rows []models.Row) error
}

type Service struct {
	store     Store
	current   atomic.Pointer[snapshot]
	refreshes singleflight.Group
	kielet    []domain.Kieli
	metrics   *metrics.Metrics
	publisher audit.Publisher
	logger    *slog.Logger
	tracer    trace.Tracer
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

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

// WithKielet restricts imports to a subset of the supported languages.
func WithKielet(kielet []domain.Kieli) Option {
	return func(s *Service) {
		if len(kielet) > 0 {
			s.kielet = slices.Clone(kielet)
		}
	}
}

// New returns a service with an empty snapshot. Call Refresh to load data.
func New(store Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		kielet:    domain.Kielet(),
		publisher: audit.Nop{},
		logger:    slog.Default(),
		tracer:    otel.Tracer("yksilo/koodisto"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.current.Store(emptySnapshot())
	return s
}

// FindByCode returns the code, or false when the code list or the code is
// unknown. An unknown code is not an error.
func (s *Service) FindByCode(_ context.Context, koodisto, koodi string) (models.Koodi, bool) {
	snap := s.current.Load()
	k, ok := snap.find(koodisto, koodi)
	if snap.has(koodisto) {
		s.metrics.IncrementLookup(koodisto, ok)
	} else {
		s.metrics.IncrementLookup("unknown", false)
	}
	return k, ok
}

// List pages a code list in code order. An unknown code list is an empty
// listing. req must already be validated.
func (s *Service) List(_ context.Context, koodisto string, req domain.PageRequest) (domain.Page[models.Koodi], error) {
	all := s.current.Load().lists[koodisto]
	start := pageStart(req.Offset(), len(all))
	end := start + min(max(req.Koko, 0), len(all)-start)
	return domain.Paginate(int64(len(all)), slices.Clone(all[start:end]), req)
}

// pageStart maps an offset outside [0, n] to n, so a wrapped offset reads as
// past the end rather than as the first page.
func pageStart(offset, n int) int {
	if offset < 0 || offset > n {
		return n
	}
	return offset
}

// Koodistot lists the loaded code list names.
func (s *Service) Koodistot(_ context.Context) []string {
	return slices.Clone(s.current.Load().names)
}

// Refresh reloads every code list from the store. Concurrent callers share a
// single load. On failure the previous snapshot stays published.
func (s *Service) Refresh(ctx context.Context) error {
	ch := s.refreshes.DoChan("refresh", func() (any, error) {
		return nil, s.refresh(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "koodisto refresh interrupted")
	}
}

func (s *Service) refresh(ctx context.Context) (err error) {
	ctx, span := s.tracer.Start(ctx, "koodisto.Refresh")
	start := time.Now()
	size := 0
	defer func() {
		s.metrics.ObserveRefresh(err, time.Since(start), size)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "refresh failed")
		}
		span.End()
	}()

	rows, err := s.store.LoadAll(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to load reference data")
	}
	koodit, err := models.Group(rows)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "stored reference data is invalid")
	}
	snap := newSnapshot(koodit)
	s.current.Store(snap)
	size = snap.size
	span.SetAttributes(attribute.Int("koodisto.entries", size))
	s.logger.InfoContext(ctx, "reference data snapshot published",
		"koodistot", len(snap.names),
		"entries", size,
	)
	return nil
}

// Run refreshes every interval until ctx is done. Failures are logged and the
// previous snapshot is kept.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.ErrorContext(ctx, "periodic koodisto refresh failed", "error", err)
			}
		}
	}
}

// Import validates rows and replaces the named code list with them, then
// publishes a fresh snapshot. Rows are all-or-nothing: any invalid row fails
// the import before the store is touched.
func (s *Service) Import(ctx context.Context, koodisto string, rows []models.Row) (models.ImportSummary, error) {
	ctx, span := s.tracer.Start(ctx, "koodisto.Import", trace.WithAttributes(
		attribute.String("koodisto", koodisto),
		attribute.Int("rows", len(rows)),
	))
	defer span.End()

	if err := models.ValidateKoodisto(koodisto); err != nil {
		return models.ImportSummary{}, err
	}
	if err := s.validateRows(koodisto, rows); err != nil {
		return models.ImportSummary{}, err
	}
	rows = slices.Clone(rows)
	for i := range rows {
		rows[i].Koodisto = koodisto
	}
	koodit, err := models.Group(rows)
	if err != nil {
		return models.ImportSummary{}, err
	}

	if err := s.store.Replace(ctx, koodisto, rows); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "replace failed")
		return models.ImportSummary{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store reference data")
	}
	if err := s.Refresh(ctx); err != nil {
		return models.ImportSummary{}, err
	}

	summary := models.ImportSummary{Koodisto: koodisto, Koodit: len(koodit), Rivit: len(rows)}
	event := audit.NewEvent(audit.EventKoodistoImported, requestcontext.Now(ctx))
	event.Subject = koodisto
	event.Reason = fmt.Sprintf("%d codes", summary.Koodit)
	event.ActorID = "admin"
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "error", err)
	}
	return summary, nil
}

func (s *Service) validateRows(koodisto string, rows []models.Row) error {
	if len(rows) == 0 {
		return dErrors.New(dErrors.CodeValidation, "import contains no rows")
	}
	type key struct {
		koodi string
		kieli domain.Kieli
	}
	seen := make(map[key]int, len(rows))
	var details []string
	for i, row := range rows {
		line := i + 1
		switch {
		case row.Koodisto != "" && row.Koodisto != koodisto:
			details = append(details, fmt.Sprintf("row %d: belongs to koodisto %q", line, row.Koodisto))
		case row.Koodi == "":
			details = append(details, fmt.Sprintf("row %d: koodi is required", line))
		case !slices.Contains(s.kielet, row.Kieli):
			details = append(details, fmt.Sprintf("row %d: unsupported kieli %q", line, row.Kieli))
		case row.Nimi == "":
			details = append(details, fmt.Sprintf("row %d: nimi is required", line))
		default:
			k := key{row.Koodi, row.Kieli}
			if first, dup := seen[k]; dup {
				details = append(details, fmt.Sprintf("row %d: duplicates row %d", line, first))
			} else {
				seen[k] = line
			}
		}
	}
	if len(details) > 0 {
		return dErrors.WithDetails(dErrors.CodeValidation, "invalid koodisto import", details...)
	}
	return nil
}
