// Package compliance provides a fail-closed audit publisher.
//
// Events are written synchronously and the caller blocks until the write
// succeeds. If the write fails an error is returned and the calling operation
// must fail. Use for profile creation/deletion and sharing consent changes.
package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	audit "yksilo/pkg/platform/audit"
)

type Publisher struct {
	store  audit.Store
	logger *slog.Logger
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit synchronously writes event. Compliance events must identify the
// affected individual.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.YksiloID.IsNil() {
		return fmt.Errorf("compliance event requires YksiloID")
	}
	if event.Action == "" {
		return fmt.Errorf("compliance event requires Action")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}

	if err := p.store.Append(ctx, event); err != nil {
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "compliance audit failed",
				"action", event.Action,
				"yksilo_id", event.YksiloID,
				"error", err,
			)
		}
		return fmt.Errorf("compliance audit persistence failed: %w", err)
	}
	return nil
}
