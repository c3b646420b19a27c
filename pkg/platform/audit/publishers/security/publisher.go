// Package security provides a non-blocking audit publisher for gate
// rejections and admin changes. Emit never blocks the request path; events are
// buffered and flushed to the store in the background. Under sustained
// overload the oldest events are dropped and counted.
package security

import (
	"context"
	"log/slog"
	"time"

	audit "yksilo/pkg/platform/audit"
)

const (
	defaultFlushInterval = time.Second
	defaultBatchSize     = 100
)

type Publisher struct {
	store         audit.Store
	queue         *eventQueue
	logger        *slog.Logger
	flushInterval time.Duration
	batchSize     int
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithFlushInterval(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.flushInterval = d
		}
	}
}

func WithCapacity(n int) Option {
	return func(p *Publisher) { p.queue = newEventQueue(n) }
}

func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:         store,
		queue:         newEventQueue(0),
		flushInterval: defaultFlushInterval,
		batchSize:     defaultBatchSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit buffers event. It only fails on a cancelled context.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = audit.AuditEvent(event.Action).Category()
	}
	p.queue.push(event)
	return nil
}

// Run flushes buffered events until ctx is cancelled, then drains what is
// left with a fresh context.
func (p *Publisher) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.Flush(ctx)
		case <-ctx.Done():
			p.Flush(context.WithoutCancel(ctx))
			return ctx.Err()
		}
	}
}

// Flush writes all buffered events to the store. Events that fail to persist
// are logged and dropped.
func (p *Publisher) Flush(ctx context.Context) {
	for {
		batch := p.queue.pop(p.batchSize)
		if len(batch) == 0 {
			return
		}
		for _, event := range batch {
			if err := p.store.Append(ctx, event); err != nil && p.logger != nil {
				p.logger.WarnContext(ctx, "security audit event dropped",
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}

// Dropped reports events discarded because the buffer was full.
func (p *Publisher) Dropped() int64 {
	return p.queue.droppedCount()
}
