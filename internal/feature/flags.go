// Package feature resolves feature flags and gates operations on them.
//
// Defaults come from configuration and are fixed at startup. Operators can
// override a flag at runtime through the admin API; overrides live in Redis
// when it is configured so every instance agrees.
package feature

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	dErrors "yksilo/pkg/domain-errors"
	"yksilo/pkg/platform/audit"
	"yksilo/pkg/platform/circuit"
	"yksilo/pkg/requestcontext"
)

var disabledRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "yksilo_feature_disabled_rejections_total",
	Help: "Operations refused because their feature is disabled.",
}, []string{"feature"})

// OverrideStore persists runtime overrides.
type OverrideStore interface {
	Overrides(ctx context.Context) (map[Feature]bool, error)
	SetOverride(ctx context.Context, f Feature, enabled bool) error
	ClearOverride(ctx context.Context, f Feature) error
}

// Checker is what services depend on.
type Checker interface {
	Enabled(ctx context.Context, f Feature) bool
}

// Flags resolves a feature as its override if present, else its default.
type Flags struct {
	defaults  map[Feature]bool
	store     OverrideStore
	breaker   *circuit.Breaker
	publisher audit.Publisher
	logger    *slog.Logger
}

type Option func(*Flags)

func WithPublisher(p audit.Publisher) Option {
	return func(f *Flags) {
		f.publisher = p
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(f *Flags) {
		f.logger = logger
	}
}

// New builds flags from configuration defaults. Keys are parsed
// case-insensitively; unknown keys are an error so typos surface at startup.
// Features without a configured default are disabled.
func New(defaults map[string]bool, store OverrideStore, opts ...Option) (*Flags, error) {
	f := &Flags{
		defaults:  make(map[Feature]bool, len(all)),
		store:     store,
		breaker:   circuit.New("feature-overrides", circuit.WithFailureThreshold(3), circuit.WithSuccessThreshold(2)),
		publisher: audit.Nop{},
		logger:    slog.Default(),
	}
	for k, v := range defaults {
		feat, err := ParseFeature(k)
		if err != nil {
			return nil, err
		}
		f.defaults[feat] = v
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Enabled reports whether f is on. If the override store is unreachable the
// configured default applies.
func (f *Flags) Enabled(ctx context.Context, feat Feature) bool {
	overrides, err := f.overrides(ctx)
	if err != nil {
		return f.defaults[feat]
	}
	if v, ok := overrides[feat]; ok {
		return v
	}
	return f.defaults[feat]
}

func (f *Flags) overrides(ctx context.Context) (map[Feature]bool, error) {
	if f.store == nil {
		return nil, nil
	}
	overrides, err := f.store.Overrides(ctx)
	if err != nil {
		_, change := f.breaker.RecordFailure()
		if change.Opened {
			f.logger.ErrorContext(ctx, "feature override store circuit opened", "error", err)
		}
		f.logger.WarnContext(ctx, "feature overrides unavailable, using defaults",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		return nil, err
	}
	usePrimary, change := f.breaker.RecordSuccess()
	if change.Closed {
		f.logger.InfoContext(ctx, "feature override store circuit closed")
	}
	if !usePrimary {
		return nil, nil
	}
	return overrides, nil
}

// States lists every feature with its resolved state.
func (f *Flags) States(ctx context.Context) []State {
	overrides, _ := f.overrides(ctx)
	states := make([]State, 0, len(all))
	for _, feat := range all {
		v, overridden := overrides[feat]
		if !overridden {
			v = f.defaults[feat]
		}
		states = append(states, State{Feature: feat, Enabled: v, Overridden: overridden})
	}
	return states
}

// Set stores an override and records who changed it.
func (f *Flags) Set(ctx context.Context, feat Feature, enabled bool) error {
	if !feat.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown feature: "+string(feat))
	}
	if f.store == nil {
		return dErrors.New(dErrors.CodeUnavailable, "feature overrides are not configured")
	}
	if err := f.store.SetOverride(ctx, feat, enabled); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store feature override")
	}
	reason := "disabled"
	if enabled {
		reason = "enabled"
	}
	f.emitToggled(ctx, feat, reason)
	return nil
}

// Reset drops the override so the configured default applies again.
func (f *Flags) Reset(ctx context.Context, feat Feature) error {
	if !feat.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown feature: "+string(feat))
	}
	if f.store == nil {
		return nil
	}
	if err := f.store.ClearOverride(ctx, feat); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to clear feature override")
	}
	f.emitToggled(ctx, feat, "reset")
	return nil
}

func (f *Flags) emitToggled(ctx context.Context, feat Feature, reason string) {
	event := audit.NewEvent(audit.EventFeatureToggled, requestcontext.Now(ctx))
	event.Subject = string(feat)
	event.Reason = reason
	event.ActorID = "admin"
	event.RequestID = requestcontext.RequestID(ctx)
	if err := f.publisher.Emit(ctx, event); err != nil {
		f.logger.ErrorContext(ctx, "failed to emit audit event", "error", err)
	}
}

// Require is the precondition check for operations behind a feature. It
// returns CodeFeatureDisabled when feat is off.
func Require(ctx context.Context, checker Checker, feat Feature) error {
	if checker.Enabled(ctx, feat) {
		return nil
	}
	disabledRejections.WithLabelValues(string(feat)).Inc()
	return dErrors.New(dErrors.CodeFeatureDisabled, "feature "+string(feat)+" is disabled")
}
