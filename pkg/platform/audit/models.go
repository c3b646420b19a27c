package audit

import (
	"context"
	"time"

	id "yksilo/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so sinks can
// apply different retention and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal significance: profile
	// creation and deletion, consent to share data with partners.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers authentication gate rejections and admin changes.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity such as imports.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. It is
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	YksiloID  id.YksiloID   `json:"yksilo_id,omitzero"`
	Subject   string        `json:"subject,omitempty"`
	Action    string        `json:"action"`
	Reason    string        `json:"reason,omitempty"`
	IP        string        `json:"ip,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	// ActorID names who performed the action when it is not the individual,
	// e.g. "admin" for imports and feature toggles.
	ActorID string `json:"actor_id,omitempty"`
}

type AuditEvent string

const (
	// Profile events
	EventProfileCreated   AuditEvent = "profile_created"
	EventProfileUpdated   AuditEvent = "profile_updated"
	EventProfileDeleted   AuditEvent = "profile_deleted"
	EventSharingGranted   AuditEvent = "sharing_granted"
	EventSharingRevoked   AuditEvent = "sharing_revoked"
	EventPaamaaraAdded    AuditEvent = "paamaara_added"
	EventPaamaaraRemoved  AuditEvent = "paamaara_removed"
	EventOsaaminenAdded   AuditEvent = "osaaminen_added"
	EventOsaaminenRemoved AuditEvent = "osaaminen_removed"

	// Gate events
	EventExternalAPIRejected AuditEvent = "external_api_rejected"
	EventAdminTokenRejected  AuditEvent = "admin_token_rejected"
	EventSessionRejected     AuditEvent = "session_rejected"
	EventFeatureToggled      AuditEvent = "feature_toggled"

	// Data events
	EventKoodistoImported       AuditEvent = "koodisto_imported"
	EventMahdollisuudetImported AuditEvent = "mahdollisuudet_imported"
	EventExternalProfilesListed AuditEvent = "external_profiles_listed"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventProfileCreated: CategoryCompliance,
	EventProfileDeleted: CategoryCompliance,
	EventSharingGranted: CategoryCompliance,
	EventSharingRevoked: CategoryCompliance,

	EventExternalAPIRejected: CategorySecurity,
	EventAdminTokenRejected:  CategorySecurity,
	EventSessionRejected:     CategorySecurity,
	EventFeatureToggled:      CategorySecurity,

	EventProfileUpdated:         CategoryOperations,
	EventPaamaaraAdded:          CategoryOperations,
	EventPaamaaraRemoved:        CategoryOperations,
	EventOsaaminenAdded:         CategoryOperations,
	EventOsaaminenRemoved:       CategoryOperations,
	EventKoodistoImported:       CategoryOperations,
	EventMahdollisuudetImported: CategoryOperations,
	EventExternalProfilesListed: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// NewEvent builds an event for action with its category filled in.
func NewEvent(action AuditEvent, now time.Time) Event {
	return Event{
		Category:  action.Category(),
		Timestamp: now,
		Action:    string(action),
	}
}

// Store persists or forwards audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher is what domain services depend on.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Nop discards events. Used when no sink is configured.
type Nop struct{}

func (Nop) Emit(context.Context, Event) error { return nil }
