package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventCategory classifies audit events by their primary purpose.
// Categories drive routing: each maps to its own Kafka topic.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance:
	// verification outcomes and raw-document purges. Written fail-closed.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers integrity findings and other forensic signals.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity; can be sampled.
	CategoryOperations EventCategory = "operations"
)

type AuditEvent string

const (
	EventVerificationSubmitted AuditEvent = "verification_submitted"
	EventVerificationCompleted AuditEvent = "verification_completed"
	EventIntegrityVerified     AuditEvent = "integrity_verified"
	EventIntegrityMismatch     AuditEvent = "integrity_mismatch"
	EventRetentionPurged       AuditEvent = "retention_purged"
	EventRevalidationAlert     AuditEvent = "revalidation_alert"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventVerificationCompleted: CategoryCompliance,
	EventRetentionPurged:       CategoryCompliance,

	EventIntegrityMismatch: CategorySecurity,

	EventVerificationSubmitted: CategoryOperations,
	EventIntegrityVerified:     CategoryOperations,
	EventRevalidationAlert:     CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Severity levels for security events.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Event is the stored and relayed shape of every audit record. Category is
// always derived from Action.
type Event struct {
	ID             uuid.UUID
	Category       EventCategory
	Timestamp      time.Time
	Action         string
	AccountID      string
	VerificationID string
	ApplicationID  string
	Subject        string
	Decision       string
	Reason         string
	Severity       Severity
	IP             string
	RequestID      string
	ActorID        string
}

// Store persists audit events. The postgres implementation writes to the
// outbox table and joins the caller's transaction when one is in context.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// -----------------------------------------------------------------------------
// Right-sized event types for the three publishers
// -----------------------------------------------------------------------------

// ComplianceEvent captures regulatory-significant actions requiring guaranteed persistence.
type ComplianceEvent struct {
	Timestamp      time.Time
	AccountID      string // required
	VerificationID string
	ApplicationID  string
	Action         AuditEvent // required
	Decision       string     // e.g. overall status or "purged"
	Reason         string
	RequestID      string
	ActorID        string
}

func (e ComplianceEvent) Category() EventCategory { return CategoryCompliance }

func (e ComplianceEvent) ToEvent() Event {
	return Event{
		Category:       CategoryCompliance,
		Timestamp:      e.Timestamp,
		Action:         string(e.Action),
		AccountID:      e.AccountID,
		VerificationID: e.VerificationID,
		ApplicationID:  e.ApplicationID,
		Subject:        e.VerificationID,
		Decision:       e.Decision,
		Reason:         e.Reason,
		RequestID:      e.RequestID,
		ActorID:        e.ActorID,
	}
}

// SecurityEvent captures security-relevant findings for SIEM and alerting.
// Emitted asynchronously through a bounded buffer.
type SecurityEvent struct {
	Timestamp      time.Time
	VerificationID string
	ApplicationID  string
	Subject        string // e.g. the slot whose hash diverged
	Action         AuditEvent
	Reason         string
	IP             string
	RequestID      string
	ActorID        string
	Severity       Severity
}

func (e SecurityEvent) Category() EventCategory { return CategorySecurity }

func (e SecurityEvent) ToEvent() Event {
	return Event{
		Category:       CategorySecurity,
		Timestamp:      e.Timestamp,
		Action:         string(e.Action),
		VerificationID: e.VerificationID,
		ApplicationID:  e.ApplicationID,
		Subject:        e.Subject,
		Reason:         e.Reason,
		Severity:       e.Severity,
		IP:             e.IP,
		RequestID:      e.RequestID,
		ActorID:        e.ActorID,
	}
}

// OpsEvent captures operational events with minimal overhead.
type OpsEvent struct {
	Timestamp time.Time
	AccountID string
	Subject   string
	Action    AuditEvent
	Reason    string
	RequestID string
}

func (e OpsEvent) Category() EventCategory { return CategoryOperations }

func (e OpsEvent) ToEvent() Event {
	return Event{
		Category:  CategoryOperations,
		Timestamp: e.Timestamp,
		Action:    string(e.Action),
		AccountID: e.AccountID,
		Subject:   e.Subject,
		Reason:    e.Reason,
		RequestID: e.RequestID,
	}
}
