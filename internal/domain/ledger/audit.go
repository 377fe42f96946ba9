package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuditOutcome classifies an audit event
type AuditOutcome string

const (
	AuditOutcomeSuccess AuditOutcome = "SUCCESS"
	AuditOutcomeBlocked AuditOutcome = "BLOCKED"
	AuditOutcomeFailed  AuditOutcome = "FAILED"
)

// AuditEvent is one row in the append-only audit trail. Blocked control
// decisions (SoD, period gating, cutover) are always written before the
// error is raised to the caller.
type AuditEvent struct {
	ID         uuid.UUID      `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	EventType  string         `gorm:"type:varchar(60);not null;index"`
	EntityType string         `gorm:"type:varchar(40);not null"`
	EntityID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	ActorID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Outcome    AuditOutcome   `gorm:"type:varchar(10);not null"`
	Reason     string         `gorm:"type:varchar(1000)"`
	Metadata   map[string]any `gorm:"serializer:json"`
	RecordedAt time.Time      `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditEvent) TableName() string {
	return "audit_events"
}

// NewAuditEvent creates an audit event stamped with the current time
func NewAuditEvent(tenantID uuid.UUID, eventType, entityType string, entityID, actorID uuid.UUID, outcome AuditOutcome, reason string, metadata map[string]any) *AuditEvent {
	return &AuditEvent{
		ID:         uuid.New(),
		TenantID:   tenantID,
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   entityID,
		ActorID:    actorID,
		Outcome:    outcome,
		Reason:     reason,
		Metadata:   metadata,
		RecordedAt: time.Now(),
	}
}

// AuditSink appends events to the audit trail. Appends are best effort from
// the caller's perspective: a failed audit write is logged by the sink and
// must never mask the business error that triggered it.
type AuditSink interface {
	Append(ctx context.Context, event *AuditEvent) error
}
