package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openledger/backend/internal/domain/shared"
)

// JournalCreatedEvent is raised when a journal entry is created in DRAFT
type JournalCreatedEvent struct {
	shared.BaseDomainEvent
	JournalID   uuid.UUID       `json:"journal_id"`
	JournalType JournalType     `json:"journal_type"`
	JournalDate time.Time       `json:"journal_date"`
	CreatedByID uuid.UUID       `json:"created_by_id"`
	LineCount   int             `json:"line_count"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
}

// EventType returns the event type name
func (e *JournalCreatedEvent) EventType() string {
	return "JournalCreated"
}

// NewJournalCreatedEvent creates a new JournalCreatedEvent
func NewJournalCreatedEvent(je *JournalEntry) *JournalCreatedEvent {
	return &JournalCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("JournalCreated", "JournalEntry", je.ID, je.TenantID),
		JournalID:       je.ID,
		JournalType:     je.Type,
		JournalDate:     je.JournalDate,
		CreatedByID:     je.CreatedByID,
		LineCount:       len(je.Lines),
		TotalDebit:      je.TotalDebit(),
	}
}

// JournalSubmittedEvent is raised when a journal enters SUBMITTED
type JournalSubmittedEvent struct {
	shared.BaseDomainEvent
	JournalID     uuid.UUID    `json:"journal_id"`
	SubmittedByID uuid.UUID    `json:"submitted_by_id"`
	RiskScore     int          `json:"risk_score"`
	BudgetStatus  BudgetStatus `json:"budget_status"`
}

// EventType returns the event type name
func (e *JournalSubmittedEvent) EventType() string {
	return "JournalSubmitted"
}

// NewJournalSubmittedEvent creates a new JournalSubmittedEvent
func NewJournalSubmittedEvent(je *JournalEntry, actorID uuid.UUID) *JournalSubmittedEvent {
	return &JournalSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("JournalSubmitted", "JournalEntry", je.ID, je.TenantID),
		JournalID:       je.ID,
		SubmittedByID:   actorID,
		RiskScore:       je.RiskScore,
		BudgetStatus:    je.BudgetStatus,
	}
}

// JournalReviewedEvent is raised when a journal is approved into REVIEWED
type JournalReviewedEvent struct {
	shared.BaseDomainEvent
	JournalID    uuid.UUID `json:"journal_id"`
	ReviewedByID uuid.UUID `json:"reviewed_by_id"`
	RiskScore    int       `json:"risk_score"`
}

// EventType returns the event type name
func (e *JournalReviewedEvent) EventType() string {
	return "JournalReviewed"
}

// NewJournalReviewedEvent creates a new JournalReviewedEvent
func NewJournalReviewedEvent(je *JournalEntry, actorID uuid.UUID) *JournalReviewedEvent {
	return &JournalReviewedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("JournalReviewed", "JournalEntry", je.ID, je.TenantID),
		JournalID:       je.ID,
		ReviewedByID:    actorID,
		RiskScore:       je.RiskScore,
	}
}

// JournalRejectedEvent is raised when a reviewer rejects a submission
type JournalRejectedEvent struct {
	shared.BaseDomainEvent
	JournalID    uuid.UUID `json:"journal_id"`
	RejectedByID uuid.UUID `json:"rejected_by_id"`
	Reason       string    `json:"reason"`
}

// EventType returns the event type name
func (e *JournalRejectedEvent) EventType() string {
	return "JournalRejected"
}

// NewJournalRejectedEvent creates a new JournalRejectedEvent
func NewJournalRejectedEvent(je *JournalEntry, actorID uuid.UUID, reason string) *JournalRejectedEvent {
	return &JournalRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("JournalRejected", "JournalEntry", je.ID, je.TenantID),
		JournalID:       je.ID,
		RejectedByID:    actorID,
		Reason:          reason,
	}
}

// JournalReturnedEvent is raised when a poster sends a reviewed journal back
type JournalReturnedEvent struct {
	shared.BaseDomainEvent
	JournalID    uuid.UUID `json:"journal_id"`
	ReturnedByID uuid.UUID `json:"returned_by_id"`
	Reason       string    `json:"reason"`
}

// EventType returns the event type name
func (e *JournalReturnedEvent) EventType() string {
	return "JournalReturned"
}

// NewJournalReturnedEvent creates a new JournalReturnedEvent
func NewJournalReturnedEvent(je *JournalEntry, actorID uuid.UUID, reason string) *JournalReturnedEvent {
	return &JournalReturnedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("JournalReturned", "JournalEntry", je.ID, je.TenantID),
		JournalID:       je.ID,
		ReturnedByID:    actorID,
		Reason:          reason,
	}
}

// JournalPostedEvent is raised when a journal is posted with its number
type JournalPostedEvent struct {
	shared.BaseDomainEvent
	JournalID     uuid.UUID       `json:"journal_id"`
	JournalNumber int64           `json:"journal_number"`
	PeriodID      uuid.UUID       `json:"period_id"`
	PostedByID    uuid.UUID       `json:"posted_by_id"`
	TotalDebit    decimal.Decimal `json:"total_debit"`
	RiskScore     int             `json:"risk_score"`
}

// EventType returns the event type name
func (e *JournalPostedEvent) EventType() string {
	return "JournalPosted"
}

// NewJournalPostedEvent creates a new JournalPostedEvent
func NewJournalPostedEvent(je *JournalEntry, actorID uuid.UUID) *JournalPostedEvent {
	var number int64
	if je.JournalNumber != nil {
		number = *je.JournalNumber
	}
	var periodID uuid.UUID
	if je.PeriodID != nil {
		periodID = *je.PeriodID
	}
	return &JournalPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("JournalPosted", "JournalEntry", je.ID, je.TenantID),
		JournalID:       je.ID,
		JournalNumber:   number,
		PeriodID:        periodID,
		PostedByID:      actorID,
		TotalDebit:      je.TotalDebit(),
		RiskScore:       je.RiskScore,
	}
}

// JournalParkedEvent is raised when a balanced draft is parked
type JournalParkedEvent struct {
	shared.BaseDomainEvent
	JournalID  uuid.UUID `json:"journal_id"`
	ParkedByID uuid.UUID `json:"parked_by_id"`
}

// EventType returns the event type name
func (e *JournalParkedEvent) EventType() string {
	return "JournalParked"
}

// NewJournalParkedEvent creates a new JournalParkedEvent
func NewJournalParkedEvent(je *JournalEntry, actorID uuid.UUID) *JournalParkedEvent {
	return &JournalParkedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("JournalParked", "JournalEntry", je.ID, je.TenantID),
		JournalID:       je.ID,
		ParkedByID:      actorID,
	}
}

// JournalReversalInitiatedEvent is raised on the new REVERSING entry when a
// posted journal is reversed
type JournalReversalInitiatedEvent struct {
	shared.BaseDomainEvent
	ReversalID    uuid.UUID `json:"reversal_id"`
	OriginalID    uuid.UUID `json:"original_id"`
	InitiatedByID uuid.UUID `json:"initiated_by_id"`
}

// EventType returns the event type name
func (e *JournalReversalInitiatedEvent) EventType() string {
	return "JournalReversalInitiated"
}

// NewJournalReversalInitiatedEvent creates a new JournalReversalInitiatedEvent
func NewJournalReversalInitiatedEvent(reversal, original *JournalEntry, initiatorID uuid.UUID) *JournalReversalInitiatedEvent {
	return &JournalReversalInitiatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent("JournalReversalInitiated", "JournalEntry", reversal.ID, reversal.TenantID),
		ReversalID:      reversal.ID,
		OriginalID:      original.ID,
		InitiatedByID:   initiatorID,
	}
}
