package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openledger/backend/internal/domain/shared"
)

// PeriodType distinguishes the one-off opening-balance period from normal
// calendar-month periods
type PeriodType string

const (
	PeriodTypeOpening PeriodType = "OPENING"
	PeriodTypeNormal  PeriodType = "NORMAL"
)

// IsValid checks if the period type is valid
func (t PeriodType) IsValid() bool {
	return t == PeriodTypeOpening || t == PeriodTypeNormal
}

// PeriodStatus represents the gating state of an accounting period
type PeriodStatus string

const (
	PeriodStatusOpen       PeriodStatus = "OPEN"
	PeriodStatusClosed     PeriodStatus = "CLOSED"
	PeriodStatusSoftClosed PeriodStatus = "SOFT_CLOSED"
)

// IsValid checks if the period status is valid
func (s PeriodStatus) IsValid() bool {
	return s == PeriodStatusOpen || s == PeriodStatusClosed || s == PeriodStatusSoftClosed
}

// String returns the string representation
func (s PeriodStatus) String() string {
	return string(s)
}

// PeriodChecklistItem is a close-procedure task that must be completed before
// the period may close. The completer's identity feeds the close-approval
// segregation rule.
type PeriodChecklistItem struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key"`
	PeriodID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	Code          string     `gorm:"type:varchar(50);not null"`
	Description   string     `gorm:"type:varchar(500)"`
	Required      bool       `gorm:"not null;default:true"`
	CompletedByID *uuid.UUID `gorm:"type:uuid"`
	CompletedAt   *time.Time
}

// TableName returns the table name for GORM
func (PeriodChecklistItem) TableName() string {
	return "period_checklist_items"
}

// IsComplete returns true once the item has been signed off
func (i *PeriodChecklistItem) IsComplete() bool {
	return i.CompletedByID != nil && i.CompletedAt != nil
}

// AccountingPeriod is a tenant-scoped posting window. Exactly one OPENING
// period exists per tenant, chronologically first; NORMAL periods never
// overlap and never start before the OPENING period.
type AccountingPeriod struct {
	shared.TenantAggregateRoot
	Code       string       `gorm:"type:varchar(20);not null;uniqueIndex:idx_period_tenant_code,priority:2"`
	Type       PeriodType   `gorm:"type:varchar(10);not null"`
	Status     PeriodStatus `gorm:"type:varchar(15);not null;default:'OPEN';index"`
	StartDate  time.Time    `gorm:"type:date;not null;index"`
	EndDate    time.Time    `gorm:"type:date;not null;index"`
	ClosedByID *uuid.UUID   `gorm:"type:uuid"`
	ClosedAt   *time.Time

	ChecklistItems []PeriodChecklistItem `gorm:"foreignKey:PeriodID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (AccountingPeriod) TableName() string {
	return "accounting_periods"
}

// NewAccountingPeriod creates an OPEN period spanning [startDate, endDate]
func NewAccountingPeriod(tenantID uuid.UUID, code string, periodType PeriodType, startDate, endDate time.Time) (*AccountingPeriod, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_PERIOD_CODE", "Period code cannot be empty")
	}
	if !periodType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PERIOD_TYPE", fmt.Sprintf("Period type %q is not valid", periodType))
	}
	if startDate.IsZero() || endDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_PERIOD_SPAN", "Period start and end dates are required")
	}
	if endDate.Before(startDate) {
		return nil, shared.NewDomainError("INVALID_PERIOD_SPAN", "Period end date cannot precede start date")
	}
	if periodType == PeriodTypeOpening && !sameDay(startDate, endDate) {
		return nil, shared.NewDomainError("INVALID_PERIOD_SPAN", "An OPENING period spans exactly one day")
	}

	return &AccountingPeriod{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Type:                periodType,
		Status:              PeriodStatusOpen,
		StartDate:           startDate,
		EndDate:             endDate,
		ChecklistItems:      make([]PeriodChecklistItem, 0),
	}, nil
}

func sameDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

// Contains reports whether the calendar day of date falls inside the period span
func (p *AccountingPeriod) Contains(date time.Time) bool {
	d := date.Format("2006-01-02")
	return d >= p.StartDate.Format("2006-01-02") && d <= p.EndDate.Format("2006-01-02")
}

// IsOpen returns true if postings are accepted
func (p *AccountingPeriod) IsOpen() bool {
	return p.Status == PeriodStatusOpen
}

// AddChecklistItem registers a close-procedure task on an open period
func (p *AccountingPeriod) AddChecklistItem(code, description string, required bool) (*PeriodChecklistItem, error) {
	if p.Status == PeriodStatusClosed {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add checklist items to a closed period")
	}
	if code == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Checklist item code is required")
	}
	for _, item := range p.ChecklistItems {
		if item.Code == code {
			return nil, shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Checklist item %s already exists", code))
		}
	}
	item := PeriodChecklistItem{
		ID:          uuid.New(),
		PeriodID:    p.ID,
		Code:        code,
		Description: description,
		Required:    required,
	}
	p.ChecklistItems = append(p.ChecklistItems, item)
	p.UpdatedAt = time.Now()
	return &p.ChecklistItems[len(p.ChecklistItems)-1], nil
}

// CompleteChecklistItem signs off a checklist item exactly once
func (p *AccountingPeriod) CompleteChecklistItem(code string, actorID uuid.UUID) error {
	if p.Status == PeriodStatusClosed {
		return shared.NewDomainError("INVALID_STATE", "Cannot complete checklist items on a closed period")
	}
	for i := range p.ChecklistItems {
		item := &p.ChecklistItems[i]
		if item.Code != code {
			continue
		}
		if item.IsComplete() {
			return shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Checklist item %s is already complete", code))
		}
		now := time.Now()
		item.CompletedByID = &actorID
		item.CompletedAt = &now
		p.UpdatedAt = now
		p.IncrementVersion()
		return nil
	}
	return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Checklist item %s not found", code))
}

// ChecklistCompleters returns the distinct users who completed any required
// checklist item, the participant set for the close-approval SoD rule
func (p *AccountingPeriod) ChecklistCompleters() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	completers := make([]uuid.UUID, 0)
	for _, item := range p.ChecklistItems {
		if !item.Required || !item.IsComplete() {
			continue
		}
		if _, ok := seen[*item.CompletedByID]; ok {
			continue
		}
		seen[*item.CompletedByID] = struct{}{}
		completers = append(completers, *item.CompletedByID)
	}
	return completers
}

// requiredChecklistIncomplete lists required items not yet signed off
func (p *AccountingPeriod) requiredChecklistIncomplete() []string {
	missing := make([]string, 0)
	for _, item := range p.ChecklistItems {
		if item.Required && !item.IsComplete() {
			missing = append(missing, item.Code)
		}
	}
	return missing
}

// Close transitions the period to CLOSED. All required checklist items must be
// complete. Cross-period ordering and open-journal checks are enforced by the
// period service, which can see sibling periods and journals.
func (p *AccountingPeriod) Close(actorID uuid.UUID) error {
	if p.Status == PeriodStatusClosed {
		return shared.NewDomainError("INVALID_STATE", "Period is already closed")
	}
	if missing := p.requiredChecklistIncomplete(); len(missing) > 0 {
		return shared.NewDomainErrorWithDetails(ErrCodeChecklistIncomplete,
			"Required checklist items are incomplete",
			map[string]any{"incomplete_items": missing})
	}

	now := time.Now()
	p.Status = PeriodStatusClosed
	p.ClosedByID = &actorID
	p.ClosedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()
	return nil
}

// SoftClose restricts a period without fully closing it
func (p *AccountingPeriod) SoftClose() error {
	if p.Status != PeriodStatusOpen {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot soft-close a period in %s status", p.Status))
	}
	p.Status = PeriodStatusSoftClosed
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// Reopen transitions a CLOSED or SOFT_CLOSED period back to OPEN. The period
// service enforces that no earlier period is still closed after this one.
func (p *AccountingPeriod) Reopen() error {
	if p.Status == PeriodStatusOpen {
		return shared.NewDomainError("INVALID_STATE", "Period is already open")
	}
	p.Status = PeriodStatusOpen
	p.ClosedByID = nil
	p.ClosedAt = nil
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}
