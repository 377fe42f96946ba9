package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openledger/backend/internal/domain/shared"
)

// BudgetState represents the approval lifecycle of a budget
type BudgetState string

const (
	BudgetStateDraft   BudgetState = "DRAFT"
	BudgetStateActive  BudgetState = "ACTIVE"
	BudgetStateRetired BudgetState = "RETIRED"
)

// IsValid checks if the budget state is valid
func (s BudgetState) IsValid() bool {
	return s == BudgetStateDraft || s == BudgetStateActive || s == BudgetStateRetired
}

// Budget is a tenant- and fiscal-year-scoped spending plan. Only one ACTIVE
// budget per fiscal year participates in impact checks; the most recently
// approved one wins when data contains several.
type Budget struct {
	shared.TenantAggregateRoot
	Name         string      `gorm:"type:varchar(200);not null"`
	FiscalYear   int         `gorm:"not null;index"`
	State        BudgetState `gorm:"type:varchar(10);not null;default:'DRAFT';index"`
	ApprovedByID *uuid.UUID  `gorm:"type:uuid"`
	ApprovedAt   *time.Time

	Revisions []BudgetRevision `gorm:"foreignKey:BudgetID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (Budget) TableName() string {
	return "budgets"
}

// NewBudget creates a draft budget for a fiscal year
func NewBudget(tenantID uuid.UUID, name string, fiscalYear int) (*Budget, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Budget name cannot be empty")
	}
	if fiscalYear < 1900 || fiscalYear > 9999 {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Fiscal year %d is out of range", fiscalYear))
	}
	return &Budget{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		FiscalYear:          fiscalYear,
		State:               BudgetStateDraft,
		Revisions:           make([]BudgetRevision, 0),
	}, nil
}

// Approve activates the budget
func (b *Budget) Approve(actorID uuid.UUID) error {
	if b.State != BudgetStateDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve a budget in %s state", b.State))
	}
	if len(b.Revisions) == 0 {
		return shared.NewDomainError("INVALID_STATE", "Cannot approve a budget without a revision")
	}
	now := time.Now()
	b.State = BudgetStateActive
	b.ApprovedByID = &actorID
	b.ApprovedAt = &now
	b.UpdatedAt = now
	b.IncrementVersion()
	return nil
}

// LatestRevision returns the revision with the highest revision number, or
// nil when the budget has none
func (b *Budget) LatestRevision() *BudgetRevision {
	var latest *BudgetRevision
	for i := range b.Revisions {
		if latest == nil || b.Revisions[i].RevisionNumber > latest.RevisionNumber {
			latest = &b.Revisions[i]
		}
	}
	return latest
}

// AddRevision appends a new revision numbered one past the latest
func (b *Budget) AddRevision(lines []BudgetLine) (*BudgetRevision, error) {
	if b.State == BudgetStateRetired {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot revise a retired budget")
	}
	next := 1
	if latest := b.LatestRevision(); latest != nil {
		next = latest.RevisionNumber + 1
	}
	rev := BudgetRevision{
		ID:             uuid.New(),
		BudgetID:       b.ID,
		RevisionNumber: next,
		CreatedAt:      time.Now(),
		Lines:          make([]BudgetLine, 0, len(lines)),
	}
	for _, line := range lines {
		if line.ID == uuid.Nil {
			line.ID = uuid.New()
		}
		line.RevisionID = rev.ID
		if line.Amount.IsNegative() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Budget line amounts cannot be negative")
		}
		rev.Lines = append(rev.Lines, line)
	}
	b.Revisions = append(b.Revisions, rev)
	b.UpdatedAt = time.Now()
	b.IncrementVersion()
	return &b.Revisions[len(b.Revisions)-1], nil
}

// BudgetRevision is an immutable snapshot of budget lines
type BudgetRevision struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	BudgetID       uuid.UUID `gorm:"type:uuid;not null;index"`
	RevisionNumber int       `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`

	Lines []BudgetLine `gorm:"foreignKey:RevisionID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (BudgetRevision) TableName() string {
	return "budget_revisions"
}

// BudgetLine binds an amount to an (account, period, optional dimensions)
// tuple. Lines with all optional dimensions empty act as the fallback bucket
// for their account and period.
type BudgetLine struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	RevisionID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	AccountID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	PeriodID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	LegalEntityID *uuid.UUID      `gorm:"type:uuid"`
	DepartmentID  *uuid.UUID      `gorm:"type:uuid"`
	ProjectID     *uuid.UUID      `gorm:"type:uuid"`
	FundID        *uuid.UUID      `gorm:"type:uuid"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (BudgetLine) TableName() string {
	return "budget_lines"
}

// matchesTuple reports whether the budget line binds exactly the given
// dimension tuple
func (bl *BudgetLine) matchesTuple(accountID, periodID uuid.UUID, legalEntityID, departmentID, projectID, fundID *uuid.UUID) bool {
	if bl.AccountID != accountID || bl.PeriodID != periodID {
		return false
	}
	return uuidPtrEqual(bl.LegalEntityID, legalEntityID) &&
		uuidPtrEqual(bl.DepartmentID, departmentID) &&
		uuidPtrEqual(bl.ProjectID, projectID) &&
		uuidPtrEqual(bl.FundID, fundID)
}

// isFallback reports whether all optional dimensions are empty
func (bl *BudgetLine) isFallback() bool {
	return bl.LegalEntityID == nil && bl.DepartmentID == nil && bl.ProjectID == nil && bl.FundID == nil
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
