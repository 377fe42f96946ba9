package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openledger/backend/internal/domain/shared"
)

// JournalListFilter defines the filterable attributes of journal list queries
type JournalListFilter struct {
	Status        *JournalStatus
	BudgetStatus  *BudgetStatus
	Type          *JournalType
	PeriodID      *uuid.UUID
	DateFrom      *time.Time
	DateTo        *time.Time
	AccountID     *uuid.UUID
	LegalEntityID *uuid.UUID
	DepartmentID  *uuid.UUID
	ProjectID     *uuid.UUID
	FundID        *uuid.UUID
	RiskScoreMin  *int
	RiskScoreMax  *int
	CreatedByID   *uuid.UUID
	PostedByID    *uuid.UUID
	Page          int
	PageSize      int
}

// TrialBalanceRow is one account's aggregated posted activity over a range
type TrialBalanceRow struct {
	AccountID   uuid.UUID       `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
}

// LedgerRow is one posted journal line in an account's ledger listing
type LedgerRow struct {
	JournalEntryID uuid.UUID       `json:"journal_entry_id"`
	JournalNumber  int64           `json:"journal_number"`
	JournalDate    time.Time       `json:"journal_date"`
	LineNumber     int             `json:"line_number"`
	Description    string          `json:"description"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
}

// JournalRepository persists journal entries together with their lines
type JournalRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*JournalEntry, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter JournalListFilter) ([]JournalEntry, int64, error)
	// Save persists the aggregate and its full line set
	Save(ctx context.Context, entry *JournalEntry) error
	// DeleteLines removes the current line set ahead of a full replacement
	DeleteLines(ctx context.Context, entryID uuid.UUID) error
	// ExistsNonRejectedReversal reports whether a REVERSING entry pointing at
	// the original exists in any status other than REJECTED
	ExistsNonRejectedReversal(ctx context.Context, tenantID, originalID uuid.UUID) (bool, error)
	// CountByStatusInDateRange counts entries of one status dated inside
	// [from, to], used by the period close gate
	CountByStatusInDateRange(ctx context.Context, tenantID uuid.UUID, status JournalStatus, from, to time.Time) (int64, error)
	// CountRecentWarnsByActor implements BudgetWarnCounter
	CountRecentWarnsByActor(ctx context.Context, tenantID, actorID, excludeJournalID uuid.UUID, since time.Time) (int64, error)
	// TrialBalance aggregates posted lines per account over a date range
	TrialBalance(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]TrialBalanceRow, error)
	// Ledger lists posted lines for one account, paged, oldest first
	Ledger(ctx context.Context, tenantID, accountID uuid.UUID, from, to time.Time, page, pageSize int) ([]LedgerRow, int64, error)
}

// PeriodRepository persists accounting periods and their checklist items
type PeriodRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*AccountingPeriod, error)
	FindByCodeForTenant(ctx context.Context, tenantID uuid.UUID, code string) (*AccountingPeriod, error)
	// FindByDateForTenant finds the period whose span contains the date
	FindByDateForTenant(ctx context.Context, tenantID uuid.UUID, date time.Time) (*AccountingPeriod, error)
	// FindLatestClosedOpeningForTenant resolves the cutover anchor
	FindLatestClosedOpeningForTenant(ctx context.Context, tenantID uuid.UUID) (*AccountingPeriod, error)
	// FindNextOpenForTenant finds the earliest OPEN period starting on or
	// after the date
	FindNextOpenForTenant(ctx context.Context, tenantID uuid.UUID, after time.Time) (*AccountingPeriod, error)
	// FindOverlappingForTenant finds any period intersecting [start, end]
	FindOverlappingForTenant(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (*AccountingPeriod, error)
	// FindOpeningForTenant returns the tenant's single OPENING period
	FindOpeningForTenant(ctx context.Context, tenantID uuid.UUID) (*AccountingPeriod, error)
	// ExistsLaterWithStatus reports whether a period starting after the date
	// has the given status, enforcing monotonic close/reopen order
	ExistsLaterWithStatus(ctx context.Context, tenantID uuid.UUID, after time.Time, status PeriodStatus) (bool, error)
	// ExistsEarlierWithStatus is the mirror check for reopening
	ExistsEarlierWithStatus(ctx context.Context, tenantID uuid.UUID, before time.Time, status PeriodStatus) (bool, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]AccountingPeriod, error)
	Save(ctx context.Context, period *AccountingPeriod) error
}

// BudgetRepository persists budgets with their revisions and lines
type BudgetRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Budget, error)
	// FindActiveForFiscalYear returns the most recently approved ACTIVE budget
	// for the fiscal year, revisions and lines loaded, or nil
	FindActiveForFiscalYear(ctx context.Context, tenantID uuid.UUID, fiscalYear int) (*Budget, error)
	Save(ctx context.Context, budget *Budget) error
}

// AccountRepository reads chart-of-accounts entries. Master-data writes happen
// outside this engine.
type AccountRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Account, error)
	FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Account, error)
	FindByCodeForTenant(ctx context.Context, tenantID uuid.UUID, code string) (*Account, error)
}

// DimensionRepository reads posting dimensions. Master-data writes happen
// outside this engine.
type DimensionRepository interface {
	FindLegalEntityForTenant(ctx context.Context, tenantID, id uuid.UUID) (*LegalEntity, error)
	FindDepartmentForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Department, error)
	FindProjectForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Project, error)
	FindFundForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Fund, error)
}

// OpeningBalanceRepository stages opening balances until they are posted
type OpeningBalanceRepository interface {
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]OpeningBalanceLine, error)
	// ReplaceForTenant atomically swaps the tenant's staged set
	ReplaceForTenant(ctx context.Context, tenantID uuid.UUID, lines []OpeningBalanceLine) error
	DeleteAllForTenant(ctx context.Context, tenantID uuid.UUID) error
}

// PermissionChecker is the external authorization collaborator
type PermissionChecker interface {
	HasPermission(ctx context.Context, actorID, tenantID uuid.UUID, code string) (bool, error)
}
