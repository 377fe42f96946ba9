package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/openledger/backend/internal/domain/ledger"
	"github.com/openledger/backend/internal/domain/shared"
)

// MockJournalRepository is a mock implementation of ledger.JournalRepository
type MockJournalRepository struct {
	mock.Mock
}

func (m *MockJournalRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.JournalEntry, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.JournalListFilter) ([]ledger.JournalEntry, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]ledger.JournalEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockJournalRepository) Save(ctx context.Context, entry *ledger.JournalEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockJournalRepository) DeleteLines(ctx context.Context, entryID uuid.UUID) error {
	args := m.Called(ctx, entryID)
	return args.Error(0)
}

func (m *MockJournalRepository) ExistsNonRejectedReversal(ctx context.Context, tenantID, originalID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, originalID)
	return args.Bool(0), args.Error(1)
}

func (m *MockJournalRepository) CountByStatusInDateRange(ctx context.Context, tenantID uuid.UUID, status ledger.JournalStatus, from, to time.Time) (int64, error) {
	args := m.Called(ctx, tenantID, status, from, to)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJournalRepository) CountRecentWarnsByActor(ctx context.Context, tenantID, actorID, excludeJournalID uuid.UUID, since time.Time) (int64, error) {
	args := m.Called(ctx, tenantID, actorID, excludeJournalID, since)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockJournalRepository) TrialBalance(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]ledger.TrialBalanceRow, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).([]ledger.TrialBalanceRow), args.Error(1)
}

func (m *MockJournalRepository) Ledger(ctx context.Context, tenantID, accountID uuid.UUID, from, to time.Time, page, pageSize int) ([]ledger.LedgerRow, int64, error) {
	args := m.Called(ctx, tenantID, accountID, from, to, page, pageSize)
	return args.Get(0).([]ledger.LedgerRow), args.Get(1).(int64), args.Error(2)
}

// MockPeriodRepository is a mock implementation of ledger.PeriodRepository
type MockPeriodRepository struct {
	mock.Mock
}

func (m *MockPeriodRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.AccountingPeriod, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.AccountingPeriod), args.Error(1)
}

func (m *MockPeriodRepository) FindByCodeForTenant(ctx context.Context, tenantID uuid.UUID, code string) (*ledger.AccountingPeriod, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.AccountingPeriod), args.Error(1)
}

func (m *MockPeriodRepository) FindByDateForTenant(ctx context.Context, tenantID uuid.UUID, date time.Time) (*ledger.AccountingPeriod, error) {
	args := m.Called(ctx, tenantID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.AccountingPeriod), args.Error(1)
}

func (m *MockPeriodRepository) FindLatestClosedOpeningForTenant(ctx context.Context, tenantID uuid.UUID) (*ledger.AccountingPeriod, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.AccountingPeriod), args.Error(1)
}

func (m *MockPeriodRepository) FindNextOpenForTenant(ctx context.Context, tenantID uuid.UUID, after time.Time) (*ledger.AccountingPeriod, error) {
	args := m.Called(ctx, tenantID, after)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.AccountingPeriod), args.Error(1)
}

func (m *MockPeriodRepository) FindOverlappingForTenant(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (*ledger.AccountingPeriod, error) {
	args := m.Called(ctx, tenantID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.AccountingPeriod), args.Error(1)
}

func (m *MockPeriodRepository) FindOpeningForTenant(ctx context.Context, tenantID uuid.UUID) (*ledger.AccountingPeriod, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.AccountingPeriod), args.Error(1)
}

func (m *MockPeriodRepository) ExistsLaterWithStatus(ctx context.Context, tenantID uuid.UUID, after time.Time, status ledger.PeriodStatus) (bool, error) {
	args := m.Called(ctx, tenantID, after, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockPeriodRepository) ExistsEarlierWithStatus(ctx context.Context, tenantID uuid.UUID, before time.Time, status ledger.PeriodStatus) (bool, error) {
	args := m.Called(ctx, tenantID, before, status)
	return args.Bool(0), args.Error(1)
}

func (m *MockPeriodRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.AccountingPeriod, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]ledger.AccountingPeriod), args.Error(1)
}

func (m *MockPeriodRepository) Save(ctx context.Context, period *ledger.AccountingPeriod) error {
	args := m.Called(ctx, period)
	return args.Error(0)
}

// MockBudgetRepository is a mock implementation of ledger.BudgetRepository
type MockBudgetRepository struct {
	mock.Mock
}

func (m *MockBudgetRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Budget, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Budget), args.Error(1)
}

func (m *MockBudgetRepository) FindActiveForFiscalYear(ctx context.Context, tenantID uuid.UUID, fiscalYear int) (*ledger.Budget, error) {
	args := m.Called(ctx, tenantID, fiscalYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Budget), args.Error(1)
}

func (m *MockBudgetRepository) Save(ctx context.Context, budget *ledger.Budget) error {
	args := m.Called(ctx, budget)
	return args.Error(0)
}

// MockAccountRepository is a mock implementation of ledger.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Account, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByIDsForTenant(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]ledger.Account, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]ledger.Account), args.Error(1)
}

func (m *MockAccountRepository) FindByCodeForTenant(ctx context.Context, tenantID uuid.UUID, code string) (*ledger.Account, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Account), args.Error(1)
}

// MockDimensionRepository is a mock implementation of ledger.DimensionRepository
type MockDimensionRepository struct {
	mock.Mock
}

func (m *MockDimensionRepository) FindLegalEntityForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.LegalEntity, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.LegalEntity), args.Error(1)
}

func (m *MockDimensionRepository) FindDepartmentForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Department, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Department), args.Error(1)
}

func (m *MockDimensionRepository) FindProjectForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Project, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Project), args.Error(1)
}

func (m *MockDimensionRepository) FindFundForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Fund, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Fund), args.Error(1)
}

// MockOpeningBalanceRepository is a mock implementation of ledger.OpeningBalanceRepository
type MockOpeningBalanceRepository struct {
	mock.Mock
}

func (m *MockOpeningBalanceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]ledger.OpeningBalanceLine, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]ledger.OpeningBalanceLine), args.Error(1)
}

func (m *MockOpeningBalanceRepository) ReplaceForTenant(ctx context.Context, tenantID uuid.UUID, lines []ledger.OpeningBalanceLine) error {
	args := m.Called(ctx, tenantID, lines)
	return args.Error(0)
}

func (m *MockOpeningBalanceRepository) DeleteAllForTenant(ctx context.Context, tenantID uuid.UUID) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

// MockSequenceAllocator is a mock implementation of ledger.SequenceAllocator
type MockSequenceAllocator struct {
	mock.Mock
}

func (m *MockSequenceAllocator) Next(ctx context.Context, tenantID uuid.UUID, name string) (int64, error) {
	args := m.Called(ctx, tenantID, name)
	return args.Get(0).(int64), args.Error(1)
}

// MockAuditSink records appended events for later inspection
type MockAuditSink struct {
	mock.Mock
	Events []*ledger.AuditEvent
}

func (m *MockAuditSink) Append(ctx context.Context, event *ledger.AuditEvent) error {
	m.Events = append(m.Events, event)
	args := m.Called(ctx, event)
	return args.Error(0)
}

// LastEvent returns the most recently appended audit event, or nil
func (m *MockAuditSink) LastEvent() *ledger.AuditEvent {
	if len(m.Events) == 0 {
		return nil
	}
	return m.Events[len(m.Events)-1]
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// fakeTxManager runs the function inline, no transaction semantics
type fakeTxManager struct{}

func (fakeTxManager) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}
