package integration

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openledger/backend/internal/application/event"
	ledgerapp "github.com/openledger/backend/internal/application/ledger"
	"github.com/openledger/backend/internal/domain/ledger"
	"github.com/openledger/backend/internal/domain/shared"
	infraevent "github.com/openledger/backend/internal/infrastructure/event"
	"github.com/openledger/backend/internal/infrastructure/persistence"
)

// ledgerEnv wires real repositories and services against a containerized
// PostgreSQL database so lifecycle tests exercise the full stack.
type ledgerEnv struct {
	t        *testing.T
	db       *TestDB
	tenantID uuid.UUID

	journals *persistence.GormJournalRepository
	periods  *persistence.GormPeriodRepository
	accounts *persistence.GormAccountRepository
	opening  *persistence.GormOpeningBalanceRepository

	journalSvc *ledgerapp.JournalService
	periodSvc  *ledgerapp.PeriodService
	reportSvc  *ledgerapp.ReportingService
	outboxSvc  *event.OutboxService
}

func newLedgerEnv(t *testing.T) *ledgerEnv {
	t.Helper()

	db := NewTestDB(t)
	log := zap.NewNop()

	journals := persistence.NewGormJournalRepository(db.DB)
	accounts := persistence.NewGormAccountRepository(db.DB)
	dims := persistence.NewGormDimensionRepository(db.DB)
	periods := persistence.NewGormPeriodRepository(db.DB)
	budgets := persistence.NewGormBudgetRepository(db.DB)
	opening := persistence.NewGormOpeningBalanceRepository(db.DB)
	seq := persistence.NewGormSequenceAllocator(db.DB)
	audit := persistence.NewGormAuditSink(db.DB)
	tx := persistence.NewGormTransactionManager(db.DB)
	outboxRepo := infraevent.NewGormOutboxRepository(db.DB)

	serializer := infraevent.NewEventSerializer()
	infraevent.RegisterAllEvents(serializer)
	publisher := persistence.NewTransactionalOutboxPublisher(db.DB, infraevent.NewOutboxPublisher(serializer))

	resolver := ledger.NewPeriodResolver(periods)
	calculator := ledger.NewBudgetImpactCalculator(accounts, budgets, journals, resolver)

	return &ledgerEnv{
		t:        t,
		db:       db,
		tenantID: uuid.New(),
		journals: journals,
		periods:  periods,
		accounts: accounts,
		opening:  opening,
		journalSvc: ledgerapp.NewJournalService(
			journals, accounts, dims, resolver, calculator, seq, audit, tx, publisher, log,
		),
		periodSvc: ledgerapp.NewPeriodService(periods, journals, opening, audit, tx, log),
		reportSvc: ledgerapp.NewReportingService(journals, accounts, log),
		outboxSvc: event.NewOutboxService(outboxRepo, log),
	}
}

// seedAccount inserts a chart-of-accounts row directly; account master data
// is a read model maintained outside the posting engine.
func (e *ledgerEnv) seedAccount(code, name string, accountType ledger.AccountType) *ledger.Account {
	e.t.Helper()

	account := &ledger.Account{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(e.tenantID),
		Code:                code,
		Name:                name,
		Type:                accountType,
		Active:              true,
		AllowPosting:        true,
		BudgetControlMode:   ledger.BudgetControlWarn,
	}
	require.NoError(e.t, e.db.DB.Create(account).Error)
	return account
}

func (e *ledgerEnv) seedLegalEntity(code string) *ledger.LegalEntity {
	e.t.Helper()

	entity := &ledger.LegalEntity{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(e.tenantID),
		Code:                code,
		Name:                "Entity " + code,
		Active:              true,
		EffectiveFrom:       time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(e.t, e.db.DB.Create(entity).Error)
	return entity
}

func (e *ledgerEnv) createPeriod(actorID uuid.UUID, code string, start, end time.Time) *ledger.AccountingPeriod {
	e.t.Helper()

	period, err := e.periodSvc.Create(e.t.Context(), e.tenantID, actorID, ledgerapp.CreatePeriodInput{
		Code:      code,
		Type:      ledger.PeriodTypeNormal,
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(e.t, err)
	return period
}

// balancedLines returns a two-line balanced entry hitting the given accounts.
func balancedLines(entityID, debitAccount, creditAccount uuid.UUID, amount float64) []ledgerapp.JournalLineInput {
	d := decimal.NewFromFloat(amount)
	return []ledgerapp.JournalLineInput{
		{AccountID: debitAccount, LegalEntityID: &entityID, Debit: d, Description: "debit leg"},
		{AccountID: creditAccount, LegalEntityID: &entityID, Credit: d, Description: "credit leg"},
	}
}

// postJournal walks a draft through submit, review and post with three
// distinct users so no segregation-of-duties rule fires.
func (e *ledgerEnv) postJournal(creatorID, reviewerID, posterID, journalID uuid.UUID) *ledger.JournalEntry {
	e.t.Helper()

	ctx := e.t.Context()
	_, err := e.journalSvc.Submit(ctx, e.tenantID, creatorID, journalID)
	require.NoError(e.t, err)
	_, err = e.journalSvc.Review(ctx, e.tenantID, reviewerID, journalID)
	require.NoError(e.t, err)
	posted, err := e.journalSvc.Post(ctx, e.tenantID, posterID, journalID)
	require.NoError(e.t, err)
	return posted
}

func domainErrCode(t *testing.T, err error) string {
	t.Helper()

	var blocked *shared.BlockedActionError
	if errors.As(err, &blocked) {
		return blocked.Code
	}
	var de *shared.DomainError
	require.ErrorAs(t, err, &de)
	return de.Code
}

func blockedRuleCode(t *testing.T, err error) string {
	t.Helper()

	var blocked *shared.BlockedActionError
	require.ErrorAs(t, err, &blocked)
	return blocked.RuleCode
}
