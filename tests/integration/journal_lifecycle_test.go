package integration

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgerapp "github.com/openledger/backend/internal/application/ledger"
	"github.com/openledger/backend/internal/domain/ledger"
)

func TestJournalLifecycleEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := newLedgerEnv(t)
	ctx := t.Context()

	creator := uuid.New()
	reviewer := uuid.New()
	poster := uuid.New()

	cash := env.seedAccount("1000", "Cash", ledger.AccountTypeAsset)
	loan := env.seedAccount("2000", "Bank Loan", ledger.AccountTypeLiability)
	entity := env.seedLegalEntity("HQ")

	env.createPeriod(creator, "2026-03",
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))

	journalDate := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	draft, err := env.journalSvc.CreateDraft(ctx, env.tenantID, creator, ledgerapp.CreateJournalInput{
		Type:        ledger.JournalTypeStandard,
		JournalDate: journalDate,
		Reference:   "LOAN-001",
		Description: "Loan drawdown",
		Lines:       balancedLines(entity.ID, cash.ID, loan.ID, 1500),
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.JournalStatusDraft, draft.Status)
	assert.Nil(t, draft.JournalNumber)

	submitted, err := env.journalSvc.Submit(ctx, env.tenantID, creator, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.JournalStatusSubmitted, submitted.Status)

	// The creator may not review their own work.
	_, err = env.journalSvc.Review(ctx, env.tenantID, creator, draft.ID)
	require.Error(t, err)
	assert.Equal(t, ledger.RuleReviewerIsCreator, blockedRuleCode(t, err))

	reviewed, err := env.journalSvc.Review(ctx, env.tenantID, reviewer, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.JournalStatusReviewed, reviewed.Status)

	// Neither the creator nor the reviewer may post.
	_, err = env.journalSvc.Post(ctx, env.tenantID, creator, draft.ID)
	require.Error(t, err)
	assert.Equal(t, ledger.RulePosterIsCreator, blockedRuleCode(t, err))

	_, err = env.journalSvc.Post(ctx, env.tenantID, reviewer, draft.ID)
	require.Error(t, err)
	assert.Equal(t, ledger.RulePosterIsReviewer, blockedRuleCode(t, err))

	posted, err := env.journalSvc.Post(ctx, env.tenantID, poster, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.JournalStatusPosted, posted.Status)
	require.NotNil(t, posted.JournalNumber)
	assert.Equal(t, int64(1), *posted.JournalNumber)

	// Posting is a one-way door.
	_, err = env.journalSvc.Post(ctx, env.tenantID, poster, draft.ID)
	require.Error(t, err)
	assert.Equal(t, ledger.ErrCodeAlreadyPosted, domainErrCode(t, err))

	// Journal numbers are sequential per tenant.
	second, err := env.journalSvc.CreateDraft(ctx, env.tenantID, creator, ledgerapp.CreateJournalInput{
		Type:        ledger.JournalTypeStandard,
		JournalDate: journalDate,
		Reference:   "LOAN-002",
		Lines:       balancedLines(entity.ID, cash.ID, loan.ID, 250),
	})
	require.NoError(t, err)
	secondPosted := env.postJournal(creator, reviewer, poster, second.ID)
	require.NotNil(t, secondPosted.JournalNumber)
	assert.Equal(t, int64(2), *secondPosted.JournalNumber)

	// Posted journals land in the transactional outbox.
	var outboxCount int64
	require.NoError(t, env.db.DB.Table("outbox_entries").Count(&outboxCount).Error)
	assert.Positive(t, outboxCount)

	report, err := env.reportSvc.TrialBalance(ctx, env.tenantID,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, report.Balanced)
	assert.True(t, report.TotalDebit.Equal(report.TotalCredit))
	assert.True(t, report.TotalDebit.Equal(decimal.NewFromInt(1750)))
}

func TestJournalReversal(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := newLedgerEnv(t)
	ctx := t.Context()

	creator := uuid.New()
	reviewer := uuid.New()
	poster := uuid.New()
	initiator := uuid.New()

	cash := env.seedAccount("1000", "Cash", ledger.AccountTypeAsset)
	loan := env.seedAccount("2000", "Bank Loan", ledger.AccountTypeLiability)
	entity := env.seedLegalEntity("HQ")

	env.createPeriod(creator, "2026-03",
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))

	draft, err := env.journalSvc.CreateDraft(ctx, env.tenantID, creator, ledgerapp.CreateJournalInput{
		Type:        ledger.JournalTypeStandard,
		JournalDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Reference:   "ERR-001",
		Lines:       balancedLines(entity.ID, cash.ID, loan.ID, 900),
	})
	require.NoError(t, err)
	posted := env.postJournal(creator, reviewer, poster, draft.ID)

	// The creator cannot initiate their own reversal.
	_, err = env.journalSvc.Reverse(ctx, env.tenantID, creator, posted.ID, ledgerapp.ReverseJournalInput{
		Reason: "posted in error",
	})
	require.Error(t, err)
	assert.Equal(t, ledger.RuleReverserIsCreator, blockedRuleCode(t, err))

	reversal, err := env.journalSvc.Reverse(ctx, env.tenantID, initiator, posted.ID, ledgerapp.ReverseJournalInput{
		Reason: "posted in error",
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.JournalStatusDraft, reversal.Status)
	assert.Equal(t, ledger.JournalTypeReversing, reversal.Type)
	require.NotNil(t, reversal.ReversalOfID)
	assert.Equal(t, posted.ID, *reversal.ReversalOfID)

	// Debits and credits swap sides on the reversal.
	require.Len(t, reversal.Lines, 2)
	byAccount := map[uuid.UUID]ledger.JournalLine{}
	for _, l := range reversal.Lines {
		byAccount[l.AccountID] = l
	}
	assert.True(t, byAccount[cash.ID].Credit.Equal(decimal.NewFromInt(900)))
	assert.True(t, byAccount[loan.ID].Debit.Equal(decimal.NewFromInt(900)))

	// A second reversal is refused while one is in flight.
	_, err = env.journalSvc.Reverse(ctx, env.tenantID, initiator, posted.ID, ledgerapp.ReverseJournalInput{
		Reason: "double tap",
	})
	require.Error(t, err)
	assert.Equal(t, ledger.ErrCodeReversalExists, domainErrCode(t, err))
}

func TestJournalCreateOutsideAnyPeriod(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := newLedgerEnv(t)
	ctx := t.Context()

	creator := uuid.New()

	cash := env.seedAccount("1000", "Cash", ledger.AccountTypeAsset)
	loan := env.seedAccount("2000", "Bank Loan", ledger.AccountTypeLiability)
	entity := env.seedLegalEntity("HQ")

	env.createPeriod(creator, "2026-03",
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))

	// A draft dated outside every period is rejected at creation.
	_, err := env.journalSvc.CreateDraft(ctx, env.tenantID, creator, ledgerapp.CreateJournalInput{
		Type:        ledger.JournalTypeStandard,
		JournalDate: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		Lines:       balancedLines(entity.ID, cash.ID, loan.ID, 100),
	})
	require.Error(t, err)
	assert.Equal(t, ledger.ErrCodeNoPeriod, domainErrCode(t, err))

	// A date inside the open period goes through.
	draft, err := env.journalSvc.CreateDraft(ctx, env.tenantID, creator, ledgerapp.CreateJournalInput{
		Type:        ledger.JournalTypeStandard,
		JournalDate: time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Lines:       balancedLines(entity.ID, cash.ID, loan.ID, 100),
	})
	require.NoError(t, err)
	assert.Equal(t, ledger.JournalStatusDraft, draft.Status)
}
