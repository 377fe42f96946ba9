package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openledger/backend/internal/domain/ledger"
	"github.com/openledger/backend/internal/domain/shared"
)

func TestReportingService_TrialBalance(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	t.Run("totals the rows and reports balance", func(t *testing.T) {
		journals := &MockJournalRepository{}
		journals.On("TrialBalance", mock.Anything, tenantID, from, to).Return([]ledger.TrialBalanceRow{
			{AccountID: uuid.New(), AccountCode: "1000", TotalDebit: decimal.NewFromInt(900), TotalCredit: decimal.NewFromInt(100)},
			{AccountID: uuid.New(), AccountCode: "4000", TotalDebit: decimal.NewFromInt(100), TotalCredit: decimal.NewFromInt(900)},
		}, nil)
		service := NewReportingService(journals, &MockAccountRepository{}, zap.NewNop())

		report, err := service.TrialBalance(ctx, tenantID, from, to)
		require.NoError(t, err)

		assert.True(t, report.TotalDebit.Equal(decimal.NewFromInt(1000)))
		assert.True(t, report.TotalCredit.Equal(decimal.NewFromInt(1000)))
		assert.True(t, report.Balanced)
		assert.Len(t, report.Rows, 2)
	})

	t.Run("an out-of-balance ledger is reported, not hidden", func(t *testing.T) {
		journals := &MockJournalRepository{}
		journals.On("TrialBalance", mock.Anything, tenantID, from, to).Return([]ledger.TrialBalanceRow{
			{AccountID: uuid.New(), TotalDebit: decimal.NewFromInt(500), TotalCredit: decimal.NewFromInt(400)},
		}, nil)
		service := NewReportingService(journals, &MockAccountRepository{}, zap.NewNop())

		report, err := service.TrialBalance(ctx, tenantID, from, to)
		require.NoError(t, err)
		assert.False(t, report.Balanced)
	})

	t.Run("rejects an inverted range", func(t *testing.T) {
		service := NewReportingService(&MockJournalRepository{}, &MockAccountRepository{}, zap.NewNop())
		_, err := service.TrialBalance(ctx, tenantID, to, from)
		require.Error(t, err)
	})
}

func TestReportingService_Ledger(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	t.Run("pages one account's posted lines", func(t *testing.T) {
		account := &ledger.Account{
			TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
			Code:                "1000",
			Type:                ledger.AccountTypeAsset,
			Active:              true,
		}
		accounts := &MockAccountRepository{}
		accounts.On("FindByIDForTenant", mock.Anything, tenantID, account.ID).Return(account, nil)

		journals := &MockJournalRepository{}
		journals.On("Ledger", mock.Anything, tenantID, account.ID, from, to, 1, 50).Return([]ledger.LedgerRow{
			{JournalNumber: 1, Debit: decimal.NewFromInt(100)},
		}, int64(1), nil)

		service := NewReportingService(journals, accounts, zap.NewNop())
		report, err := service.Ledger(ctx, tenantID, account.ID, from, to, 0, 0)
		require.NoError(t, err)

		assert.Equal(t, "1000", report.AccountCode)
		assert.Equal(t, int64(1), report.Total)
		assert.Equal(t, 1, report.Page)
		assert.Equal(t, 50, report.PageSize)
	})

	t.Run("fails for an unknown account", func(t *testing.T) {
		accounts := &MockAccountRepository{}
		accountID := uuid.New()
		accounts.On("FindByIDForTenant", mock.Anything, tenantID, accountID).Return(nil, nil)

		service := NewReportingService(&MockJournalRepository{}, accounts, zap.NewNop())
		_, err := service.Ledger(ctx, tenantID, accountID, from, to, 1, 50)
		require.ErrorIs(t, err, shared.ErrNotFound)
	})
}
