package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openledger/backend/internal/domain/ledger"
	"github.com/openledger/backend/internal/domain/shared"
)

// TrialBalanceReport aggregates posted activity per account over a date range
type TrialBalanceReport struct {
	From        time.Time                `json:"from"`
	To          time.Time                `json:"to"`
	Rows        []ledger.TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal          `json:"total_debit"`
	TotalCredit decimal.Decimal          `json:"total_credit"`
	Balanced    bool                     `json:"balanced"`
}

// LedgerReport lists the posted lines of one account over a date range
type LedgerReport struct {
	AccountID   uuid.UUID        `json:"account_id"`
	AccountCode string           `json:"account_code"`
	From        time.Time        `json:"from"`
	To          time.Time        `json:"to"`
	Rows        []ledger.LedgerRow `json:"rows"`
	Total       int64            `json:"total"`
	Page        int              `json:"page"`
	PageSize    int              `json:"page_size"`
}

// ReportingService produces read-only ledger reports from POSTED journals
type ReportingService struct {
	journals ledger.JournalRepository
	accounts ledger.AccountRepository
	logger   *zap.Logger
}

// NewReportingService creates a new ReportingService
func NewReportingService(journals ledger.JournalRepository, accounts ledger.AccountRepository, logger *zap.Logger) *ReportingService {
	return &ReportingService{journals: journals, accounts: accounts, logger: logger}
}

// TrialBalance aggregates posted debits and credits per account. A healthy
// ledger always reports Balanced true; anything else points at data damage.
func (s *ReportingService) TrialBalance(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (*TrialBalanceReport, error) {
	if to.Before(from) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Range end precedes range start")
	}

	rows, err := s.journals.TrialBalance(ctx, tenantID, from, to)
	if err != nil {
		return nil, err
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, row := range rows {
		totalDebit = totalDebit.Add(row.TotalDebit)
		totalCredit = totalCredit.Add(row.TotalCredit)
	}

	balanced := totalDebit.Round(2).Equal(totalCredit.Round(2))
	if !balanced {
		s.logger.Error("trial balance out of balance",
			zap.String("tenant_id", tenantID.String()),
			zap.String("total_debit", totalDebit.String()),
			zap.String("total_credit", totalCredit.String()),
		)
	}

	return &TrialBalanceReport{
		From:        from,
		To:          to,
		Rows:        rows,
		TotalDebit:  totalDebit,
		TotalCredit: totalCredit,
		Balanced:    balanced,
	}, nil
}

// Ledger returns the paginated posted lines of one account
func (s *ReportingService) Ledger(ctx context.Context, tenantID, accountID uuid.UUID, from, to time.Time, page, pageSize int) (*LedgerReport, error) {
	if to.Before(from) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Range end precedes range start")
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	account, err := s.accounts.FindByIDForTenant(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, shared.ErrNotFound
	}

	rows, total, err := s.journals.Ledger(ctx, tenantID, accountID, from, to, page, pageSize)
	if err != nil {
		return nil, err
	}

	return &LedgerReport{
		AccountID:   accountID,
		AccountCode: account.Code,
		From:        from,
		To:          to,
		Rows:        rows,
		Total:       total,
		Page:        page,
		PageSize:    pageSize,
	}, nil
}
