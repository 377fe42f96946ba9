package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openledger/backend/internal/domain/ledger"
	csvimport "github.com/openledger/backend/internal/infrastructure/import"
)

// OpeningBalanceImportService stages opening balances from a validated CSV.
// Rows reference accounts by code; the staged set replaces any previous one
// through the period service so the OPENING-period gating still applies.
type OpeningBalanceImportService struct {
	periodService *PeriodService
	accounts      ledger.AccountRepository
	logger        *zap.Logger
}

// NewOpeningBalanceImportService creates a new OpeningBalanceImportService
func NewOpeningBalanceImportService(
	periodService *PeriodService,
	accounts ledger.AccountRepository,
	logger *zap.Logger,
) *OpeningBalanceImportService {
	return &OpeningBalanceImportService{
		periodService: periodService,
		accounts:      accounts,
		logger:        logger,
	}
}

// OpeningBalanceImportResult summarizes an import run
type OpeningBalanceImportResult struct {
	TotalRows    int                  `json:"total_rows"`
	ImportedRows int                  `json:"imported_rows"`
	ErrorRows    int                  `json:"error_rows"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
}

// GetValidationRules returns the CSV field rules for opening balance files
func (s *OpeningBalanceImportService) GetValidationRules() []csvimport.FieldRule {
	return []csvimport.FieldRule{
		csvimport.Field("account_code").Required().String().MaxLength(20).Reference("account").Build(),
		csvimport.Field("legal_entity_id").UUID().Build(),
		csvimport.Field("debit").Required().Decimal().MinValue(decimal.Zero).Build(),
		csvimport.Field("credit").Required().Decimal().MinValue(decimal.Zero).Build(),
	}
}

// LookupAccount reports whether an account code exists for the tenant
func (s *OpeningBalanceImportService) LookupAccount(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	account, err := s.accounts.FindByCodeForTenant(ctx, tenantID, code)
	if err != nil {
		return false, err
	}
	return account != nil, nil
}

// Import converts validated rows into opening balance inputs and stages them.
// A row whose account code resolves to nothing (deleted between validate and
// import) is reported as an error row; any error row aborts the import so the
// staged set is replaced all-or-nothing.
func (s *OpeningBalanceImportService) Import(
	ctx context.Context,
	tenantID, userID uuid.UUID,
	session *csvimport.ImportSession,
	rows []*csvimport.Row,
) (*OpeningBalanceImportResult, error) {
	session.UpdateState(csvimport.StateImporting)

	result := &OpeningBalanceImportResult{
		TotalRows: len(rows),
		Errors:    make([]csvimport.RowError, 0),
	}

	inputs := make([]OpeningBalanceInput, 0, len(rows))
	for _, row := range rows {
		input, rowErr := s.rowToInput(ctx, tenantID, row)
		if rowErr != nil {
			result.ErrorRows++
			result.Errors = append(result.Errors, *rowErr)
			continue
		}
		inputs = append(inputs, *input)
	}

	if result.ErrorRows > 0 {
		session.UpdateState(csvimport.StateFailed)
		return result, nil
	}

	if _, err := s.periodService.UpsertOpeningBalances(ctx, tenantID, userID, inputs); err != nil {
		session.UpdateState(csvimport.StateFailed)
		return nil, err
	}

	result.ImportedRows = len(inputs)
	session.UpdateState(csvimport.StateCompleted)

	s.logger.Info("opening balances imported",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("rows", result.ImportedRows),
	)
	return result, nil
}

func (s *OpeningBalanceImportService) rowToInput(ctx context.Context, tenantID uuid.UUID, row *csvimport.Row) (*OpeningBalanceInput, *csvimport.RowError) {
	code := row.Get("account_code")
	account, err := s.accounts.FindByCodeForTenant(ctx, tenantID, code)
	if err != nil {
		rowErr := csvimport.NewRowError(row.LineNumber, "account_code", csvimport.ErrCodeImportReferenceNotFound, err.Error())
		return nil, &rowErr
	}
	if account == nil {
		rowErr := csvimport.NewRowError(row.LineNumber, "account_code", csvimport.ErrCodeImportReferenceNotFound,
			fmt.Sprintf("account %q not found", code))
		return nil, &rowErr
	}

	input := OpeningBalanceInput{AccountID: account.ID}

	if raw := row.Get("legal_entity_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			rowErr := csvimport.NewRowError(row.LineNumber, "legal_entity_id", csvimport.ErrCodeImportValidation, "invalid UUID")
			return nil, &rowErr
		}
		input.LegalEntityID = &id
	}

	debit, err := decimal.NewFromString(row.GetOrDefault("debit", "0"))
	if err != nil {
		rowErr := csvimport.NewRowError(row.LineNumber, "debit", csvimport.ErrCodeImportValidation, "invalid decimal")
		return nil, &rowErr
	}
	credit, err := decimal.NewFromString(row.GetOrDefault("credit", "0"))
	if err != nil {
		rowErr := csvimport.NewRowError(row.LineNumber, "credit", csvimport.ErrCodeImportValidation, "invalid decimal")
		return nil, &rowErr
	}
	input.Debit = debit
	input.Credit = credit

	return &input, nil
}
