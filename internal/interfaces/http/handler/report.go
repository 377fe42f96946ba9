package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ledgerapp "github.com/openledger/backend/internal/application/ledger"
)

// ReportHandler handles read-only ledger report endpoints
type ReportHandler struct {
	BaseHandler
	reportingService *ledgerapp.ReportingService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportingService *ledgerapp.ReportingService) *ReportHandler {
	return &ReportHandler{
		reportingService: reportingService,
	}
}

// TrialBalanceRowResponse is one account's totals in the trial balance
type TrialBalanceRowResponse struct {
	AccountID   string  `json:"account_id"`
	AccountCode string  `json:"account_code"`
	AccountName string  `json:"account_name"`
	TotalDebit  float64 `json:"total_debit"`
	TotalCredit float64 `json:"total_credit"`
}

// TrialBalanceResponse represents the trial balance report
type TrialBalanceResponse struct {
	From        string                    `json:"from"`
	To          string                    `json:"to"`
	Rows        []TrialBalanceRowResponse `json:"rows"`
	TotalDebit  float64                   `json:"total_debit"`
	TotalCredit float64                   `json:"total_credit"`
	Balanced    bool                      `json:"balanced"`
}

// LedgerRowResponse is one posted line in an account ledger listing
type LedgerRowResponse struct {
	JournalEntryID string  `json:"journal_entry_id"`
	JournalNumber  int64   `json:"journal_number"`
	JournalDate    string  `json:"journal_date"`
	LineNumber     int     `json:"line_number"`
	Description    string  `json:"description"`
	Debit          float64 `json:"debit"`
	Credit         float64 `json:"credit"`
}

// LedgerResponse represents one account's ledger over a date range
type LedgerResponse struct {
	AccountID   string              `json:"account_id"`
	AccountCode string              `json:"account_code"`
	From        string              `json:"from"`
	To          string              `json:"to"`
	Rows        []LedgerRowResponse `json:"rows"`
	Total       int64               `json:"total"`
	Page        int                 `json:"page"`
	PageSize    int                 `json:"page_size"`
}

func toTrialBalanceResponse(report *ledgerapp.TrialBalanceReport) TrialBalanceResponse {
	rows := make([]TrialBalanceRowResponse, 0, len(report.Rows))
	for _, row := range report.Rows {
		rows = append(rows, TrialBalanceRowResponse{
			AccountID:   row.AccountID.String(),
			AccountCode: row.AccountCode,
			AccountName: row.AccountName,
			TotalDebit:  row.TotalDebit.InexactFloat64(),
			TotalCredit: row.TotalCredit.InexactFloat64(),
		})
	}
	return TrialBalanceResponse{
		From:        report.From.Format("2006-01-02"),
		To:          report.To.Format("2006-01-02"),
		Rows:        rows,
		TotalDebit:  report.TotalDebit.InexactFloat64(),
		TotalCredit: report.TotalCredit.InexactFloat64(),
		Balanced:    report.Balanced,
	}
}

func toLedgerResponse(report *ledgerapp.LedgerReport) LedgerResponse {
	rows := make([]LedgerRowResponse, 0, len(report.Rows))
	for _, row := range report.Rows {
		rows = append(rows, LedgerRowResponse{
			JournalEntryID: row.JournalEntryID.String(),
			JournalNumber:  row.JournalNumber,
			JournalDate:    row.JournalDate.Format("2006-01-02"),
			LineNumber:     row.LineNumber,
			Description:    row.Description,
			Debit:          row.Debit.InexactFloat64(),
			Credit:         row.Credit.InexactFloat64(),
		})
	}
	return LedgerResponse{
		AccountID:   report.AccountID.String(),
		AccountCode: report.AccountCode,
		From:        report.From.Format("2006-01-02"),
		To:          report.To.Format("2006-01-02"),
		Rows:        rows,
		Total:       report.Total,
		Page:        report.Page,
		PageSize:    report.PageSize,
	}
}

// parseReportRange reads the from/to query params; to defaults to today and
// from defaults to the first day of to's month.
func parseReportRange(c *gin.Context) (time.Time, time.Time, error) {
	to := time.Now().UTC().Truncate(24 * time.Hour)
	if v := c.Query("to"); v != "" {
		parsed, err := parseDateOnly(v)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidQueryDate("to")
		}
		to = parsed
	}

	from := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	if v := c.Query("from"); v != "" {
		parsed, err := parseDateOnly(v)
		if err != nil {
			return time.Time{}, time.Time{}, errInvalidQueryDate("from")
		}
		from = parsed
	}

	return from, to, nil
}

// TrialBalance godoc
// @Summary      Trial balance report
// @Description  Per-account debit and credit totals from POSTED journals in the date range
// @Tags         reports
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        from query string false "Range start (YYYY-MM-DD), defaults to first of month"
// @Param        to query string false "Range end (YYYY-MM-DD), defaults to today"
// @Success      200 {object} dto.Response{data=TrialBalanceResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reports/trial-balance [get]
func (h *ReportHandler) TrialBalance(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	from, to, err := parseReportRange(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	report, err := h.reportingService.TrialBalance(c.Request.Context(), tenantID, from, to)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toTrialBalanceResponse(report))
}

// Ledger godoc
// @Summary      Account ledger report
// @Description  Posted journal lines of one account over a date range, paginated
// @Tags         reports
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        account_id path string true "Account ID" format(uuid)
// @Param        from query string false "Range start (YYYY-MM-DD), defaults to first of month"
// @Param        to query string false "Range end (YYYY-MM-DD), defaults to today"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(50)
// @Success      200 {object} dto.Response{data=LedgerResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reports/ledger/{account_id} [get]
func (h *ReportHandler) Ledger(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	accountID, err := uuid.Parse(c.Param("account_id"))
	if err != nil {
		h.BadRequest(c, "Invalid account ID format")
		return
	}

	from, to, err := parseReportRange(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page := parseIntQuery(c, "page", 1)
	pageSize := parseIntQuery(c, "page_size", 50)

	report, err := h.reportingService.Ledger(c.Request.Context(), tenantID, accountID, from, to, page, pageSize)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toLedgerResponse(report))
}
