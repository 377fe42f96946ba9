package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openledger/backend/internal/domain/ledger"
)

// JournalLineRequest represents one line in a journal create or update request
// @Description Journal line for creation or update
type JournalLineRequest struct {
	AccountID     string  `json:"account_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	LegalEntityID *string `json:"legal_entity_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	DepartmentID  *string `json:"department_id" example:"550e8400-e29b-41d4-a716-446655440002"`
	ProjectID     *string `json:"project_id" example:"550e8400-e29b-41d4-a716-446655440003"`
	FundID        *string `json:"fund_id" example:"550e8400-e29b-41d4-a716-446655440004"`
	Debit         float64 `json:"debit" binding:"gte=0" example:"1500.00"`
	Credit        float64 `json:"credit" binding:"gte=0" example:"0"`
	Description   string  `json:"description" binding:"max=500" example:"Office rent March"`
}

// CreateJournalRequest represents a request to create a draft journal entry
// @Description Request body for creating a draft journal entry
type CreateJournalRequest struct {
	Type              string               `json:"type" binding:"required,oneof=STANDARD ADJUSTING ACCRUAL REVERSING" example:"STANDARD"`
	JournalDate       string               `json:"journal_date" binding:"required" example:"2026-03-15"`
	Reference         string               `json:"reference" binding:"max=100" example:"INV-2026-0042"`
	Description       string               `json:"description" binding:"max=1000" example:"March rent accrual"`
	CorrectsJournalID *string              `json:"corrects_journal_id" example:"550e8400-e29b-41d4-a716-446655440005"`
	Lines             []JournalLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// UpdateJournalRequest represents a request to update a draft or rejected journal
// @Description Request body for updating a journal entry header and lines
type UpdateJournalRequest struct {
	JournalDate                 string               `json:"journal_date" binding:"required" example:"2026-03-15"`
	Reference                   string               `json:"reference" binding:"max=100" example:"INV-2026-0042"`
	Description                 string               `json:"description" binding:"max=1000" example:"March rent accrual, corrected"`
	BudgetOverrideJustification string               `json:"budget_override_justification" binding:"max=1000" example:"Board-approved overage"`
	Lines                       []JournalLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// RejectJournalRequest represents a request to reject a submitted journal
// @Description Request body for rejecting a journal entry
type RejectJournalRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500" example:"Wrong expense account on line 2"`
}

// ReturnJournalRequest represents a poster returning a reviewed journal
// @Description Request body for returning a reviewed journal to the reviewer
type ReturnJournalRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500" example:"Needs supporting documentation"`
}

// ReverseJournalRequest represents a request to reverse a posted journal
// @Description Request body for reversing a posted journal entry
type ReverseJournalRequest struct {
	Reason       string  `json:"reason" binding:"required,min=1,max=500" example:"Duplicate posting"`
	ReversalDate *string `json:"reversal_date" example:"2026-04-01"`
	Reference    string  `json:"reference" binding:"max=100" example:"REV-INV-2026-0042"`
	Description  string  `json:"description" binding:"max=1000"`
}

// JournalLineResponse represents a journal line in API responses
// @Description Journal line response
type JournalLineResponse struct {
	ID            string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	LineNumber    int     `json:"line_number" example:"1"`
	AccountID     string  `json:"account_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	LegalEntityID *string `json:"legal_entity_id,omitempty"`
	DepartmentID  *string `json:"department_id,omitempty"`
	ProjectID     *string `json:"project_id,omitempty"`
	FundID        *string `json:"fund_id,omitempty"`
	Debit         float64 `json:"debit" example:"1500.00"`
	Credit        float64 `json:"credit" example:"0"`
	Description   string  `json:"description,omitempty" example:"Office rent March"`
}

// JournalResponse represents a journal entry in API responses
// @Description Journal entry response
type JournalResponse struct {
	ID            string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TenantID      string  `json:"tenant_id" example:"550e8400-e29b-41d4-a716-446655440001"`
	JournalNumber *int64  `json:"journal_number,omitempty" example:"1042"`
	JournalDate   string  `json:"journal_date" example:"2026-03-15"`
	Type          string  `json:"type" example:"STANDARD"`
	Reference     string  `json:"reference,omitempty" example:"INV-2026-0042"`
	Description   string  `json:"description,omitempty" example:"March rent accrual"`
	Status        string  `json:"status" example:"DRAFT"`
	TotalDebit    float64 `json:"total_debit" example:"1500.00"`
	TotalCredit   float64 `json:"total_credit" example:"1500.00"`

	CreatedByID string `json:"created_by_id" example:"550e8400-e29b-41d4-a716-446655440002"`

	SubmittedByID *string    `json:"submitted_by_id,omitempty"`
	SubmittedAt   *time.Time `json:"submitted_at,omitempty"`

	ReviewedByID *string    `json:"reviewed_by_id,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`

	RejectedByID    *string    `json:"rejected_by_id,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`

	PostedByID *string    `json:"posted_by_id,omitempty"`
	PostedAt   *time.Time `json:"posted_at,omitempty"`

	ReturnedByPosterID *string    `json:"returned_by_poster_id,omitempty"`
	ReturnedAt         *time.Time `json:"returned_at,omitempty"`
	ReturnReason       string     `json:"return_reason,omitempty"`

	ReversalOfID          *string    `json:"reversal_of_id,omitempty"`
	ReversalInitiatedByID *string    `json:"reversal_initiated_by_id,omitempty"`
	ReversalInitiatedAt   *time.Time `json:"reversal_initiated_at,omitempty"`

	CorrectsJournalID *string `json:"corrects_journal_id,omitempty"`

	PeriodID *string `json:"period_id,omitempty"`

	RiskScore      int        `json:"risk_score" example:"25"`
	RiskFlags      []string   `json:"risk_flags,omitempty"`
	RiskComputedAt *time.Time `json:"risk_computed_at,omitempty"`

	BudgetStatus                string     `json:"budget_status,omitempty" example:"OK"`
	BudgetFlags                 []string   `json:"budget_flags,omitempty"`
	BudgetCheckedAt             *time.Time `json:"budget_checked_at,omitempty"`
	BudgetOverrideJustification string     `json:"budget_override_justification,omitempty"`

	Lines []JournalLineResponse `json:"lines"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version" example:"3"`
}

// ===================== Conversion helpers =====================

func uuidPtrToString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func parseUUIDPtr(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// parseDateOnly parses a YYYY-MM-DD date string
func parseDateOnly(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func toJournalLineResponse(l *ledger.JournalLine) JournalLineResponse {
	return JournalLineResponse{
		ID:            l.ID.String(),
		LineNumber:    l.LineNumber,
		AccountID:     l.AccountID.String(),
		LegalEntityID: uuidPtrToString(l.LegalEntityID),
		DepartmentID:  uuidPtrToString(l.DepartmentID),
		ProjectID:     uuidPtrToString(l.ProjectID),
		FundID:        uuidPtrToString(l.FundID),
		Debit:         l.Debit.InexactFloat64(),
		Credit:        l.Credit.InexactFloat64(),
		Description:   l.Description,
	}
}

func toJournalResponse(je *ledger.JournalEntry) JournalResponse {
	lines := make([]JournalLineResponse, len(je.Lines))
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for i := range je.Lines {
		lines[i] = toJournalLineResponse(&je.Lines[i])
		totalDebit = totalDebit.Add(je.Lines[i].Debit)
		totalCredit = totalCredit.Add(je.Lines[i].Credit)
	}

	return JournalResponse{
		ID:            je.ID.String(),
		TenantID:      je.TenantID.String(),
		JournalNumber: je.JournalNumber,
		JournalDate:   je.JournalDate.Format("2006-01-02"),
		Type:          string(je.Type),
		Reference:     je.Reference,
		Description:   je.Description,
		Status:        string(je.Status),
		TotalDebit:    totalDebit.InexactFloat64(),
		TotalCredit:   totalCredit.InexactFloat64(),

		CreatedByID: je.CreatedByID.String(),

		SubmittedByID: uuidPtrToString(je.SubmittedByID),
		SubmittedAt:   je.SubmittedAt,

		ReviewedByID: uuidPtrToString(je.ReviewedByID),
		ReviewedAt:   je.ReviewedAt,

		RejectedByID:    uuidPtrToString(je.RejectedByID),
		RejectedAt:      je.RejectedAt,
		RejectionReason: je.RejectionReason,

		PostedByID: uuidPtrToString(je.PostedByID),
		PostedAt:   je.PostedAt,

		ReturnedByPosterID: uuidPtrToString(je.ReturnedByPosterID),
		ReturnedAt:         je.ReturnedAt,
		ReturnReason:       je.ReturnReason,

		ReversalOfID:          uuidPtrToString(je.ReversalOfID),
		ReversalInitiatedByID: uuidPtrToString(je.ReversalInitiatedByID),
		ReversalInitiatedAt:   je.ReversalInitiatedAt,

		CorrectsJournalID: uuidPtrToString(je.CorrectsJournalID),

		PeriodID: uuidPtrToString(je.PeriodID),

		RiskScore:      je.RiskScore,
		RiskFlags:      je.RiskFlags,
		RiskComputedAt: je.RiskComputedAt,

		BudgetStatus:                string(je.BudgetStatus),
		BudgetFlags:                 je.BudgetFlags,
		BudgetCheckedAt:             je.BudgetCheckedAt,
		BudgetOverrideJustification: je.BudgetOverrideJustification,

		Lines: lines,

		CreatedAt: je.CreatedAt,
		UpdatedAt: je.UpdatedAt,
		Version:   je.Version,
	}
}

func toJournalResponses(entries []ledger.JournalEntry) []JournalResponse {
	responses := make([]JournalResponse, len(entries))
	for i := range entries {
		responses[i] = toJournalResponse(&entries[i])
	}
	return responses
}
