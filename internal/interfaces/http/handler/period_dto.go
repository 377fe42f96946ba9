package handler

import (
	"time"

	"github.com/openledger/backend/internal/domain/ledger"
)

// CreatePeriodRequest represents the request to create an accounting period
// @Description Request body for creating an accounting period
type CreatePeriodRequest struct {
	Code      string `json:"code" binding:"required,max=20" example:"2026-03"`
	Type      string `json:"type" binding:"required,oneof=NORMAL OPENING" example:"NORMAL"`
	StartDate string `json:"start_date" binding:"required" example:"2026-03-01"`
	EndDate   string `json:"end_date" binding:"required" example:"2026-03-31"`
}

// AddChecklistItemRequest represents the request to add a close checklist item
// @Description Request body for adding a period close checklist item
type AddChecklistItemRequest struct {
	Code        string `json:"code" binding:"required,max=50" example:"BANK_REC"`
	Description string `json:"description" binding:"max=500" example:"Bank reconciliation complete"`
	Required    bool   `json:"required" example:"true"`
}

// OpeningBalanceLineRequest is one staged opening balance row
// @Description One opening balance line for an account
type OpeningBalanceLineRequest struct {
	AccountID     string  `json:"account_id" binding:"required,uuid"`
	LegalEntityID *string `json:"legal_entity_id,omitempty" binding:"omitempty,uuid"`
	Debit         float64 `json:"debit" binding:"gte=0" example:"1000.00"`
	Credit        float64 `json:"credit" binding:"gte=0" example:"0"`
}

// UpsertOpeningBalancesRequest replaces the staged opening balance set
// @Description Request body for staging opening balances
type UpsertOpeningBalancesRequest struct {
	Lines []OpeningBalanceLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ChecklistItemResponse represents a close checklist item
type ChecklistItemResponse struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	Description   string     `json:"description"`
	Required      bool       `json:"required"`
	CompletedByID *string    `json:"completed_by_id,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// PeriodResponse represents an accounting period in API responses
type PeriodResponse struct {
	ID             string                  `json:"id"`
	TenantID       string                  `json:"tenant_id"`
	Code           string                  `json:"code"`
	Type           string                  `json:"type"`
	Status         string                  `json:"status"`
	StartDate      string                  `json:"start_date"`
	EndDate        string                  `json:"end_date"`
	ClosedByID     *string                 `json:"closed_by_id,omitempty"`
	ClosedAt       *time.Time              `json:"closed_at,omitempty"`
	ChecklistItems []ChecklistItemResponse `json:"checklist_items"`
	Version        int                     `json:"version"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// OpeningBalanceLineResponse represents a staged opening balance row
type OpeningBalanceLineResponse struct {
	ID            string    `json:"id"`
	AccountID     string    `json:"account_id"`
	LegalEntityID *string   `json:"legal_entity_id,omitempty"`
	Debit         float64   `json:"debit"`
	Credit        float64   `json:"credit"`
	UpdatedByID   string    `json:"updated_by_id"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toChecklistItemResponse(item *ledger.PeriodChecklistItem) ChecklistItemResponse {
	return ChecklistItemResponse{
		ID:            item.ID.String(),
		Code:          item.Code,
		Description:   item.Description,
		Required:      item.Required,
		CompletedByID: uuidPtrToString(item.CompletedByID),
		CompletedAt:   item.CompletedAt,
	}
}

func toPeriodResponse(p *ledger.AccountingPeriod) PeriodResponse {
	items := make([]ChecklistItemResponse, 0, len(p.ChecklistItems))
	for i := range p.ChecklistItems {
		items = append(items, toChecklistItemResponse(&p.ChecklistItems[i]))
	}
	return PeriodResponse{
		ID:             p.ID.String(),
		TenantID:       p.TenantID.String(),
		Code:           p.Code,
		Type:           string(p.Type),
		Status:         string(p.Status),
		StartDate:      p.StartDate.Format("2006-01-02"),
		EndDate:        p.EndDate.Format("2006-01-02"),
		ClosedByID:     uuidPtrToString(p.ClosedByID),
		ClosedAt:       p.ClosedAt,
		ChecklistItems: items,
		Version:        p.Version,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toPeriodResponses(periods []ledger.AccountingPeriod) []PeriodResponse {
	out := make([]PeriodResponse, 0, len(periods))
	for i := range periods {
		out = append(out, toPeriodResponse(&periods[i]))
	}
	return out
}

func toOpeningBalanceLineResponse(line *ledger.OpeningBalanceLine) OpeningBalanceLineResponse {
	return OpeningBalanceLineResponse{
		ID:            line.ID.String(),
		AccountID:     line.AccountID.String(),
		LegalEntityID: uuidPtrToString(line.LegalEntityID),
		Debit:         line.Debit.InexactFloat64(),
		Credit:        line.Credit.InexactFloat64(),
		UpdatedByID:   line.UpdatedByID.String(),
		UpdatedAt:     line.UpdatedAt,
	}
}

func toOpeningBalanceLineResponses(lines []ledger.OpeningBalanceLine) []OpeningBalanceLineResponse {
	out := make([]OpeningBalanceLineResponse, 0, len(lines))
	for i := range lines {
		out = append(out, toOpeningBalanceLineResponse(&lines[i]))
	}
	return out
}
