package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerapp "github.com/openledger/backend/internal/application/ledger"
	"github.com/openledger/backend/internal/domain/ledger"
	"github.com/openledger/backend/internal/domain/shared"
)

// PeriodHandler handles accounting period API endpoints
type PeriodHandler struct {
	BaseHandler
	periodService *ledgerapp.PeriodService
}

// NewPeriodHandler creates a new PeriodHandler
func NewPeriodHandler(periodService *ledgerapp.PeriodService) *PeriodHandler {
	return &PeriodHandler{
		periodService: periodService,
	}
}

// Create godoc
// @Summary      Create accounting period
// @Description  Create a new open accounting period
// @Tags         periods
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body CreatePeriodRequest true "Period to create"
// @Success      201 {object} dto.Response{data=PeriodResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /periods [post]
func (h *PeriodHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreatePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	startDate, err := parseDateOnly(req.StartDate)
	if err != nil {
		h.BadRequest(c, "Invalid start_date format. Expected YYYY-MM-DD")
		return
	}
	endDate, err := parseDateOnly(req.EndDate)
	if err != nil {
		h.BadRequest(c, "Invalid end_date format. Expected YYYY-MM-DD")
		return
	}

	period, err := h.periodService.Create(c.Request.Context(), tenantID, userID, ledgerapp.CreatePeriodInput{
		Code:      req.Code,
		Type:      ledger.PeriodType(req.Type),
		StartDate: startDate,
		EndDate:   endDate,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toPeriodResponse(period))
}

// Get godoc
// @Summary      Get accounting period
// @Description  Get an accounting period by ID including its close checklist
// @Tags         periods
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Period ID" format(uuid)
// @Success      200 {object} dto.Response{data=PeriodResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /periods/{id} [get]
func (h *PeriodHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	periodID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid period ID format")
		return
	}

	period, err := h.periodService.Get(c.Request.Context(), tenantID, periodID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPeriodResponse(period))
}

// List godoc
// @Summary      List accounting periods
// @Description  List accounting periods ordered by start date
// @Tags         periods
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        status query string false "Filter by status" Enums(OPEN, SOFT_CLOSED, CLOSED)
// @Param        type query string false "Filter by type" Enums(NORMAL, OPENING)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]PeriodResponse}
// @Security     BearerAuth
// @Router       /periods [get]
func (h *PeriodHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	filter := shared.Filter{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 20),
		Filters:  map[string]any{},
	}
	if v := c.Query("status"); v != "" {
		filter.Filters["status"] = v
	}
	if v := c.Query("type"); v != "" {
		filter.Filters["type"] = v
	}

	periods, err := h.periodService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPeriodResponses(periods))
}

// AddChecklistItem godoc
// @Summary      Add close checklist item
// @Description  Add an item to an open period's close checklist
// @Tags         periods
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Period ID" format(uuid)
// @Param        request body AddChecklistItemRequest true "Checklist item"
// @Success      200 {object} dto.Response{data=PeriodResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /periods/{id}/checklist [post]
func (h *PeriodHandler) AddChecklistItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	periodID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid period ID format")
		return
	}

	var req AddChecklistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	period, err := h.periodService.AddChecklistItem(c.Request.Context(), tenantID, userID, periodID, req.Code, req.Description, req.Required)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPeriodResponse(period))
}

// CompleteChecklistItem godoc
// @Summary      Complete close checklist item
// @Description  Mark a period close checklist item as completed by the caller
// @Tags         periods
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Period ID" format(uuid)
// @Param        code path string true "Checklist item code"
// @Success      200 {object} dto.Response{data=PeriodResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /periods/{id}/checklist/{code}/complete [post]
func (h *PeriodHandler) CompleteChecklistItem(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	periodID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid period ID format")
		return
	}

	code := c.Param("code")
	if code == "" {
		h.BadRequest(c, "Checklist item code required")
		return
	}

	period, err := h.periodService.CompleteChecklistItem(c.Request.Context(), tenantID, userID, periodID, code)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPeriodResponse(period))
}

// Close godoc
// @Summary      Close accounting period
// @Description  Close a period after its required checklist items are done and all earlier periods are closed
// @Tags         periods
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Period ID" format(uuid)
// @Success      200 {object} dto.Response{data=PeriodResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /periods/{id}/close [post]
func (h *PeriodHandler) Close(c *gin.Context) {
	h.periodTransition(c, h.periodService.Close)
}

// SoftClose godoc
// @Summary      Soft-close accounting period
// @Description  Restrict posting into an open period without running the full close checks
// @Tags         periods
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Period ID" format(uuid)
// @Success      200 {object} dto.Response{data=PeriodResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /periods/{id}/soft-close [post]
func (h *PeriodHandler) SoftClose(c *gin.Context) {
	h.periodTransition(c, h.periodService.SoftClose)
}

// Reopen godoc
// @Summary      Reopen accounting period
// @Description  Reopen a closed period when no later period is closed
// @Tags         periods
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Period ID" format(uuid)
// @Success      200 {object} dto.Response{data=PeriodResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /periods/{id}/reopen [post]
func (h *PeriodHandler) Reopen(c *gin.Context) {
	h.periodTransition(c, h.periodService.Reopen)
}

func (h *PeriodHandler) periodTransition(
	c *gin.Context,
	fn func(ctx context.Context, tenantID, actorID, periodID uuid.UUID) (*ledger.AccountingPeriod, error),
) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	periodID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid period ID format")
		return
	}

	period, err := fn(c.Request.Context(), tenantID, userID, periodID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toPeriodResponse(period))
}

// GetOpeningBalances godoc
// @Summary      Get staged opening balances
// @Description  Get the tenant's staged opening balance lines
// @Tags         periods
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Success      200 {object} dto.Response{data=[]OpeningBalanceLineResponse}
// @Security     BearerAuth
// @Router       /opening-balances [get]
func (h *PeriodHandler) GetOpeningBalances(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	lines, err := h.periodService.GetOpeningBalances(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toOpeningBalanceLineResponses(lines))
}

// UpsertOpeningBalances godoc
// @Summary      Stage opening balances
// @Description  Replace the staged opening balance set while the OPENING period is open
// @Tags         periods
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body UpsertOpeningBalancesRequest true "Opening balance lines"
// @Success      200 {object} dto.Response{data=[]OpeningBalanceLineResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /opening-balances [put]
func (h *PeriodHandler) UpsertOpeningBalances(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req UpsertOpeningBalancesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	inputs := make([]ledgerapp.OpeningBalanceInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		accountID, err := uuid.Parse(l.AccountID)
		if err != nil {
			h.BadRequest(c, "Invalid account_id in opening balance lines")
			return
		}
		legalEntityID, err := parseUUIDPtr(l.LegalEntityID)
		if err != nil {
			h.BadRequest(c, "Invalid legal_entity_id in opening balance lines")
			return
		}
		inputs = append(inputs, ledgerapp.OpeningBalanceInput{
			AccountID:     accountID,
			LegalEntityID: legalEntityID,
			Debit:         decimal.NewFromFloat(l.Debit),
			Credit:        decimal.NewFromFloat(l.Credit),
		})
	}

	lines, err := h.periodService.UpsertOpeningBalances(c.Request.Context(), tenantID, userID, inputs)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toOpeningBalanceLineResponses(lines))
}

// PostOpeningBalances godoc
// @Summary      Post opening balances
// @Description  Post the staged opening balances as a journal entry in the OPENING period
// @Tags         periods
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Success      201 {object} dto.Response{data=JournalResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /opening-balances/post [post]
func (h *PeriodHandler) PostOpeningBalances(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	je, err := h.periodService.PostOpeningBalances(c.Request.Context(), tenantID, userID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toJournalResponse(je))
}
