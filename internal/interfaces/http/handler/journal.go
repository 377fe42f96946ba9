package handler

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerapp "github.com/openledger/backend/internal/application/ledger"
	"github.com/openledger/backend/internal/domain/ledger"
)

// JournalHandler handles journal entry API endpoints
type JournalHandler struct {
	BaseHandler
	journalService *ledgerapp.JournalService
}

// NewJournalHandler creates a new JournalHandler
func NewJournalHandler(journalService *ledgerapp.JournalService) *JournalHandler {
	return &JournalHandler{
		journalService: journalService,
	}
}

// toLineInputs converts request lines to application line inputs
func toLineInputs(lines []JournalLineRequest) ([]ledgerapp.JournalLineInput, error) {
	inputs := make([]ledgerapp.JournalLineInput, 0, len(lines))
	for _, l := range lines {
		accountID, err := uuid.Parse(l.AccountID)
		if err != nil {
			return nil, err
		}
		legalEntityID, err := parseUUIDPtr(l.LegalEntityID)
		if err != nil {
			return nil, err
		}
		departmentID, err := parseUUIDPtr(l.DepartmentID)
		if err != nil {
			return nil, err
		}
		projectID, err := parseUUIDPtr(l.ProjectID)
		if err != nil {
			return nil, err
		}
		fundID, err := parseUUIDPtr(l.FundID)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, ledgerapp.JournalLineInput{
			AccountID:     accountID,
			LegalEntityID: legalEntityID,
			DepartmentID:  departmentID,
			ProjectID:     projectID,
			FundID:        fundID,
			Debit:         decimal.NewFromFloat(l.Debit),
			Credit:        decimal.NewFromFloat(l.Credit),
			Description:   l.Description,
		})
	}
	return inputs, nil
}

// Create godoc
// @Summary      Create draft journal entry
// @Description  Create a new journal entry in DRAFT status with its lines
// @Tags         journals
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body CreateJournalRequest true "Journal entry to create"
// @Success      201 {object} dto.Response{data=JournalResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /journals [post]
func (h *JournalHandler) Create(c *gin.Context) {
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

	var req CreateJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	journalDate, err := parseDateOnly(req.JournalDate)
	if err != nil {
		h.BadRequest(c, "Invalid journal_date format. Expected YYYY-MM-DD")
		return
	}

	correctsID, err := parseUUIDPtr(req.CorrectsJournalID)
	if err != nil {
		h.BadRequest(c, "Invalid corrects_journal_id format")
		return
	}

	lines, err := toLineInputs(req.Lines)
	if err != nil {
		h.BadRequest(c, "Invalid UUID in journal lines")
		return
	}

	input := ledgerapp.CreateJournalInput{
		Type:              ledger.JournalType(req.Type),
		JournalDate:       journalDate,
		Reference:         req.Reference,
		Description:       req.Description,
		CorrectsJournalID: correctsID,
		Lines:             lines,
	}

	je, err := h.journalService.CreateDraft(c.Request.Context(), tenantID, userID, input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toJournalResponse(je))
}

// Update godoc
// @Summary      Update journal entry
// @Description  Replace the header and lines of a DRAFT or REJECTED journal entry
// @Tags         journals
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Journal Entry ID" format(uuid)
// @Param        request body UpdateJournalRequest true "Updated journal entry"
// @Success      200 {object} dto.Response{data=JournalResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /journals/{id} [put]
func (h *JournalHandler) Update(c *gin.Context) {
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

	journalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid journal ID format")
		return
	}

	var req UpdateJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	journalDate, err := parseDateOnly(req.JournalDate)
	if err != nil {
		h.BadRequest(c, "Invalid journal_date format. Expected YYYY-MM-DD")
		return
	}

	lines, err := toLineInputs(req.Lines)
	if err != nil {
		h.BadRequest(c, "Invalid UUID in journal lines")
		return
	}

	input := ledgerapp.UpdateJournalInput{
		JournalDate:                 journalDate,
		Reference:                   req.Reference,
		Description:                 req.Description,
		BudgetOverrideJustification: req.BudgetOverrideJustification,
		Lines:                       lines,
	}

	je, err := h.journalService.UpdateDraft(c.Request.Context(), tenantID, userID, journalID, input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toJournalResponse(je))
}

// Submit godoc
// @Summary      Submit journal entry
// @Description  Move a DRAFT or REJECTED journal entry to SUBMITTED, running validation and budget checks
// @Tags         journals
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Journal Entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=JournalResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /journals/{id}/submit [post]
func (h *JournalHandler) Submit(c *gin.Context) {
	h.transition(c, h.journalService.Submit)
}

// Review godoc
// @Summary      Review journal entry
// @Description  Approve a SUBMITTED journal entry, enforcing segregation of duties
// @Tags         journals
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Journal Entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=JournalResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /journals/{id}/review [post]
func (h *JournalHandler) Review(c *gin.Context) {
	h.transition(c, h.journalService.Review)
}

// Post godoc
// @Summary      Post journal entry
// @Description  Post a REVIEWED journal entry to the ledger, assigning its journal number
// @Tags         journals
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Journal Entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=JournalResponse}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /journals/{id}/post [post]
func (h *JournalHandler) Post(c *gin.Context) {
	h.transition(c, h.journalService.Post)
}

// Park godoc
// @Summary      Park journal entry
// @Description  Park a REVIEWED journal entry, deferring posting without losing approval
// @Tags         journals
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Journal Entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=JournalResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /journals/{id}/park [post]
func (h *JournalHandler) Park(c *gin.Context) {
	h.transition(c, h.journalService.Park)
}

// transition runs a reason-less workflow transition shared by submit,
// review, post and park.
func (h *JournalHandler) transition(
	c *gin.Context,
	fn func(ctx context.Context, tenantID, actorID, journalID uuid.UUID) (*ledger.JournalEntry, error),
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

	journalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid journal ID format")
		return
	}

	je, err := fn(c.Request.Context(), tenantID, userID, journalID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toJournalResponse(je))
}

// Reject godoc
// @Summary      Reject journal entry
// @Description  Reject a SUBMITTED journal entry with a reason, returning it to the preparer
// @Tags         journals
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Journal Entry ID" format(uuid)
// @Param        request body RejectJournalRequest true "Rejection reason"
// @Success      200 {object} dto.Response{data=JournalResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /journals/{id}/reject [post]
func (h *JournalHandler) Reject(c *gin.Context) {
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

	journalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid journal ID format")
		return
	}

	var req RejectJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	je, err := h.journalService.Reject(c.Request.Context(), tenantID, userID, journalID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toJournalResponse(je))
}

// ReturnToReview godoc
// @Summary      Return journal entry to review
// @Description  Return a REVIEWED journal entry to SUBMITTED when the poster finds a problem
// @Tags         journals
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Journal Entry ID" format(uuid)
// @Param        request body ReturnJournalRequest true "Return reason"
// @Success      200 {object} dto.Response{data=JournalResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /journals/{id}/return [post]
func (h *JournalHandler) ReturnToReview(c *gin.Context) {
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

	journalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid journal ID format")
		return
	}

	var req ReturnJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	je, err := h.journalService.ReturnToReview(c.Request.Context(), tenantID, userID, journalID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toJournalResponse(je))
}

// Reverse godoc
// @Summary      Reverse posted journal entry
// @Description  Create and post a reversing entry that mirrors a POSTED journal entry
// @Tags         journals
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Journal Entry ID" format(uuid)
// @Param        request body ReverseJournalRequest true "Reversal details"
// @Success      201 {object} dto.Response{data=JournalResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /journals/{id}/reverse [post]
func (h *JournalHandler) Reverse(c *gin.Context) {
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

	journalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid journal ID format")
		return
	}

	var req ReverseJournalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := ledgerapp.ReverseJournalInput{
		Reason:      req.Reason,
		Reference:   req.Reference,
		Description: req.Description,
	}
	if req.ReversalDate != nil {
		reversalDate, err := parseDateOnly(*req.ReversalDate)
		if err != nil {
			h.BadRequest(c, "Invalid reversal_date format. Expected YYYY-MM-DD")
			return
		}
		input.ReversalDate = &reversalDate
	}

	je, err := h.journalService.Reverse(c.Request.Context(), tenantID, userID, journalID, input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, toJournalResponse(je))
}

// Get godoc
// @Summary      Get journal entry
// @Description  Get a journal entry by ID including its lines
// @Tags         journals
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        id path string true "Journal Entry ID" format(uuid)
// @Success      200 {object} dto.Response{data=JournalResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /journals/{id} [get]
func (h *JournalHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	journalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid journal ID format")
		return
	}

	je, err := h.journalService.Get(c.Request.Context(), tenantID, journalID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, toJournalResponse(je))
}

// List godoc
// @Summary      List journal entries
// @Description  List journal entries with filtering and pagination
// @Tags         journals
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        status query string false "Filter by workflow status" Enums(DRAFT, SUBMITTED, REVIEWED, REJECTED, PARKED, POSTED)
// @Param        budget_status query string false "Filter by budget status" Enums(OK, WARN, BLOCKED)
// @Param        type query string false "Filter by journal type" Enums(STANDARD, ADJUSTING, ACCRUAL, REVERSING)
// @Param        period_id query string false "Filter by accounting period" format(uuid)
// @Param        date_from query string false "Journal date lower bound (YYYY-MM-DD)"
// @Param        date_to query string false "Journal date upper bound (YYYY-MM-DD)"
// @Param        account_id query string false "Filter by account on any line" format(uuid)
// @Param        legal_entity_id query string false "Filter by legal entity on any line" format(uuid)
// @Param        department_id query string false "Filter by department on any line" format(uuid)
// @Param        project_id query string false "Filter by project on any line" format(uuid)
// @Param        fund_id query string false "Filter by fund on any line" format(uuid)
// @Param        risk_score_min query int false "Minimum risk score"
// @Param        risk_score_max query int false "Maximum risk score"
// @Param        created_by query string false "Filter by preparer" format(uuid)
// @Param        posted_by query string false "Filter by poster" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]JournalResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /journals [get]
func (h *JournalHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	filter, err := parseJournalListFilter(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.journalService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, toJournalResponses(result.Items), result.Total, result.Page, result.PageSize)
}

func parseJournalListFilter(c *gin.Context) (ledger.JournalListFilter, error) {
	var filter ledger.JournalListFilter

	if v := c.Query("status"); v != "" {
		status := ledger.JournalStatus(v)
		if !status.IsValid() {
			return filter, fmt.Errorf("invalid status value: %s", v)
		}
		filter.Status = &status
	}
	if v := c.Query("budget_status"); v != "" {
		budgetStatus := ledger.BudgetStatus(v)
		if !budgetStatus.IsValid() {
			return filter, fmt.Errorf("invalid budget_status value: %s", v)
		}
		filter.BudgetStatus = &budgetStatus
	}
	if v := c.Query("type"); v != "" {
		journalType := ledger.JournalType(v)
		if !journalType.IsValid() {
			return filter, fmt.Errorf("invalid type value: %s", v)
		}
		filter.Type = &journalType
	}
	if v := c.Query("date_from"); v != "" {
		from, err := parseDateOnly(v)
		if err != nil {
			return filter, errInvalidQueryDate("date_from")
		}
		filter.DateFrom = &from
	}
	if v := c.Query("date_to"); v != "" {
		to, err := parseDateOnly(v)
		if err != nil {
			return filter, errInvalidQueryDate("date_to")
		}
		filter.DateTo = &to
	}

	uuidParams := []struct {
		name   string
		target **uuid.UUID
	}{
		{"period_id", &filter.PeriodID},
		{"account_id", &filter.AccountID},
		{"legal_entity_id", &filter.LegalEntityID},
		{"department_id", &filter.DepartmentID},
		{"project_id", &filter.ProjectID},
		{"fund_id", &filter.FundID},
		{"created_by", &filter.CreatedByID},
		{"posted_by", &filter.PostedByID},
	}
	for _, p := range uuidParams {
		if v := c.Query(p.name); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				return filter, errInvalidQueryUUID(p.name)
			}
			*p.target = &id
		}
	}

	if v := c.Query("risk_score_min"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, errInvalidQueryInt("risk_score_min")
		}
		filter.RiskScoreMin = &n
	}
	if v := c.Query("risk_score_max"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return filter, errInvalidQueryInt("risk_score_max")
		}
		filter.RiskScoreMax = &n
	}

	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	return filter, nil
}

func errInvalidQueryDate(name string) error {
	return fmt.Errorf("invalid %s: expected YYYY-MM-DD", name)
}

func errInvalidQueryUUID(name string) error {
	return fmt.Errorf("invalid %s: expected UUID", name)
}

func errInvalidQueryInt(name string) error {
	return fmt.Errorf("invalid %s: expected integer", name)
}
