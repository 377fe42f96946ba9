package handler

import (
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	ledgerapp "github.com/openledger/backend/internal/application/ledger"
	csvimport "github.com/openledger/backend/internal/infrastructure/import"
	"github.com/openledger/backend/internal/interfaces/http/dto"
)

const maxImportFileSize = 10 * 1024 * 1024

// OpeningBalanceImportHandler handles opening balance CSV import
type OpeningBalanceImportHandler struct {
	BaseHandler
	importService *ledgerapp.OpeningBalanceImportService
	sessionStore  csvimport.SessionStore
	// validated rows held between validate and import calls
	validRowsStore     map[uuid.UUID][]*csvimport.Row
	validRowsStoreMu   sync.RWMutex
	validRowsCleanupCh chan struct{}
}

// NewOpeningBalanceImportHandler creates a new OpeningBalanceImportHandler
func NewOpeningBalanceImportHandler(importService *ledgerapp.OpeningBalanceImportService) *OpeningBalanceImportHandler {
	h := &OpeningBalanceImportHandler{
		importService:      importService,
		sessionStore:       csvimport.NewInMemorySessionStore(15 * time.Minute),
		validRowsStore:     make(map[uuid.UUID][]*csvimport.Row),
		validRowsCleanupCh: make(chan struct{}),
	}
	go h.cleanupValidRowsStore()
	return h
}

func (h *OpeningBalanceImportHandler) cleanupValidRowsStore() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.validRowsStoreMu.Lock()
			for sessionID := range h.validRowsStore {
				session, _ := h.sessionStore.Get(sessionID)
				if session == nil {
					delete(h.validRowsStore, sessionID)
				}
			}
			h.validRowsStoreMu.Unlock()
		case <-h.validRowsCleanupCh:
			return
		}
	}
}

// Stop stops the background cleanup goroutine
func (h *OpeningBalanceImportHandler) Stop() {
	close(h.validRowsCleanupCh)
}

// OpeningBalanceImportRequest represents the request to import staged balances
type OpeningBalanceImportRequest struct {
	ValidationID string `json:"validation_id" binding:"required"`
}

// OpeningBalanceValidationResponse represents the CSV validation result
// @Description Response from opening balance CSV validation
type OpeningBalanceValidationResponse struct {
	ValidationID string               `json:"validation_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TotalRows    int                  `json:"total_rows" example:"100"`
	ValidRows    int                  `json:"valid_rows" example:"98"`
	ErrorRows    int                  `json:"error_rows" example:"2"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
	Preview      []map[string]any     `json:"preview,omitempty"`
	IsTruncated  bool                 `json:"is_truncated,omitempty"`
	TotalErrors  int                  `json:"total_errors,omitempty"`
}

// OpeningBalanceImportResponse represents the import result
// @Description Response from opening balance bulk import
type OpeningBalanceImportResponse struct {
	TotalRows    int                  `json:"total_rows" example:"100"`
	ImportedRows int                  `json:"imported_rows" example:"100"`
	ErrorRows    int                  `json:"error_rows" example:"0"`
	Errors       []csvimport.RowError `json:"errors,omitempty"`
}

// Validate godoc
// @Summary      Validate opening balance CSV
// @Description  Validates an opening balance CSV file without staging the data
// @Tags         import
// @Accept       multipart/form-data
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        file formData file true "CSV file to validate"
// @Success      200 {object} dto.Response{data=OpeningBalanceValidationResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      415 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /import/opening-balances/validate [post]
func (h *OpeningBalanceImportHandler) Validate(c *gin.Context) {
	ctx := c.Request.Context()

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

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if header.Size > maxImportFileSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeBadRequest, "file exceeds maximum size of 10MB")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType != "" && contentType != "text/csv" && contentType != "application/octet-stream" &&
		contentType != "text/plain" && contentType != "application/vnd.ms-excel" {
		h.Error(c, http.StatusUnsupportedMediaType, dto.ErrCodeBadRequest, "file must be a CSV file")
		return
	}

	session := csvimport.NewImportSession(tenantID, userID, csvimport.EntityOpeningBalances, header.Filename, header.Size)

	processor := csvimport.NewImportProcessor(
		csvimport.WithReferenceLookup(func(refType, value string) (bool, error) {
			if refType == "account" {
				return h.importService.LookupAccount(ctx, tenantID, value)
			}
			return true, nil
		}),
	)

	result, err := processor.Validate(ctx, session, file, h.importService.GetValidationRules())
	if err != nil {
		switch {
		case errors.Is(err, csvimport.ErrEmptyFile):
			h.BadRequest(c, "CSV file is empty")
		case errors.Is(err, csvimport.ErrInvalidEncoding):
			h.BadRequest(c, "CSV file has invalid encoding, must be UTF-8")
		case errors.Is(err, csvimport.ErrMissingHeader):
			h.BadRequest(c, "CSV file is missing header row")
		default:
			h.InternalError(c, "failed to validate file: "+err.Error())
		}
		return
	}

	// Re-read the file to capture the valid rows for the import call
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		h.InternalError(c, "Failed to process file")
		return
	}
	if parser, err := csvimport.NewCSVParser(file); err == nil {
		if err := parser.ParseHeader(); err == nil {
			errorRows := make(map[int]bool)
			for _, e := range result.Errors {
				errorRows[e.Row] = true
			}

			var validRows []*csvimport.Row
			for {
				row, err := parser.ReadRow()
				if err == io.EOF {
					break
				}
				if err != nil || row.IsEmpty() {
					continue
				}
				if !errorRows[row.LineNumber] {
					validRows = append(validRows, row)
				}
			}

			if len(validRows) > 0 {
				h.validRowsStoreMu.Lock()
				h.validRowsStore[session.ID] = validRows
				h.validRowsStoreMu.Unlock()
			}
		}
	}

	if err := h.sessionStore.Save(session); err != nil {
		h.InternalError(c, "failed to save import session")
		return
	}

	h.Success(c, OpeningBalanceValidationResponse{
		ValidationID: result.ValidationID,
		TotalRows:    result.TotalRows,
		ValidRows:    result.ValidRows,
		ErrorRows:    result.ErrorRows,
		Errors:       result.Errors,
		Preview:      result.Preview,
		IsTruncated:  result.IsTruncated,
		TotalErrors:  result.TotalErrors,
	})
}

// Import godoc
// @Summary      Import opening balances from validated CSV
// @Description  Stages opening balances from a previously validated CSV file, replacing the current staged set
// @Tags         import
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string false "Tenant ID (optional for dev)"
// @Param        request body OpeningBalanceImportRequest true "Import request"
// @Success      200 {object} dto.Response{data=OpeningBalanceImportResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /import/opening-balances [post]
func (h *OpeningBalanceImportHandler) Import(c *gin.Context) {
	ctx := c.Request.Context()

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

	var req OpeningBalanceImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	validationID, err := uuid.Parse(req.ValidationID)
	if err != nil {
		h.BadRequest(c, "Invalid validation_id")
		return
	}

	session, err := h.sessionStore.Get(validationID)
	if err != nil {
		h.InternalError(c, "failed to retrieve session")
		return
	}
	if session == nil || session.TenantID != tenantID {
		h.NotFound(c, "Import session not found or expired")
		return
	}
	if session.State != csvimport.StateValidated {
		h.BadRequest(c, "Session must be validated before import. Current state: "+string(session.State))
		return
	}

	h.validRowsStoreMu.RLock()
	validRows := h.validRowsStore[validationID]
	h.validRowsStoreMu.RUnlock()

	if len(validRows) == 0 {
		h.BadRequest(c, "No valid rows found for import. Please re-validate the file.")
		return
	}

	result, err := h.importService.Import(ctx, tenantID, userID, session, validRows)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.validRowsStoreMu.Lock()
	delete(h.validRowsStore, validationID)
	h.validRowsStoreMu.Unlock()

	if err := h.sessionStore.Save(session); err != nil {
		h.InternalError(c, "failed to update import session")
		return
	}

	h.Success(c, OpeningBalanceImportResponse{
		TotalRows:    result.TotalRows,
		ImportedRows: result.ImportedRows,
		ErrorRows:    result.ErrorRows,
		Errors:       result.Errors,
	})
}
