package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	ledgerapp "github.com/openledger/backend/internal/application/ledger"
	"github.com/openledger/backend/internal/domain/ledger"
	"github.com/openledger/backend/internal/domain/shared"
)

type reportHandlerFixture struct {
	tenantID uuid.UUID

	journals *MockJournalRepository
	accounts *MockAccountRepository

	router  *gin.Engine
	handler *ReportHandler
}

func newReportHandlerFixture(t *testing.T) *reportHandlerFixture {
	t.Helper()
	f := &reportHandlerFixture{
		tenantID: uuid.New(),
		journals: &MockJournalRepository{},
		accounts: &MockAccountRepository{},
	}

	service := ledgerapp.NewReportingService(f.journals, f.accounts, zap.NewNop())
	f.handler = NewReportHandler(service)

	f.router = gin.New()
	f.router.Use(func(c *gin.Context) {
		setJWTContext(c, f.tenantID, uuid.New())
		c.Next()
	})

	return f
}

func TestReportHandler_TrialBalance(t *testing.T) {
	t.Run("aggregates and reports balanced totals", func(t *testing.T) {
		f := newReportHandlerFixture(t)
		f.router.GET("/reports/trial-balance", f.handler.TrialBalance)

		from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
		rows := []ledger.TrialBalanceRow{
			{AccountID: uuid.New(), AccountCode: "1000", AccountName: "Cash",
				TotalDebit: decimal.NewFromInt(500), TotalCredit: decimal.NewFromInt(2000)},
			{AccountID: uuid.New(), AccountCode: "6000", AccountName: "Rent expense",
				TotalDebit: decimal.NewFromInt(1500), TotalCredit: decimal.Zero},
		}
		f.journals.On("TrialBalance", mock.Anything, f.tenantID, from, to).Return(rows, nil)

		req := httptest.NewRequest(http.MethodGet,
			"/reports/trial-balance?from=2026-03-01&to=2026-03-31", nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data TrialBalanceResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data.Rows, 2)
		assert.Equal(t, 2000.0, resp.Data.TotalDebit)
		assert.Equal(t, 2000.0, resp.Data.TotalCredit)
		assert.True(t, resp.Data.Balanced)
		assert.Equal(t, "2026-03-01", resp.Data.From)
		assert.Equal(t, "2026-03-31", resp.Data.To)
	})

	t.Run("flags an out-of-balance ledger", func(t *testing.T) {
		f := newReportHandlerFixture(t)
		f.router.GET("/reports/trial-balance", f.handler.TrialBalance)

		rows := []ledger.TrialBalanceRow{
			{AccountID: uuid.New(), AccountCode: "1000",
				TotalDebit: decimal.NewFromInt(100), TotalCredit: decimal.NewFromInt(75)},
		}
		f.journals.On("TrialBalance", mock.Anything, f.tenantID, mock.Anything, mock.Anything).Return(rows, nil)

		req := httptest.NewRequest(http.MethodGet,
			"/reports/trial-balance?from=2026-03-01&to=2026-03-31", nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data TrialBalanceResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Data.Balanced)
	})

	t.Run("rejects an inverted range", func(t *testing.T) {
		f := newReportHandlerFixture(t)
		f.router.GET("/reports/trial-balance", f.handler.TrialBalance)

		req := httptest.NewRequest(http.MethodGet,
			"/reports/trial-balance?from=2026-03-31&to=2026-03-01", nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
	})

	t.Run("rejects a malformed date", func(t *testing.T) {
		f := newReportHandlerFixture(t)
		f.router.GET("/reports/trial-balance", f.handler.TrialBalance)

		req := httptest.NewRequest(http.MethodGet, "/reports/trial-balance?from=Q1", nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReportHandler_Ledger(t *testing.T) {
	t.Run("pages one account's posted lines", func(t *testing.T) {
		f := newReportHandlerFixture(t)
		f.router.GET("/reports/ledger/:account_id", f.handler.Ledger)

		account := &ledger.Account{
			TenantAggregateRoot: shared.NewTenantAggregateRoot(f.tenantID),
			Code:                "1000",
			Type:                ledger.AccountTypeAsset,
			Active:              true,
			AllowPosting:        true,
		}
		account.ID = uuid.New()
		f.accounts.On("FindByIDForTenant", mock.Anything, f.tenantID, account.ID).Return(account, nil)

		rows := []ledger.LedgerRow{
			{JournalEntryID: uuid.New(), JournalNumber: 7,
				JournalDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
				LineNumber:  1, Debit: decimal.NewFromInt(250), Credit: decimal.Zero},
		}
		f.journals.On("Ledger", mock.Anything, f.tenantID, account.ID, mock.Anything, mock.Anything, 2, 10).
			Return(rows, int64(11), nil)

		req := httptest.NewRequest(http.MethodGet,
			"/reports/ledger/"+account.ID.String()+"?from=2026-03-01&to=2026-03-31&page=2&page_size=10", nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data LedgerResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "1000", resp.Data.AccountCode)
		require.Len(t, resp.Data.Rows, 1)
		assert.Equal(t, int64(7), resp.Data.Rows[0].JournalNumber)
		assert.Equal(t, int64(11), resp.Data.Total)
		assert.Equal(t, 2, resp.Data.Page)
	})

	t.Run("returns 404 for an unknown account", func(t *testing.T) {
		f := newReportHandlerFixture(t)
		f.router.GET("/reports/ledger/:account_id", f.handler.Ledger)

		missing := uuid.New()
		f.accounts.On("FindByIDForTenant", mock.Anything, f.tenantID, missing).Return(nil, nil)

		req := httptest.NewRequest(http.MethodGet, "/reports/ledger/"+missing.String(), nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("rejects a malformed account ID", func(t *testing.T) {
		f := newReportHandlerFixture(t)
		f.router.GET("/reports/ledger/:account_id", f.handler.Ledger)

		req := httptest.NewRequest(http.MethodGet, "/reports/ledger/not-a-uuid", nil)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
