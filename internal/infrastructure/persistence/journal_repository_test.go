package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openledger/backend/internal/domain/ledger"
)

func TestGormJournalRepository_FindByIDForTenant(t *testing.T) {
	tenantID := uuid.New()
	journalID := uuid.New()

	t.Run("loads entry with ordered lines", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()

		entryRows := sqlmock.NewRows([]string{
			"id", "tenant_id", "version", "journal_date", "type", "status", "created_by_id",
		}).AddRow(
			journalID, tenantID, 1, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			ledger.JournalTypeStandard, ledger.JournalStatusDraft, uuid.New(),
		)
		lineRows := sqlmock.NewRows([]string{
			"id", "journal_entry_id", "line_number", "account_id", "debit", "credit",
		}).
			AddRow(uuid.New(), journalID, 1, uuid.New(), "150.00", "0.00").
			AddRow(uuid.New(), journalID, 2, uuid.New(), "0.00", "150.00")

		mock.ExpectQuery(`SELECT \* FROM "journal_entries" WHERE tenant_id = \$1 AND id = \$2`).
			WithArgs(tenantID, journalID, 1).
			WillReturnRows(entryRows)
		mock.ExpectQuery(`SELECT \* FROM "journal_lines" WHERE "journal_lines"\."journal_entry_id" = \$1 ORDER BY line_number ASC`).
			WithArgs(journalID).
			WillReturnRows(lineRows)

		repo := NewGormJournalRepository(db)
		entry, err := repo.FindByIDForTenant(context.Background(), tenantID, journalID)

		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, journalID, entry.ID)
		require.Len(t, entry.Lines, 2)
		assert.Equal(t, 1, entry.Lines[0].LineNumber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil when missing", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "journal_entries" WHERE tenant_id = \$1 AND id = \$2`).
			WithArgs(tenantID, journalID, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		repo := NewGormJournalRepository(db)
		entry, err := repo.FindByIDForTenant(context.Background(), tenantID, journalID)

		assert.NoError(t, err)
		assert.Nil(t, entry)
	})
}

func TestGormJournalRepository_ExistsNonRejectedReversal(t *testing.T) {
	tenantID := uuid.New()
	originalID := uuid.New()

	t.Run("true when a live reversal exists", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "journal_entries" WHERE tenant_id = \$1 AND reversal_of_id = \$2 AND status <> \$3`).
			WithArgs(tenantID, originalID, ledger.JournalStatusRejected).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		repo := NewGormJournalRepository(db)
		exists, err := repo.ExistsNonRejectedReversal(context.Background(), tenantID, originalID)

		assert.NoError(t, err)
		assert.True(t, exists)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("false when only rejected reversals exist", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT count\(\*\) FROM "journal_entries"`).
			WithArgs(tenantID, originalID, ledger.JournalStatusRejected).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		repo := NewGormJournalRepository(db)
		exists, err := repo.ExistsNonRejectedReversal(context.Background(), tenantID, originalID)

		assert.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestGormJournalRepository_CountByStatusInDateRange(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "journal_entries" WHERE tenant_id = \$1 AND status = \$2 AND journal_date >= \$3 AND journal_date <= \$4`).
		WithArgs(tenantID, ledger.JournalStatusDraft, from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	repo := NewGormJournalRepository(db)
	count, err := repo.CountByStatusInDateRange(context.Background(), tenantID, ledger.JournalStatusDraft, from, to)

	assert.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormJournalRepository_CountRecentWarnsByActor(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	actorID := uuid.New()
	journalID := uuid.New()
	since := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "journal_entries" WHERE tenant_id = \$1 AND created_by_id = \$2 AND id <> \$3 AND budget_status = \$4 AND budget_checked_at >= \$5`).
		WithArgs(tenantID, actorID, journalID, ledger.BudgetStatusWarn, since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	repo := NewGormJournalRepository(db)
	count, err := repo.CountRecentWarnsByActor(context.Background(), tenantID, actorID, journalID, since)

	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestGormJournalRepository_TrialBalance(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()

	tenantID := uuid.New()
	cashID := uuid.New()
	revenueID := uuid.New()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"account_id", "account_code", "account_name", "total_debit", "total_credit",
	}).
		AddRow(cashID, "1000", "Cash", "500.00", "0.00").
		AddRow(revenueID, "4000", "Revenue", "0.00", "500.00")

	mock.ExpectQuery(`SELECT .+ FROM journal_lines JOIN journal_entries .+ GROUP BY`).
		WithArgs(tenantID, ledger.JournalStatusPosted, from, to).
		WillReturnRows(rows)

	repo := NewGormJournalRepository(db)
	result, err := repo.TrialBalance(context.Background(), tenantID, from, to)

	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "1000", result[0].AccountCode)
	assert.True(t, result[0].TotalDebit.Equal(result[1].TotalCredit))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormJournalRepository_DeleteLines(t *testing.T) {
	db, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()

	entryID := uuid.New()

	mock.ExpectExec(`DELETE FROM "journal_lines" WHERE journal_entry_id = \$1`).
		WithArgs(entryID).
		WillReturnResult(sqlmock.NewResult(0, 4))

	repo := NewGormJournalRepository(db)
	err := repo.DeleteLines(context.Background(), entryID)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
