package integration

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/openledger/backend/internal/domain/ledger"
	"github.com/openledger/backend/internal/domain/shared"
)

// seedWarnJournal inserts a journal row carrying a budget WARN with the given
// accounting date and check timestamp.
func (e *ledgerEnv) seedWarnJournal(creatorID uuid.UUID, journalDate, checkedAt time.Time) *ledger.JournalEntry {
	e.t.Helper()

	je := &ledger.JournalEntry{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(e.tenantID),
		JournalDate:         journalDate,
		Type:                ledger.JournalTypeStandard,
		Status:              ledger.JournalStatusSubmitted,
		CreatedByID:         creatorID,
		BudgetStatus:        ledger.BudgetStatusWarn,
		BudgetCheckedAt:     &checkedAt,
	}
	require.NoError(e.t, e.db.DB.Create(je).Error)
	return je
}

func TestCountRecentWarnsByActorUsesCheckTimestamp(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := newLedgerEnv(t)
	creator := uuid.New()
	current := uuid.New()
	now := time.Now().UTC()
	since := now.Add(-30 * 24 * time.Hour)

	// Backdated journal whose WARN was recorded an hour ago: the accounting
	// date is outside the window but the check timestamp is inside it.
	env.seedWarnJournal(creator, now.Add(-60*24*time.Hour), now.Add(-time.Hour))

	count, err := env.journals.CountRecentWarnsByActor(t.Context(), env.tenantID, creator, current, since)
	require.NoError(t, err)
	require.Equal(t, int64(1), count, "a warning recorded an hour ago counts in the trailing window")

	// Recently dated journal whose WARN was recorded before the window opened
	// must not count.
	env.seedWarnJournal(creator, now.Add(-24*time.Hour), now.Add(-45*24*time.Hour))

	count, err = env.journals.CountRecentWarnsByActor(t.Context(), env.tenantID, creator, current, since)
	require.NoError(t, err)
	require.Equal(t, int64(1), count, "a stale warning on a freshly dated journal stays out of the window")
}
