package integration

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openledger/backend/internal/domain/ledger"
	"github.com/openledger/backend/internal/infrastructure/persistence"
)

func TestSequenceAllocatorConcurrentAllocation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := NewTestDB(t)
	allocator := persistence.NewGormSequenceAllocator(db.DB)
	tenantID := uuid.New()

	const workers = 20
	results := make(chan int64, workers)
	errs := make(chan error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := allocator.Next(t.Context(), tenantID, ledger.SequenceJournalEntry)
			if err != nil {
				errs <- err
				return
			}
			results <- n
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	// Every worker must get a distinct number and the range must be gapless.
	seen := make(map[int64]bool, workers)
	for n := range results {
		assert.False(t, seen[n], "duplicate sequence number %d", n)
		assert.GreaterOrEqual(t, n, int64(1))
		assert.LessOrEqual(t, n, int64(workers))
		seen[n] = true
	}
	assert.Len(t, seen, workers)
}

func TestSequenceAllocatorIsolatedPerTenantAndName(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := NewTestDB(t)
	allocator := persistence.NewGormSequenceAllocator(db.DB)
	ctx := t.Context()

	tenantA := uuid.New()
	tenantB := uuid.New()

	for i := int64(1); i <= 3; i++ {
		n, err := allocator.Next(ctx, tenantA, ledger.SequenceJournalEntry)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	// A different tenant starts from 1 again.
	n, err := allocator.Next(ctx, tenantB, ledger.SequenceJournalEntry)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// A different counter name does not share the tenant's journal counter.
	n, err = allocator.Next(ctx, tenantA, "BATCH")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
