package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openledger/backend/internal/domain/ledger"
)

// GormSequenceAllocator implements ledger.SequenceAllocator with a per-tenant
// counter row. The increment takes a row lock, so concurrent allocations for
// the same tenant serialize and numbers come out gapless within a committed
// transaction.
type GormSequenceAllocator struct {
	db *gorm.DB
}

// NewGormSequenceAllocator creates a new GORM sequence allocator
func NewGormSequenceAllocator(db *gorm.DB) *GormSequenceAllocator {
	return &GormSequenceAllocator{db: db}
}

var _ ledger.SequenceAllocator = (*GormSequenceAllocator)(nil)

func (a *GormSequenceAllocator) Next(ctx context.Context, tenantID uuid.UUID, name string) (int64, error) {
	db := dbFromContext(ctx, a.db)

	err := db.WithContext(ctx).Exec(
		"INSERT INTO tenant_sequence_counters (tenant_id, name, value) VALUES (?, ?, 0) ON CONFLICT (tenant_id, name) DO NOTHING",
		tenantID, name,
	).Error
	if err != nil {
		return 0, fmt.Errorf("failed to ensure sequence counter: %w", err)
	}

	var next int64
	err = db.WithContext(ctx).Raw(
		"UPDATE tenant_sequence_counters SET value = value + 1 WHERE tenant_id = ? AND name = ? RETURNING value",
		tenantID, name,
	).Scan(&next).Error
	if err != nil {
		return 0, fmt.Errorf("failed to allocate sequence number: %w", err)
	}
	if next == 0 {
		return 0, fmt.Errorf("sequence counter missing for tenant %s name %s", tenantID, name)
	}
	return next, nil
}
