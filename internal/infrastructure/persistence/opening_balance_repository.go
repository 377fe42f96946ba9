package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openledger/backend/internal/domain/ledger"
)

// GormOpeningBalanceRepository implements ledger.OpeningBalanceRepository using GORM
type GormOpeningBalanceRepository struct {
	db *gorm.DB
}

// NewGormOpeningBalanceRepository creates a new GORM opening balance repository
func NewGormOpeningBalanceRepository(db *gorm.DB) *GormOpeningBalanceRepository {
	return &GormOpeningBalanceRepository{db: db}
}

var _ ledger.OpeningBalanceRepository = (*GormOpeningBalanceRepository)(nil)

func (r *GormOpeningBalanceRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]ledger.OpeningBalanceLine, error) {
	db := dbFromContext(ctx, r.db)
	var lines []ledger.OpeningBalanceLine
	err := db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("account_id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list opening balance lines: %w", err)
	}
	return lines, nil
}

func (r *GormOpeningBalanceRepository) ReplaceForTenant(ctx context.Context, tenantID uuid.UUID, lines []ledger.OpeningBalanceLine) error {
	run := func(tx *gorm.DB) error {
		if err := tx.Where("tenant_id = ?", tenantID).Delete(&ledger.OpeningBalanceLine{}).Error; err != nil {
			return fmt.Errorf("failed to clear opening balance lines: %w", err)
		}
		if len(lines) == 0 {
			return nil
		}
		if err := tx.Create(&lines).Error; err != nil {
			return fmt.Errorf("failed to stage opening balance lines: %w", err)
		}
		return nil
	}
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return run(tx.WithContext(ctx))
	}
	return r.db.WithContext(ctx).Transaction(run)
}

func (r *GormOpeningBalanceRepository) DeleteAllForTenant(ctx context.Context, tenantID uuid.UUID) error {
	db := dbFromContext(ctx, r.db)
	err := db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Delete(&ledger.OpeningBalanceLine{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete opening balance lines: %w", err)
	}
	return nil
}
