package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openledger/backend/internal/domain/ledger"
)

// GormBudgetRepository implements ledger.BudgetRepository using GORM
type GormBudgetRepository struct {
	db *gorm.DB
}

// NewGormBudgetRepository creates a new GORM budget repository
func NewGormBudgetRepository(db *gorm.DB) *GormBudgetRepository {
	return &GormBudgetRepository{db: db}
}

var _ ledger.BudgetRepository = (*GormBudgetRepository)(nil)

func (r *GormBudgetRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Budget, error) {
	db := dbFromContext(ctx, r.db)
	var budget ledger.Budget
	err := db.WithContext(ctx).
		Preload("Revisions", func(db *gorm.DB) *gorm.DB {
			return db.Order("revision_number ASC")
		}).
		Preload("Revisions.Lines").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find budget: %w", err)
	}
	return &budget, nil
}

func (r *GormBudgetRepository) FindActiveForFiscalYear(ctx context.Context, tenantID uuid.UUID, fiscalYear int) (*ledger.Budget, error) {
	db := dbFromContext(ctx, r.db)
	var budget ledger.Budget
	err := db.WithContext(ctx).
		Preload("Revisions", func(db *gorm.DB) *gorm.DB {
			return db.Order("revision_number ASC")
		}).
		Preload("Revisions.Lines").
		Where("tenant_id = ? AND fiscal_year = ? AND state = ?", tenantID, fiscalYear, ledger.BudgetStateActive).
		Order("approved_at DESC").
		First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find active budget: %w", err)
	}
	return &budget, nil
}

func (r *GormBudgetRepository) Save(ctx context.Context, budget *ledger.Budget) error {
	db := dbFromContext(ctx, r.db)
	err := db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Save(budget).Error
	if err != nil {
		return fmt.Errorf("failed to save budget: %w", err)
	}
	return nil
}
