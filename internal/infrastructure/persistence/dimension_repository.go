package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openledger/backend/internal/domain/ledger"
)

// GormDimensionRepository implements ledger.DimensionRepository using GORM
type GormDimensionRepository struct {
	db *gorm.DB
}

// NewGormDimensionRepository creates a new GORM dimension repository
func NewGormDimensionRepository(db *gorm.DB) *GormDimensionRepository {
	return &GormDimensionRepository{db: db}
}

var _ ledger.DimensionRepository = (*GormDimensionRepository)(nil)

func findDimension[T any](ctx context.Context, db *gorm.DB, tenantID, id uuid.UUID, kind string) (*T, error) {
	var entity T
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find %s: %w", kind, err)
	}
	return &entity, nil
}

func (r *GormDimensionRepository) FindLegalEntityForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.LegalEntity, error) {
	return findDimension[ledger.LegalEntity](ctx, dbFromContext(ctx, r.db), tenantID, id, "legal entity")
}

func (r *GormDimensionRepository) FindDepartmentForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Department, error) {
	return findDimension[ledger.Department](ctx, dbFromContext(ctx, r.db), tenantID, id, "department")
}

func (r *GormDimensionRepository) FindProjectForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Project, error) {
	return findDimension[ledger.Project](ctx, dbFromContext(ctx, r.db), tenantID, id, "project")
}

func (r *GormDimensionRepository) FindFundForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.Fund, error) {
	return findDimension[ledger.Fund](ctx, dbFromContext(ctx, r.db), tenantID, id, "fund")
}
