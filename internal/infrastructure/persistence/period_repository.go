package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openledger/backend/internal/domain/ledger"
	"github.com/openledger/backend/internal/domain/shared"
)

// GormPeriodRepository implements ledger.PeriodRepository using GORM
type GormPeriodRepository struct {
	db *gorm.DB
}

// NewGormPeriodRepository creates a new GORM period repository
func NewGormPeriodRepository(db *gorm.DB) *GormPeriodRepository {
	return &GormPeriodRepository{db: db}
}

var _ ledger.PeriodRepository = (*GormPeriodRepository)(nil)

func (r *GormPeriodRepository) findOne(ctx context.Context, conds string, args ...any) (*ledger.AccountingPeriod, error) {
	db := dbFromContext(ctx, r.db)
	var period ledger.AccountingPeriod
	err := db.WithContext(ctx).
		Preload("ChecklistItems").
		Where(conds, args...).
		First(&period).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find accounting period: %w", err)
	}
	return &period, nil
}

func (r *GormPeriodRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.AccountingPeriod, error) {
	return r.findOne(ctx, "tenant_id = ? AND id = ?", tenantID, id)
}

func (r *GormPeriodRepository) FindByCodeForTenant(ctx context.Context, tenantID uuid.UUID, code string) (*ledger.AccountingPeriod, error) {
	return r.findOne(ctx, "tenant_id = ? AND code = ?", tenantID, code)
}

func (r *GormPeriodRepository) FindByDateForTenant(ctx context.Context, tenantID uuid.UUID, date time.Time) (*ledger.AccountingPeriod, error) {
	return r.findOne(ctx, "tenant_id = ? AND start_date <= ? AND end_date >= ?", tenantID, date, date)
}

func (r *GormPeriodRepository) FindLatestClosedOpeningForTenant(ctx context.Context, tenantID uuid.UUID) (*ledger.AccountingPeriod, error) {
	db := dbFromContext(ctx, r.db)
	var period ledger.AccountingPeriod
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND type = ? AND status = ?", tenantID, ledger.PeriodTypeOpening, ledger.PeriodStatusClosed).
		Order("start_date DESC").
		First(&period).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find closed opening period: %w", err)
	}
	return &period, nil
}

func (r *GormPeriodRepository) FindNextOpenForTenant(ctx context.Context, tenantID uuid.UUID, after time.Time) (*ledger.AccountingPeriod, error) {
	db := dbFromContext(ctx, r.db)
	var period ledger.AccountingPeriod
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND status = ? AND start_date >= ?", tenantID, ledger.PeriodStatusOpen, after).
		Order("start_date ASC").
		First(&period).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find next open period: %w", err)
	}
	return &period, nil
}

func (r *GormPeriodRepository) FindOverlappingForTenant(ctx context.Context, tenantID uuid.UUID, start, end time.Time) (*ledger.AccountingPeriod, error) {
	return r.findOne(ctx, "tenant_id = ? AND start_date <= ? AND end_date >= ?", tenantID, end, start)
}

func (r *GormPeriodRepository) FindOpeningForTenant(ctx context.Context, tenantID uuid.UUID) (*ledger.AccountingPeriod, error) {
	return r.findOne(ctx, "tenant_id = ? AND type = ?", tenantID, ledger.PeriodTypeOpening)
}

func (r *GormPeriodRepository) ExistsLaterWithStatus(ctx context.Context, tenantID uuid.UUID, after time.Time, status ledger.PeriodStatus) (bool, error) {
	db := dbFromContext(ctx, r.db)
	var count int64
	err := db.WithContext(ctx).Model(&ledger.AccountingPeriod{}).
		Where("tenant_id = ? AND start_date > ? AND status = ?", tenantID, after, status).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check later periods: %w", err)
	}
	return count > 0, nil
}

func (r *GormPeriodRepository) ExistsEarlierWithStatus(ctx context.Context, tenantID uuid.UUID, before time.Time, status ledger.PeriodStatus) (bool, error) {
	db := dbFromContext(ctx, r.db)
	var count int64
	err := db.WithContext(ctx).Model(&ledger.AccountingPeriod{}).
		Where("tenant_id = ? AND start_date < ? AND status = ?", tenantID, before, status).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check earlier periods: %w", err)
	}
	return count > 0, nil
}

func (r *GormPeriodRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ledger.AccountingPeriod, error) {
	db := dbFromContext(ctx, r.db)
	query := db.WithContext(ctx).Where("tenant_id = ?", tenantID)

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if t, ok := filter.Filters["type"]; ok {
		query = query.Where("type = ?", t)
	}

	var periods []ledger.AccountingPeriod
	err := query.
		Preload("ChecklistItems").
		Order("start_date ASC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&periods).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list accounting periods: %w", err)
	}
	return periods, nil
}

func (r *GormPeriodRepository) Save(ctx context.Context, period *ledger.AccountingPeriod) error {
	db := dbFromContext(ctx, r.db)
	err := db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Save(period).Error
	if err != nil {
		return fmt.Errorf("failed to save accounting period: %w", err)
	}
	return nil
}
