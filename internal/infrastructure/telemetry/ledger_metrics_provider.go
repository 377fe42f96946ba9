// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLedgerMetricsProvider implements LedgerMetricsProvider using GORM.
// It queries the journal and period tables directly for aggregated metrics.
type GormLedgerMetricsProvider struct {
	db *gorm.DB
}

// NewGormLedgerMetricsProvider creates a new GormLedgerMetricsProvider.
func NewGormLedgerMetricsProvider(db *gorm.DB) *GormLedgerMetricsProvider {
	return &GormLedgerMetricsProvider{db: db}
}

// GetPendingApprovalCount returns the number of journals awaiting review for a tenant.
func (p *GormLedgerMetricsProvider) GetPendingApprovalCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("journal_entries").
		Where("tenant_id = ? AND status IN ?", tenantID, []string{"SUBMITTED", "REVIEWED"}).
		Count(&count).Error

	return count, err
}

// GetOpenPeriodCount returns the number of currently open accounting periods for a tenant.
func (p *GormLedgerMetricsProvider) GetOpenPeriodCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("accounting_periods").
		Where("tenant_id = ? AND status = ?", tenantID, "OPEN").
		Count(&count).Error

	return count, err
}

// GormTenantProvider implements TenantProvider using GORM.
// Tenants are not materialized as a table; any tenant with journal
// activity counts as active.
type GormTenantProvider struct {
	db *gorm.DB
}

// NewGormTenantProvider creates a new GormTenantProvider.
func NewGormTenantProvider(db *gorm.DB) *GormTenantProvider {
	return &GormTenantProvider{db: db}
}

// GetActiveTenantIDs returns all tenant IDs with journal activity.
func (p *GormTenantProvider) GetActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("journal_entries").
		Distinct("tenant_id").
		Find(&ids).Error

	return ids, err
}
