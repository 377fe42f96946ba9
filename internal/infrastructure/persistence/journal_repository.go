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
)

// GormJournalRepository implements ledger.JournalRepository using GORM
type GormJournalRepository struct {
	db *gorm.DB
}

// NewGormJournalRepository creates a new GORM journal repository
func NewGormJournalRepository(db *gorm.DB) *GormJournalRepository {
	return &GormJournalRepository{db: db}
}

var _ ledger.JournalRepository = (*GormJournalRepository)(nil)

func (r *GormJournalRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ledger.JournalEntry, error) {
	db := dbFromContext(ctx, r.db)
	var entry ledger.JournalEntry
	err := db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_number ASC")
		}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find journal entry: %w", err)
	}
	return &entry, nil
}

func (r *GormJournalRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter ledger.JournalListFilter) ([]ledger.JournalEntry, int64, error) {
	db := dbFromContext(ctx, r.db)
	query := db.WithContext(ctx).Model(&ledger.JournalEntry{}).Where("journal_entries.tenant_id = ?", tenantID)

	if filter.Status != nil {
		query = query.Where("journal_entries.status = ?", *filter.Status)
	}
	if filter.BudgetStatus != nil {
		query = query.Where("journal_entries.budget_status = ?", *filter.BudgetStatus)
	}
	if filter.Type != nil {
		query = query.Where("journal_entries.type = ?", *filter.Type)
	}
	if filter.PeriodID != nil {
		query = query.Where("journal_entries.period_id = ?", *filter.PeriodID)
	}
	if filter.DateFrom != nil {
		query = query.Where("journal_entries.journal_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("journal_entries.journal_date <= ?", *filter.DateTo)
	}
	if filter.RiskScoreMin != nil {
		query = query.Where("journal_entries.risk_score >= ?", *filter.RiskScoreMin)
	}
	if filter.RiskScoreMax != nil {
		query = query.Where("journal_entries.risk_score <= ?", *filter.RiskScoreMax)
	}
	if filter.CreatedByID != nil {
		query = query.Where("journal_entries.created_by_id = ?", *filter.CreatedByID)
	}
	if filter.PostedByID != nil {
		query = query.Where("journal_entries.posted_by_id = ?", *filter.PostedByID)
	}
	if lineFilter := lineConditions(filter); lineFilter != nil {
		sub := db.WithContext(ctx).Model(&ledger.JournalLine{}).
			Select("journal_entry_id").
			Where(lineFilter)
		query = query.Where("journal_entries.id IN (?)", sub)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count journal entries: %w", err)
	}

	offset := (filter.Page - 1) * filter.PageSize
	var entries []ledger.JournalEntry
	err := query.
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_number ASC")
		}).
		Order("journal_entries.journal_date DESC, journal_entries.created_at DESC").
		Offset(offset).
		Limit(filter.PageSize).
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list journal entries: %w", err)
	}
	return entries, total, nil
}

// lineConditions builds the line-level part of a journal list filter, or nil
// when no line attribute is filtered.
func lineConditions(filter ledger.JournalListFilter) map[string]any {
	conds := map[string]any{}
	if filter.AccountID != nil {
		conds["account_id"] = *filter.AccountID
	}
	if filter.LegalEntityID != nil {
		conds["legal_entity_id"] = *filter.LegalEntityID
	}
	if filter.DepartmentID != nil {
		conds["department_id"] = *filter.DepartmentID
	}
	if filter.ProjectID != nil {
		conds["project_id"] = *filter.ProjectID
	}
	if filter.FundID != nil {
		conds["fund_id"] = *filter.FundID
	}
	if len(conds) == 0 {
		return nil
	}
	return conds
}

func (r *GormJournalRepository) Save(ctx context.Context, entry *ledger.JournalEntry) error {
	db := dbFromContext(ctx, r.db)
	err := db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Save(entry).Error
	if err != nil {
		return fmt.Errorf("failed to save journal entry: %w", err)
	}
	return nil
}

func (r *GormJournalRepository) DeleteLines(ctx context.Context, entryID uuid.UUID) error {
	db := dbFromContext(ctx, r.db)
	err := db.WithContext(ctx).
		Where("journal_entry_id = ?", entryID).
		Delete(&ledger.JournalLine{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete journal lines: %w", err)
	}
	return nil
}

func (r *GormJournalRepository) ExistsNonRejectedReversal(ctx context.Context, tenantID, originalID uuid.UUID) (bool, error) {
	db := dbFromContext(ctx, r.db)
	var count int64
	err := db.WithContext(ctx).Model(&ledger.JournalEntry{}).
		Where("tenant_id = ? AND reversal_of_id = ? AND status <> ?", tenantID, originalID, ledger.JournalStatusRejected).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check for reversals: %w", err)
	}
	return count > 0, nil
}

func (r *GormJournalRepository) CountByStatusInDateRange(ctx context.Context, tenantID uuid.UUID, status ledger.JournalStatus, from, to time.Time) (int64, error) {
	db := dbFromContext(ctx, r.db)
	var count int64
	err := db.WithContext(ctx).Model(&ledger.JournalEntry{}).
		Where("tenant_id = ? AND status = ? AND journal_date >= ? AND journal_date <= ?", tenantID, status, from, to).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count journal entries: %w", err)
	}
	return count, nil
}

func (r *GormJournalRepository) CountRecentWarnsByActor(ctx context.Context, tenantID, actorID, excludeJournalID uuid.UUID, since time.Time) (int64, error) {
	db := dbFromContext(ctx, r.db)
	var count int64
	err := db.WithContext(ctx).Model(&ledger.JournalEntry{}).
		Where("tenant_id = ? AND created_by_id = ? AND id <> ? AND budget_status = ? AND budget_checked_at >= ?",
			tenantID, actorID, excludeJournalID, ledger.BudgetStatusWarn, since).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count budget warnings: %w", err)
	}
	return count, nil
}

func (r *GormJournalRepository) TrialBalance(ctx context.Context, tenantID uuid.UUID, from, to time.Time) ([]ledger.TrialBalanceRow, error) {
	db := dbFromContext(ctx, r.db)
	var rows []ledger.TrialBalanceRow
	err := db.WithContext(ctx).
		Table("journal_lines").
		Select("journal_lines.account_id AS account_id, accounts.code AS account_code, accounts.name AS account_name, "+
			"COALESCE(SUM(journal_lines.debit), 0) AS total_debit, COALESCE(SUM(journal_lines.credit), 0) AS total_credit").
		Joins("JOIN journal_entries ON journal_entries.id = journal_lines.journal_entry_id").
		Joins("JOIN accounts ON accounts.id = journal_lines.account_id").
		Where("journal_entries.tenant_id = ? AND journal_entries.status = ?", tenantID, ledger.JournalStatusPosted).
		Where("journal_entries.journal_date >= ? AND journal_entries.journal_date <= ?", from, to).
		Group("journal_lines.account_id, accounts.code, accounts.name").
		Order("accounts.code ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build trial balance: %w", err)
	}
	return rows, nil
}

func (r *GormJournalRepository) Ledger(ctx context.Context, tenantID, accountID uuid.UUID, from, to time.Time, page, pageSize int) ([]ledger.LedgerRow, int64, error) {
	db := dbFromContext(ctx, r.db)
	base := db.WithContext(ctx).
		Table("journal_lines").
		Joins("JOIN journal_entries ON journal_entries.id = journal_lines.journal_entry_id").
		Where("journal_entries.tenant_id = ? AND journal_entries.status = ?", tenantID, ledger.JournalStatusPosted).
		Where("journal_lines.account_id = ?", accountID).
		Where("journal_entries.journal_date >= ? AND journal_entries.journal_date <= ?", from, to)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger lines: %w", err)
	}

	var rows []ledger.LedgerRow
	err := base.Session(&gorm.Session{}).
		Select("journal_entries.id AS journal_entry_id, journal_entries.journal_number AS journal_number, " +
			"journal_entries.journal_date AS journal_date, journal_lines.line_number AS line_number, " +
			"journal_lines.description AS description, journal_lines.debit AS debit, journal_lines.credit AS credit").
		Order("journal_entries.journal_date ASC, journal_entries.journal_number ASC, journal_lines.line_number ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list ledger lines: %w", err)
	}
	return rows, total, nil
}
