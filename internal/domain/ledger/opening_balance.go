package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OpeningBalanceLine is a staged opening balance for one account, held outside
// the journal until the set is posted into the tenant's OPENING period as a
// regular journal entry.
type OpeningBalanceLine struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_opening_tenant_account,priority:1"`
	AccountID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_opening_tenant_account,priority:2"`
	LegalEntityID *uuid.UUID      `gorm:"type:uuid"`
	Debit         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Credit        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	UpdatedByID   uuid.UUID       `gorm:"type:uuid;not null"`
	UpdatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OpeningBalanceLine) TableName() string {
	return "opening_balance_lines"
}
