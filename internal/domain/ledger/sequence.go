package ledger

import (
	"context"

	"github.com/google/uuid"
)

// Well-known sequence names
const (
	SequenceJournalEntry = "JOURNAL_ENTRY"
)

// TenantSequenceCounter is the sole source of journal numbers: one row per
// (tenant, sequence name), incremented inside the transaction that consumes
// the value.
type TenantSequenceCounter struct {
	TenantID uuid.UUID `gorm:"type:uuid;primary_key"`
	Name     string    `gorm:"type:varchar(50);primary_key"`
	Value    int64     `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (TenantSequenceCounter) TableName() string {
	return "tenant_sequence_counters"
}

// SequenceAllocator hands out strictly monotonic values per (tenant, name).
// Next must run inside the caller's transaction so allocation commits or rolls
// back together with the state change it numbers; it is implemented as an
// atomic row-level increment-and-read.
type SequenceAllocator interface {
	Next(ctx context.Context, tenantID uuid.UUID, name string) (int64, error)
}
