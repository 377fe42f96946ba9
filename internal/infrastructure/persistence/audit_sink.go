package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/openledger/backend/internal/domain/ledger"
)

// GormAuditSink implements ledger.AuditSink using GORM. Events written inside
// a transaction commit or roll back with it; the application layer decides
// whether a sink failure should surface.
type GormAuditSink struct {
	db *gorm.DB
}

// NewGormAuditSink creates a new GORM audit sink
func NewGormAuditSink(db *gorm.DB) *GormAuditSink {
	return &GormAuditSink{db: db}
}

var _ ledger.AuditSink = (*GormAuditSink)(nil)

func (s *GormAuditSink) Append(ctx context.Context, event *ledger.AuditEvent) error {
	db := dbFromContext(ctx, s.db)
	if err := db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	return nil
}
