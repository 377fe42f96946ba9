package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/openledger/backend/internal/domain/shared"
)

type txContextKey struct{}

// GormTransactionManager implements shared.TransactionManager on top of gorm.
// The open transaction travels in the context so repositories participate
// without knowing whether a transaction is active.
type GormTransactionManager struct {
	db *gorm.DB
}

func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

var _ shared.TransactionManager = (*GormTransactionManager)(nil)

func (m *GormTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		// Already inside a transaction; join it.
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

// dbFromContext returns the transaction bound to ctx, or fallback when none is active.
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback
}
