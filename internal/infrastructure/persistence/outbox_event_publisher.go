package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/openledger/backend/internal/domain/shared"
	"github.com/openledger/backend/internal/infrastructure/event"
)

// TransactionalOutboxPublisher implements shared.EventPublisher by writing
// events to the outbox table. When called inside WithinTransaction the entries
// commit atomically with the aggregate changes; the outbox processor delivers
// them afterwards.
type TransactionalOutboxPublisher struct {
	db     *gorm.DB
	outbox *event.OutboxPublisher
}

func NewTransactionalOutboxPublisher(db *gorm.DB, outbox *event.OutboxPublisher) *TransactionalOutboxPublisher {
	return &TransactionalOutboxPublisher{db: db, outbox: outbox}
}

var _ shared.EventPublisher = (*TransactionalOutboxPublisher)(nil)

func (p *TransactionalOutboxPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	return p.outbox.PublishWithTx(ctx, dbFromContext(ctx, p.db), events...)
}
