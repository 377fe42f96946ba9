package event

import (
	"github.com/openledger/backend/internal/domain/ledger"
)

// RegisterAllEvents registers all domain event types with the serializer
// This is required for the OutboxProcessor to deserialize events from the outbox table
func RegisterAllEvents(serializer *EventSerializer) {
	serializer.Register("JournalCreated", &ledger.JournalCreatedEvent{})
	serializer.Register("JournalSubmitted", &ledger.JournalSubmittedEvent{})
	serializer.Register("JournalReviewed", &ledger.JournalReviewedEvent{})
	serializer.Register("JournalRejected", &ledger.JournalRejectedEvent{})
	serializer.Register("JournalReturned", &ledger.JournalReturnedEvent{})
	serializer.Register("JournalPosted", &ledger.JournalPostedEvent{})
	serializer.Register("JournalParked", &ledger.JournalParkedEvent{})
	serializer.Register("JournalReversalInitiated", &ledger.JournalReversalInitiatedEvent{})
}
