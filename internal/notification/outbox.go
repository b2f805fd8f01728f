package notification

import (
	"context"

	"lifeline/contracts/events"
)

// OutboxEntry is one unpublished event row. ID is the store's own monotonic
// sequence so the relay ships events in commit order.
type OutboxEntry struct {
	ID       int64
	Envelope events.Envelope
}

// OutboxStore persists event envelopes until the relay has shipped them to
// Kafka. NextBatch returns unpublished entries oldest-first; MarkPublished
// retires exactly one entry.
type OutboxStore interface {
	Append(ctx context.Context, env events.Envelope) error
	NextBatch(ctx context.Context, limit int) ([]OutboxEntry, error)
	MarkPublished(ctx context.Context, entryID int64) error
}
