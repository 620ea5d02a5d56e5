package ports

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/run"

	"github.com/google/uuid"
)

// OutboxMessage is a stored event waiting to be relayed.
type OutboxMessage struct {
	ID           uuid.UUID
	EventType    string
	AggregateID  uuid.UUID
	Payload      []byte
	CreatedAt    time.Time
	AttemptCount int
}

type OutboxRepository interface {
	// Add serializes event into the outbox. Must run inside the transaction
	// of the mutation that raised it.
	Add(ctx context.Context, event run.Event) error

	// FetchUnpublished returns up to limit unpublished messages, oldest first,
	// skipping those that already failed maxAttempts times.
	FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]OutboxMessage, error)

	MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause error) error
}
