package ports

import "context"

// EventPublisher pushes relayed outbox messages to subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, msg OutboxMessage) error
}
