package redis

import (
	"context"
	"fmt"

	"dispatch/internal/core/ports"

	backend "github.com/redis/go-redis/v9"
)

// EventPublisher implements ports.EventPublisher with Redis pub/sub. Each
// message goes to <prefix><event type>, e.g. dispatch:events:run.completed.
type EventPublisher struct {
	client backend.UniversalClient
	prefix string
}

func NewEventPublisher(client backend.UniversalClient, prefix string) *EventPublisher {
	return &EventPublisher{client: client, prefix: prefix}
}

func (p *EventPublisher) Channel(eventType string) string {
	return p.prefix + eventType
}

func (p *EventPublisher) Publish(ctx context.Context, msg ports.OutboxMessage) error {
	if err := p.client.Publish(ctx, p.Channel(msg.EventType), msg.Payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.ID, err)
	}
	return nil
}
