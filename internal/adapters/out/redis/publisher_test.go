package redis_test

import (
	"context"
	"testing"
	"time"

	"dispatch/internal/adapters/out/redis"
	"dispatch/internal/core/ports"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventPublisher_PublishesToEventChannel(t *testing.T) {
	_, client := newClient(t)
	publisher := redis.NewEventPublisher(client, "dispatch:events:")
	ctx := context.Background()

	sub := client.Subscribe(ctx, publisher.Channel("run.completed"))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	msg := ports.OutboxMessage{
		ID:        uuid.New(),
		EventType: "run.completed",
		Payload:   []byte(`{"version":1}`),
	}
	require.NoError(t, publisher.Publish(ctx, msg))

	select {
	case got := <-sub.Channel():
		assert.Equal(t, "dispatch:events:run.completed", got.Channel)
		assert.JSONEq(t, `{"version":1}`, got.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("message not delivered")
	}
}
