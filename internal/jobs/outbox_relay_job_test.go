package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"dispatch/internal/adapters/out/postgres/outboxrepo"
	"dispatch/internal/adapters/out/postgres/testdb"
	"dispatch/internal/adapters/out/redis"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/run"
	"dispatch/internal/core/ports"
	"dispatch/internal/jobs"
	"dispatch/internal/pkg/logger"
	"dispatch/internal/pkg/metrics"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type publisherMock struct {
	mock.Mock
}

func (m *publisherMock) Publish(ctx context.Context, msg ports.OutboxMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func seedEvents(t *testing.T, repo *outboxrepo.GormOutboxRepository, n int) {
	t.Helper()
	base := time.Date(2026, 10, 18, 8, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		require.NoError(t, repo.Add(context.Background(), run.Event{
			Type:       run.EventCreated,
			RunID:      kernel.NewUUID(),
			RunName:    "Morning Run",
			Vehicle:    kernel.Van,
			Actor:      kernel.SystemIdentity(),
			OccurredAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
}

func newRedis(t *testing.T) *backend.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestOutboxRelayJob_PublishesAndMarks(t *testing.T) {
	ctx := context.Background()
	repo := outboxrepo.NewGormOutboxRepository(testdb.SQLite(t))
	seedEvents(t, repo, 3)

	client := newRedis(t)
	publisher := redis.NewEventPublisher(client, "dispatch:events:")
	sub := client.Subscribe(ctx, publisher.Channel(string(run.EventCreated)))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	job := jobs.NewOutboxRelayJob(repo, publisher, redis.NewLocker(client, "dispatch:"),
		jobs.OutboxRelayOptions{BatchSize: 10}, logger.Nop(), metrics.NewJobs(reg))

	result, err := job.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, jobs.RelayResult{Published: 3}, result)

	for i := 0; i < 3; i++ {
		select {
		case <-sub.Channel():
		case <-time.After(2 * time.Second):
			t.Fatalf("message %d not delivered", i)
		}
	}

	result, err = job.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, result.Published, "published messages are not relayed twice")
}

func TestOutboxRelayJob_FailedPublishIsRetriedUntilLimit(t *testing.T) {
	ctx := context.Background()
	repo := outboxrepo.NewGormOutboxRepository(testdb.SQLite(t))
	seedEvents(t, repo, 1)

	publisher := &publisherMock{}
	publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	job := jobs.NewOutboxRelayJob(repo, publisher, nil,
		jobs.OutboxRelayOptions{MaxAttempts: 2}, logger.Nop(), nil)

	for attempt := 1; attempt <= 2; attempt++ {
		result, err := job.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Failed, "attempt %d", attempt)
	}

	result, err := job.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, jobs.RelayResult{}, result, "message over the attempt limit is parked")
	publisher.AssertNumberOfCalls(t, "Publish", 2)

	messages, err := repo.FetchUnpublished(ctx, 10, 100)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, 2, messages[0].AttemptCount)
}

func TestOutboxRelayJob_SkipsWhileAnotherInstanceHoldsLock(t *testing.T) {
	ctx := context.Background()
	repo := outboxrepo.NewGormOutboxRepository(testdb.SQLite(t))
	seedEvents(t, repo, 1)

	client := newRedis(t)
	locker := redis.NewLocker(client, "dispatch:")
	unlock, err := locker.TryLock(ctx, "outbox-relay", time.Minute)
	require.NoError(t, err)

	publisher := &publisherMock{}
	job := jobs.NewOutboxRelayJob(repo, publisher, locker, jobs.OutboxRelayOptions{}, logger.Nop(), nil)

	result, err := job.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, result.Skipped)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)

	require.NoError(t, unlock(ctx))
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)
	result, err = job.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Published)
}

func TestOutboxRelayJob_InvalidSchedule(t *testing.T) {
	job := jobs.NewOutboxRelayJob(nil, nil, nil, jobs.OutboxRelayOptions{Schedule: "not cron"}, logger.Nop(), nil)
	assert.Error(t, job.Start())
}
