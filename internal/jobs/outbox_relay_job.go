package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/logger"
	"dispatch/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
)

const (
	OutboxRelayJobName = "outbox_relay"

	DefaultRelaySchedule    = "*/5 * * * * *"
	DefaultRelayBatchSize   = 100
	DefaultRelayMaxAttempts = 10

	relayLockKey = "outbox-relay"
)

type OutboxRelayOptions struct {
	// Schedule is a cron expression with a seconds field.
	Schedule    string
	BatchSize   int
	MaxAttempts int
	// Timeout bounds one pass, including the lock TTL.
	Timeout time.Duration
}

// OutboxRelayJob moves committed run events from the outbox to the event
// publisher. A message is marked published only after a successful publish,
// so subscribers may see the same event twice but never miss one.
//
// With a locker, only one instance relays per tick.
type OutboxRelayJob struct {
	outbox    ports.OutboxRepository
	publisher ports.EventPublisher
	locker    ports.Locker
	opts      OutboxRelayOptions
	now       func() time.Time
	log       *logger.Logger
	metrics   *metrics.Jobs

	cron *cron.Cron
	mu   sync.Mutex
}

// RelayResult summarizes one pass.
type RelayResult struct {
	Published int
	Failed    int
	// Skipped is set when another instance held the relay lock.
	Skipped bool
}

func NewOutboxRelayJob(
	outbox ports.OutboxRepository,
	publisher ports.EventPublisher,
	locker ports.Locker,
	opts OutboxRelayOptions,
	log *logger.Logger,
	m *metrics.Jobs,
) *OutboxRelayJob {
	if opts.Schedule == "" {
		opts.Schedule = DefaultRelaySchedule
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultRelayBatchSize
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultRelayMaxAttempts
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &OutboxRelayJob{
		outbox:    outbox,
		publisher: publisher,
		locker:    locker,
		opts:      opts,
		now:       time.Now,
		log:       log.Component(OutboxRelayJobName),
		metrics:   m,
		cron:      cron.New(cron.WithSeconds()),
	}
}

func (j *OutboxRelayJob) Name() string {
	return OutboxRelayJobName
}

func (j *OutboxRelayJob) Start() error {
	if _, err := j.cron.AddFunc(j.opts.Schedule, j.tick); err != nil {
		return fmt.Errorf("schedule %q: %w", j.opts.Schedule, err)
	}
	j.cron.Start()
	j.log.Info(context.Background(), "outbox relay started")
	return nil
}

// Stop waits for a running pass to finish.
func (j *OutboxRelayJob) Stop() {
	<-j.cron.Stop().Done()
	j.log.Info(context.Background(), "outbox relay stopped")
}

func (j *OutboxRelayJob) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), j.opts.Timeout)
	defer cancel()

	started := time.Now()
	result, err := j.RunOnce(ctx)
	if result.Skipped {
		return
	}
	j.metrics.Observe(OutboxRelayJobName, time.Since(started), err)

	if err != nil {
		j.log.Error(ctx, "outbox relay pass failed", err)
		return
	}
	if result.Published > 0 || result.Failed > 0 {
		j.log.Info(j.log.WithFields(ctx, map[string]any{
			"published": result.Published,
			"failed":    result.Failed,
		}), "outbox relay pass done")
	}
}

// RunOnce relays one batch. Publish failures are recorded on the message and
// counted; only storage and lock errors are returned.
func (j *OutboxRelayJob) RunOnce(ctx context.Context) (RelayResult, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.locker != nil {
		unlock, err := j.locker.TryLock(ctx, relayLockKey, j.opts.Timeout)
		if errors.Is(err, ports.ErrLockHeld) {
			return RelayResult{Skipped: true}, nil
		}
		if err != nil {
			return RelayResult{}, err
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				j.log.Error(ctx, "release relay lock", err)
			}
		}()
	}

	messages, err := j.outbox.FetchUnpublished(ctx, j.opts.BatchSize, j.opts.MaxAttempts)
	if err != nil {
		return RelayResult{}, fmt.Errorf("fetch outbox: %w", err)
	}

	var result RelayResult
	for _, msg := range messages {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		if pubErr := j.publisher.Publish(ctx, msg); pubErr != nil {
			result.Failed++
			msgCtx := j.log.WithFields(ctx, map[string]any{
				"event_id":   msg.ID.String(),
				"event_type": msg.EventType,
				"attempt":    msg.AttemptCount + 1,
			})
			j.log.Warn(msgCtx, "publish failed: "+pubErr.Error())
			if err := j.outbox.MarkFailed(ctx, msg.ID, pubErr); err != nil {
				return result, fmt.Errorf("mark failed %s: %w", msg.ID, err)
			}
			continue
		}
		if err := j.outbox.MarkPublished(ctx, msg.ID, j.now()); err != nil {
			return result, fmt.Errorf("mark published %s: %w", msg.ID, err)
		}
		result.Published++
	}
	return result, nil
}
