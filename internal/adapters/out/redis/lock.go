// Package redis holds the Redis-backed adapters: distributed locks and the
// event publisher used by the outbox relay.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/ports"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned by TryLock when another owner holds the key.
var ErrLockHeld = ports.ErrLockHeld

const defaultPollInterval = 50 * time.Millisecond

// releaseScript deletes the key only if it still carries our token.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

// Locker takes named locks with SET NX PX.
type Locker struct {
	client       backend.UniversalClient
	prefix       string
	pollInterval time.Duration
}

func NewLocker(client backend.UniversalClient, prefix string) *Locker {
	return &Locker{
		client:       client,
		prefix:       prefix,
		pollInterval: defaultPollInterval,
	}
}

// Lock polls until the key is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		unlock, err := l.TryLock(ctx, key, ttl)
		if err == nil {
			return unlock, nil
		}
		if !errors.Is(err, ErrLockHeld) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// TryLock makes one attempt and returns ErrLockHeld on contention.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error acquiring lock: %w", err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	return func(ctx context.Context) error {
		return l.client.Eval(ctx, releaseScript, []string{lockKey}, token).Err()
	}, nil
}

// VehicleLocker implements ports.VehicleLocker.
type VehicleLocker struct {
	locker *Locker
}

func NewVehicleLocker(locker *Locker) *VehicleLocker {
	return &VehicleLocker{locker: locker}
}

func (v *VehicleLocker) Lock(ctx context.Context, vehicle kernel.Vehicle, ttl time.Duration) (ports.UnlockFunc, error) {
	return v.locker.Lock(ctx, "vehicle:"+vehicle.String(), ttl)
}
