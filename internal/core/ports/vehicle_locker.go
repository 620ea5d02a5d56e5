package ports

import (
	"context"
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

// ErrLockHeld is returned by Locker.TryLock when another owner holds the key.
var ErrLockHeld = errors.New("lock is held by another owner")

// UnlockFunc releases a lock obtained from VehicleLocker.
type UnlockFunc func(ctx context.Context) error

// VehicleLocker serializes checkout and checkin per vehicle across processes.
type VehicleLocker interface {
	// Lock waits until the vehicle lock is free or ctx is done. The lock
	// expires after ttl if never released.
	Lock(ctx context.Context, v kernel.Vehicle, ttl time.Duration) (UnlockFunc, error)
}

// Locker takes named locks shared by every instance of the service.
type Locker interface {
	// TryLock makes one attempt and returns ErrLockHeld on contention.
	TryLock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
