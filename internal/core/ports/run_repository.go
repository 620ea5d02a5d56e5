package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/run"
)

// RunRepository defines the persistence contract for delivery runs.
//
// Add and Update also write the run's pending domain events to the outbox
// within the same transaction and clear them from the aggregate.
type RunRepository interface {
	// Add persists a new run. A second active run for the same vehicle fails
	// with a ConflictError of kind errs.ErrVehicleInUse.
	Add(ctx context.Context, aggregate *run.DeliveryRun) error

	Update(ctx context.Context, aggregate *run.DeliveryRun) error

	// LockByID loads a run and holds its row lock until the transaction ends.
	LockByID(ctx context.Context, id kernel.UUID) (*run.DeliveryRun, error)

	// FindActiveByVehicle returns the active run using vehicle, or nil.
	FindActiveByVehicle(ctx context.Context, vehicle kernel.Vehicle) (*run.DeliveryRun, error)
}
