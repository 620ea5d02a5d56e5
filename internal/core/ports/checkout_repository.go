package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/vehicle"
)

// CheckoutRepository defines the persistence contract for vehicle checkouts.
type CheckoutRepository interface {
	// Add persists a new open checkout. A second open checkout for the same
	// vehicle fails with a ConflictError of kind errs.ErrAlreadyCheckedOut.
	Add(ctx context.Context, aggregate *vehicle.Checkout) error

	Update(ctx context.Context, aggregate *vehicle.Checkout) error

	// FindOpenByVehicle returns the open checkout of vehicle, or nil, and
	// locks its row when found.
	FindOpenByVehicle(ctx context.Context, v kernel.Vehicle) (*vehicle.Checkout, error)
}
