package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order. A duplicate external number fails with a
	// ConflictError of kind errs.ErrOrderExists.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists changes to an existing order.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order by id without locking it.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetByExternalNumber retrieves an order by its external number.
	// Returns errs.ErrObjectNotFound when there is none.
	GetByExternalNumber(ctx context.Context, number string) (*order.Order, error)

	// ExistsByExternalNumber reports whether an order with number exists.
	ExistsByExternalNumber(ctx context.Context, number string) (bool, error)

	// LockByIDs loads the orders with the given ids and holds a row lock on
	// each until the transaction ends. Locks are taken in id order and only
	// on the requested rows. Ids with no row are silently omitted; callers
	// compare the result against their input.
	LockByIDs(ctx context.Context, ids []kernel.UUID) ([]*order.Order, error)
}
