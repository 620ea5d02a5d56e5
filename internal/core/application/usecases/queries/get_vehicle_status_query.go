// Package queries contains read operations for retrieving system state.
// Implements the Query pattern for read operations in the CQRS architecture.
// Queries return optimized read models for specific use cases.
package queries

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/guard"
)

var (
	ErrGetVehicleStatusQueryIsNotConstructed = errors.New(
		"GetVehicleStatusQuery must be created via NewGetVehicleStatusQuery constructor",
	)
)

// GetVehicleStatusQuery reports, for every vehicle of the fleet, whether it is
// checked out and whether an active run is using it.
//
// Example:
//
//	handler := NewGetVehicleStatusQueryHandler(db)
//	statuses, err := handler.Handle(ctx, NewGetVehicleStatusQuery())
//	if err != nil {
//	    return fmt.Errorf("failed to read vehicle status: %w", err)
//	}
type GetVehicleStatusQuery struct {
	guard guard.ConstructorGuard
}

func NewGetVehicleStatusQuery() GetVehicleStatusQuery {
	return GetVehicleStatusQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
func (q GetVehicleStatusQuery) Validate() error {
	return q.guard.Validate(ErrGetVehicleStatusQueryIsNotConstructed)
}

// GetVehicleStatusQueryResponse is the state of one vehicle. Holder and
// CheckedOutAt are set only while CheckedOut; RunID and RunName only while
// RunActive.
type GetVehicleStatusQueryResponse struct {
	Vehicle      kernel.Vehicle
	CheckedOut   bool
	Holder       *kernel.Identity
	CheckedOutAt *time.Time
	RunActive    bool
	RunID        *kernel.UUID
	RunName      string
}
