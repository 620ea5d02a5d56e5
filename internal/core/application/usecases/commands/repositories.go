// Package commands contains the write use cases of the dispatch core: order
// transitions, vehicle checkout, the delivery run lifecycle and order intake.
// Every handler validates its command, runs in one unit of work and records
// an audit trail in the same transaction as its mutation.
package commands

import (
	"context"
	"time"

	"dispatch/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// Each handler asks only for the repositories it touches.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	RunRepoFactory interface {
		RunRepository() ports.RunRepository
	}

	CheckoutRepoFactory interface {
		CheckoutRepository() ports.CheckoutRepository
	}

	AuditRepoFactory interface {
		AuditRepository() ports.AuditRepository
	}

	RunNameSequenceRepoFactory interface {
		RunNameSequenceRepository() ports.RunNameSequenceRepository
	}

	// OrderUoW is used by order commands. Runs are reachable so that an order
	// leaving delivery can be released from its run.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
		RunRepoFactory
		AuditRepoFactory
	}

	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// VehicleUoW is used by the checkout gate.
	VehicleUoW interface {
		TxManager
		RunRepoFactory
		CheckoutRepoFactory
		AuditRepoFactory
	}

	VehicleUoWFactory interface {
		Create() VehicleUoW
	}

	// UoW spans every aggregate. Used by the run coordinator.
	UoW interface {
		TxManager
		OrderRepoFactory
		RunRepoFactory
		CheckoutRepoFactory
		AuditRepoFactory
		RunNameSequenceRepoFactory
	}

	UoWFactory interface {
		Create() UoW
	}
)

// Func adapters let one ports.UnitOfWorkFactory serve every narrow factory.
type (
	OrderUoWFactoryFunc   func() OrderUoW
	VehicleUoWFactoryFunc func() VehicleUoW
	UoWFactoryFunc        func() UoW
)

func (f OrderUoWFactoryFunc) Create() OrderUoW     { return f() }
func (f VehicleUoWFactoryFunc) Create() VehicleUoW { return f() }
func (f UoWFactoryFunc) Create() UoW               { return f() }

// Factories bundles the narrow factories derived from one storage factory.
type Factories struct {
	Orders   OrderUoWFactory
	Vehicles VehicleUoWFactory
	All      UoWFactory
}

func FactoriesFrom(f ports.UnitOfWorkFactory) Factories {
	return Factories{
		Orders:   OrderUoWFactoryFunc(func() OrderUoW { return f.Create() }),
		Vehicles: VehicleUoWFactoryFunc(func() VehicleUoW { return f.Create() }),
		All:      UoWFactoryFunc(func() UoW { return f.Create() }),
	}
}

// Clock returns the current time in the business time zone.
type Clock func() time.Time

// SystemClock reads the wall clock in loc. A nil loc means UTC.
func SystemClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return func() time.Time {
		return time.Now().In(loc)
	}
}
