package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/audit"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/vehicle"
	"dispatch/internal/core/ports"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/metrics"
)

const vehicleLockTTL = 10 * time.Second

// vehicleCheckoutGate hands out and takes back vehicles. At most one open
// checkout exists per vehicle, and neither operation is allowed while an
// active run uses the vehicle.
//
// The optional locker serializes both operations per vehicle across
// instances.
type vehicleCheckoutGate struct {
	uowFactory VehicleUoWFactory
	locker     ports.VehicleLocker
	now        Clock
	metrics    *metrics.Dispatch
}

// CheckoutVehicleCommandHandler hands a vehicle to its holder.
type CheckoutVehicleCommandHandler struct {
	gate vehicleCheckoutGate
}

// NewCheckoutVehicleCommandHandler accepts a nil locker; the transaction and
// the open-checkout index still keep checkouts exclusive.
func NewCheckoutVehicleCommandHandler(
	uowFactory VehicleUoWFactory,
	locker ports.VehicleLocker,
	now Clock,
	m *metrics.Dispatch,
) CheckoutVehicleCommandHandler {
	return CheckoutVehicleCommandHandler{
		gate: vehicleCheckoutGate{uowFactory: uowFactory, locker: locker, now: now, metrics: m},
	}
}

// Handle fails with ConflictError of kind ErrVehicleInUse or ErrAlreadyCheckedOut.
func (h CheckoutVehicleCommandHandler) Handle(ctx context.Context, command CheckoutVehicleCommand) (*vehicle.Checkout, error) {
	return h.gate.checkout(ctx, command)
}

// CheckinVehicleCommandHandler takes a vehicle back. Anyone may check a
// vehicle in, not only its holder.
type CheckinVehicleCommandHandler struct {
	gate vehicleCheckoutGate
}

func NewCheckinVehicleCommandHandler(
	uowFactory VehicleUoWFactory,
	locker ports.VehicleLocker,
	now Clock,
	m *metrics.Dispatch,
) CheckinVehicleCommandHandler {
	return CheckinVehicleCommandHandler{
		gate: vehicleCheckoutGate{uowFactory: uowFactory, locker: locker, now: now, metrics: m},
	}
}

// Handle fails with ConflictError of kind ErrVehicleInUse or ErrNotCheckedOut.
func (h CheckinVehicleCommandHandler) Handle(ctx context.Context, command CheckinVehicleCommand) (*vehicle.Checkout, error) {
	return h.gate.checkin(ctx, command)
}

func (g vehicleCheckoutGate) checkout(ctx context.Context, command CheckoutVehicleCommand) (*vehicle.Checkout, error) {
	if err := command.Validate(); err != nil {
		return nil, err
	}

	var result *vehicle.Checkout
	err := g.withVehicle(ctx, command.Vehicle(), func(uow VehicleUoW) error {
		open, err := uow.CheckoutRepository().FindOpenByVehicle(ctx, command.Vehicle())
		if err != nil {
			return err
		}
		if open != nil {
			return errs.NewConflictErrorWithHolder(
				errs.ErrAlreadyCheckedOut, "vehicle", command.Vehicle().String(), open.Holder().DisplayName())
		}

		now := g.now()
		checkout, err := vehicle.NewCheckout(kernel.NewUUID(), command.Vehicle(), command.Holder(), now)
		if err != nil {
			return err
		}
		if err = uow.CheckoutRepository().Add(ctx, checkout); err != nil {
			return err
		}
		if err = recordAudit(ctx, uow.AuditRepository(), audit.Params{
			EntityType: audit.EntityCheckout,
			EntityID:   checkout.ID(),
			Action:     audit.ActionCheckedOut,
			Actor:      command.Holder(),
			After:      audit.Fields{"vehicle": command.Vehicle().String(), "holder": command.Holder().String()},
		}, now); err != nil {
			return err
		}
		result = checkout
		return nil
	})
	if err != nil {
		return nil, err
	}
	g.metrics.VehicleAction("checkout")
	return result, nil
}

func (g vehicleCheckoutGate) checkin(ctx context.Context, command CheckinVehicleCommand) (*vehicle.Checkout, error) {
	if err := command.Validate(); err != nil {
		return nil, err
	}

	var result *vehicle.Checkout
	err := g.withVehicle(ctx, command.Vehicle(), func(uow VehicleUoW) error {
		open, err := uow.CheckoutRepository().FindOpenByVehicle(ctx, command.Vehicle())
		if err != nil {
			return err
		}
		if open == nil {
			return errs.NewConflictError(errs.ErrNotCheckedOut, "vehicle", command.Vehicle().String())
		}

		now := g.now()
		before := open.Notes()
		if err = open.CheckIn(command.Actor(), command.Notes(), now); err != nil {
			return err
		}
		if err = uow.CheckoutRepository().Update(ctx, open); err != nil {
			return err
		}
		if err = recordAudit(ctx, uow.AuditRepository(), audit.Params{
			EntityType: audit.EntityCheckout,
			EntityID:   open.ID(),
			Action:     audit.ActionCheckedIn,
			Actor:      command.Actor(),
			Before:     audit.Fields{"holder": open.Holder().String(), "notes": before},
			After:      audit.Fields{"checked_in_by": open.CheckedInBy(), "notes": open.Notes()},
		}, now); err != nil {
			return err
		}
		result = open
		return nil
	})
	if err != nil {
		return nil, err
	}
	g.metrics.VehicleAction("checkin")
	return result, nil
}

// withVehicle takes the vehicle lock, opens a transaction, rejects vehicles
// used by an active run and commits when fn succeeds.
func (g vehicleCheckoutGate) withVehicle(ctx context.Context, v kernel.Vehicle, fn func(uow VehicleUoW) error) error {
	if g.locker != nil {
		unlock, err := g.locker.Lock(ctx, v, vehicleLockTTL)
		if err != nil {
			return err
		}
		defer func() {
			_ = unlock(context.WithoutCancel(ctx))
		}()
	}

	uow := g.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	active, err := uow.RunRepository().FindActiveByVehicle(ctx, v)
	if err != nil {
		return err
	}
	if active != nil {
		return errs.NewConflictErrorWithHolder(errs.ErrVehicleInUse, "vehicle", v.String(), active.Name())
	}

	if err = fn(uow); err != nil {
		return err
	}
	return uow.Commit(ctx)
}
