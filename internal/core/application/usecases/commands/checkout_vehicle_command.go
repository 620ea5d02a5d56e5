package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrCheckoutVehicleCommandIsNotConstructed = errors.New(
	"CheckoutVehicleCommand must be created via NewCheckoutVehicleCommand constructor",
)

type CheckoutVehicleCommand struct {
	vehicle kernel.Vehicle
	holder  kernel.Identity

	guard guard.ConstructorGuard
}

func NewCheckoutVehicleCommand(vehicle kernel.Vehicle, holder kernel.Identity) (CheckoutVehicleCommand, error) {
	if holder.IsZero() {
		return CheckoutVehicleCommand{}, errs.ErrAuthRequired
	}
	if err := vehicle.Validate(); err != nil {
		return CheckoutVehicleCommand{}, err
	}
	return CheckoutVehicleCommand{
		vehicle: vehicle,
		holder:  holder,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c CheckoutVehicleCommand) Vehicle() kernel.Vehicle { return c.vehicle }
func (c CheckoutVehicleCommand) Holder() kernel.Identity { return c.holder }

func (c CheckoutVehicleCommand) Validate() error {
	return c.guard.Validate(ErrCheckoutVehicleCommandIsNotConstructed)
}

var ErrCheckinVehicleCommandIsNotConstructed = errors.New(
	"CheckinVehicleCommand must be created via NewCheckinVehicleCommand constructor",
)

type CheckinVehicleCommand struct {
	vehicle kernel.Vehicle
	actor   kernel.Identity
	notes   string

	guard guard.ConstructorGuard
}

func NewCheckinVehicleCommand(vehicle kernel.Vehicle, actor kernel.Identity, notes string) (CheckinVehicleCommand, error) {
	if actor.IsZero() {
		return CheckinVehicleCommand{}, errs.ErrAuthRequired
	}
	if err := vehicle.Validate(); err != nil {
		return CheckinVehicleCommand{}, err
	}
	return CheckinVehicleCommand{
		vehicle: vehicle,
		actor:   actor,
		notes:   notes,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c CheckinVehicleCommand) Vehicle() kernel.Vehicle { return c.vehicle }
func (c CheckinVehicleCommand) Actor() kernel.Identity  { return c.actor }
func (c CheckinVehicleCommand) Notes() string           { return c.notes }

func (c CheckinVehicleCommand) Validate() error {
	return c.guard.Validate(ErrCheckinVehicleCommandIsNotConstructed)
}
