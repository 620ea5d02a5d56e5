package commands

import (
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrCreateRunCommandIsNotConstructed = errors.New(
	"CreateRunCommand must be created via NewCreateRunCommand constructor",
)

// CreateRunCommand puts a set of pre-delivery orders on the road with one
// runner and one vehicle.
type CreateRunCommand struct {
	runner   kernel.Identity
	vehicle  kernel.Vehicle
	orderIDs []kernel.UUID

	guard guard.ConstructorGuard
}

func NewCreateRunCommand(runner kernel.Identity, vehicle kernel.Vehicle, orderIDs []kernel.UUID) (CreateRunCommand, error) {
	if runner.IsZero() {
		return CreateRunCommand{}, errs.ErrAuthRequired
	}
	var idsErr error
	if len(orderIDs) == 0 {
		idsErr = errs.NewValueIsRequiredError("order_ids")
	}
	problems := []error{idsErr, vehicle.Validate()}
	for _, id := range orderIDs {
		problems = append(problems, id.Validate())
	}
	if err := errors.Join(problems...); err != nil {
		return CreateRunCommand{}, err
	}
	return CreateRunCommand{
		runner:   runner,
		vehicle:  vehicle,
		orderIDs: kernel.UniqueSorted(orderIDs),
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c CreateRunCommand) Runner() kernel.Identity { return c.runner }
func (c CreateRunCommand) Vehicle() kernel.Vehicle { return c.vehicle }

func (c CreateRunCommand) OrderIDs() []kernel.UUID {
	return append([]kernel.UUID(nil), c.orderIDs...)
}

func (c CreateRunCommand) Validate() error {
	return c.guard.Validate(ErrCreateRunCommandIsNotConstructed)
}
