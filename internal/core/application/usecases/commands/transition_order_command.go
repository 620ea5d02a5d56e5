package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrTransitionOrderCommandIsNotConstructed = errors.New(
	"TransitionOrderCommand must be created via NewTransitionOrderCommand constructor",
)

// TransitionOrderCommand moves one order to a new status.
type TransitionOrderCommand struct {
	orderID kernel.UUID
	status  order.Status
	actor   kernel.Identity
	reason  string

	guard guard.ConstructorGuard
}

// NewTransitionOrderCommand checks the input shape only. Whether the edge is
// allowed is decided against the stored order.
func NewTransitionOrderCommand(
	orderID kernel.UUID,
	status order.Status,
	actor kernel.Identity,
	reason string,
) (TransitionOrderCommand, error) {
	if actor.IsZero() {
		return TransitionOrderCommand{}, errs.ErrAuthRequired
	}
	if err := errors.Join(orderID.Validate(), status.Validate()); err != nil {
		return TransitionOrderCommand{}, err
	}
	return TransitionOrderCommand{
		orderID: orderID,
		status:  status,
		actor:   actor,
		reason:  strings.TrimSpace(reason),
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c TransitionOrderCommand) OrderID() kernel.UUID   { return c.orderID }
func (c TransitionOrderCommand) Status() order.Status   { return c.status }
func (c TransitionOrderCommand) Actor() kernel.Identity { return c.actor }
func (c TransitionOrderCommand) Reason() string         { return c.reason }

func (c TransitionOrderCommand) Validate() error {
	return c.guard.Validate(ErrTransitionOrderCommandIsNotConstructed)
}
