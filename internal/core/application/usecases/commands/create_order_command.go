package commands

import (
	"errors"
	"fmt"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand registers an order entering the workflow.
type CreateOrderCommand struct {
	externalNumber string
	salesRef       string
	status         order.Status
	snapshot       *order.Snapshot
	actor          kernel.Identity

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand accepts picked or pre-delivery as initial status.
// snapshot may be nil for manually entered orders.
func NewCreateOrderCommand(
	externalNumber, salesRef string,
	status order.Status,
	snapshot *order.Snapshot,
	actor kernel.Identity,
) (CreateOrderCommand, error) {
	if actor.IsZero() {
		return CreateOrderCommand{}, errs.ErrAuthRequired
	}
	var numberErr, statusErr, snapshotErr error
	if strings.TrimSpace(externalNumber) == "" {
		numberErr = errs.NewValueIsRequiredError("external_number")
	}
	if !status.IsInitial() {
		statusErr = errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("orders cannot be created in status %s", status))
	}
	if snapshot != nil {
		snapshotErr = snapshot.Validate()
	}
	if err := errors.Join(numberErr, statusErr, snapshotErr); err != nil {
		return CreateOrderCommand{}, err
	}
	return CreateOrderCommand{
		externalNumber: strings.TrimSpace(externalNumber),
		salesRef:       strings.TrimSpace(salesRef),
		status:         status,
		snapshot:       snapshot,
		actor:          actor,
		guard:          guard.NewConstructorGuard(),
	}, nil
}

func (c CreateOrderCommand) ExternalNumber() string { return c.externalNumber }
func (c CreateOrderCommand) Status() order.Status   { return c.status }

func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}
