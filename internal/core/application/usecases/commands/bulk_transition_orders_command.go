package commands

import (
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrBulkTransitionOrdersCommandIsNotConstructed = errors.New(
	"BulkTransitionOrdersCommand must be created via NewBulkTransitionOrdersCommand constructor",
)

// BulkTransitionOrdersCommand moves a batch of orders to the same status.
//
// By default the batch is lenient: orders that cannot move are skipped and
// the rest are committed. WithStopOnFirstError makes the first failure abort
// the whole batch.
type BulkTransitionOrdersCommand struct {
	orderIDs         []kernel.UUID
	status           order.Status
	actor            kernel.Identity
	reason           string
	stopOnFirstError bool

	guard guard.ConstructorGuard
}

func NewBulkTransitionOrdersCommand(
	orderIDs []kernel.UUID,
	status order.Status,
	actor kernel.Identity,
	reason string,
) (BulkTransitionOrdersCommand, error) {
	if actor.IsZero() {
		return BulkTransitionOrdersCommand{}, errs.ErrAuthRequired
	}
	if len(orderIDs) == 0 {
		return BulkTransitionOrdersCommand{}, errs.NewValueIsRequiredError("order_ids")
	}
	problems := []error{status.Validate()}
	for _, id := range orderIDs {
		problems = append(problems, id.Validate())
	}
	if err := errors.Join(problems...); err != nil {
		return BulkTransitionOrdersCommand{}, err
	}
	return BulkTransitionOrdersCommand{
		orderIDs: append([]kernel.UUID(nil), orderIDs...),
		status:   status,
		actor:    actor,
		reason:   strings.TrimSpace(reason),
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// WithStopOnFirstError returns a copy of the command with the strict policy.
func (c BulkTransitionOrdersCommand) WithStopOnFirstError(stop bool) BulkTransitionOrdersCommand {
	c.stopOnFirstError = stop
	return c
}

func (c BulkTransitionOrdersCommand) OrderIDs() []kernel.UUID {
	return append([]kernel.UUID(nil), c.orderIDs...)
}

func (c BulkTransitionOrdersCommand) Status() order.Status   { return c.status }
func (c BulkTransitionOrdersCommand) Actor() kernel.Identity { return c.actor }
func (c BulkTransitionOrdersCommand) Reason() string         { return c.reason }
func (c BulkTransitionOrdersCommand) StopOnFirstError() bool { return c.stopOnFirstError }

func (c BulkTransitionOrdersCommand) Validate() error {
	return c.guard.Validate(ErrBulkTransitionOrdersCommandIsNotConstructed)
}
