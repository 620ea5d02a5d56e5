package commands

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
)

// SkippedTransition is an order a lenient batch left behind.
type SkippedTransition struct {
	OrderID kernel.UUID
	Err     error
}

type BulkTransitionResult struct {
	// Updated holds the orders that moved, in id order.
	Updated []*order.Order
	Skipped []SkippedTransition
}

// BulkTransitionOrdersCommandHandler applies one transition to many orders in
// a single transaction.
type BulkTransitionOrdersCommandHandler struct {
	uowFactory OrderUoWFactory
	now        Clock
}

func NewBulkTransitionOrdersCommandHandler(uowFactory OrderUoWFactory, now Clock) BulkTransitionOrdersCommandHandler {
	return BulkTransitionOrdersCommandHandler{uowFactory: uowFactory, now: now}
}

// Handle only skips business rejections (unknown id, disallowed edge, missing
// reason). Storage errors always abort the batch.
func (h BulkTransitionOrdersCommandHandler) Handle(
	ctx context.Context,
	command BulkTransitionOrdersCommand,
) (BulkTransitionResult, error) {
	if err := command.Validate(); err != nil {
		return BulkTransitionResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return BulkTransitionResult{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	ids := kernel.UniqueSorted(command.OrderIDs())
	locked, err := uow.OrderRepository().LockByIDs(ctx, ids)
	if err != nil {
		return BulkTransitionResult{}, err
	}
	byID := make(map[string]*order.Order, len(locked))
	for _, o := range locked {
		byID[o.ID().String()] = o
	}

	machine := newOrderStateMachine(uow.OrderRepository(), uow.AuditRepository(), uow.RunRepository())
	now := h.now()
	result := BulkTransitionResult{Updated: make([]*order.Order, 0, len(ids))}

	for _, id := range ids {
		target, found := byID[id.String()]
		var stepErr error
		if !found {
			stepErr = errs.NewObjectNotFoundError("order", id.String())
		} else {
			stepErr = machine.apply(ctx, target, command.Status(), command.Actor(), command.Reason(), now)
		}

		if stepErr == nil {
			result.Updated = append(result.Updated, target)
			continue
		}
		if command.StopOnFirstError() || !isRejection(stepErr) {
			return BulkTransitionResult{}, stepErr
		}
		result.Skipped = append(result.Skipped, SkippedTransition{OrderID: id, Err: stepErr})
	}

	if err = uow.Commit(ctx); err != nil {
		return BulkTransitionResult{}, err
	}
	return result, nil
}

func isRejection(err error) bool {
	return errors.Is(err, errs.ErrInvalidState) ||
		errors.Is(err, errs.ErrObjectNotFound) ||
		errors.Is(err, errs.ErrValueIsRequired) ||
		errors.Is(err, errs.ErrValueIsInvalid)
}
