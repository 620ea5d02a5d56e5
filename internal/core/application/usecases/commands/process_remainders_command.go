package commands

import (
	"context"
	"errors"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrProcessRemaindersCommandIsNotConstructed = errors.New(
	"ProcessRemaindersCommand must be created via NewProcessRemaindersCommand constructor",
)

// ProcessRemaindersCommand splits unpicked lines of the given orders into
// remainder orders outside of a run.
type ProcessRemaindersCommand struct {
	orderIDs []kernel.UUID
	actor    kernel.Identity

	guard guard.ConstructorGuard
}

func NewProcessRemaindersCommand(orderIDs []kernel.UUID, actor kernel.Identity) (ProcessRemaindersCommand, error) {
	if actor.IsZero() {
		return ProcessRemaindersCommand{}, errs.ErrAuthRequired
	}
	if len(orderIDs) == 0 {
		return ProcessRemaindersCommand{}, errs.NewValueIsRequiredError("order_ids")
	}
	for _, id := range orderIDs {
		if err := id.Validate(); err != nil {
			return ProcessRemaindersCommand{}, err
		}
	}
	return ProcessRemaindersCommand{
		orderIDs: kernel.UniqueSorted(orderIDs),
		actor:    actor,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c ProcessRemaindersCommand) Validate() error {
	return c.guard.Validate(ErrProcessRemaindersCommandIsNotConstructed)
}

// ProcessRemaindersCommandHandler runs the remainder split in its own
// transaction. Repeating it is harmless.
type ProcessRemaindersCommandHandler struct {
	uowFactory OrderUoWFactory
	now        Clock
}

func NewProcessRemaindersCommandHandler(uowFactory OrderUoWFactory, now Clock) ProcessRemaindersCommandHandler {
	return ProcessRemaindersCommandHandler{uowFactory: uowFactory, now: now}
}

func (h ProcessRemaindersCommandHandler) Handle(ctx context.Context, command ProcessRemaindersCommand) (RemainderReport, error) {
	if err := command.Validate(); err != nil {
		return RemainderReport{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return RemainderReport{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orders, err := lockOrders(ctx, uow.OrderRepository(), command.orderIDs)
	if err != nil {
		return RemainderReport{}, err
	}

	report, err := newRemainderSplitter(uow.OrderRepository(), uow.AuditRepository()).
		process(ctx, orders, command.actor, h.now())
	if err != nil {
		return RemainderReport{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return RemainderReport{}, err
	}
	return report, nil
}
