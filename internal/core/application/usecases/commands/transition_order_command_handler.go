package commands

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// TransitionOrderCommandHandler applies a single status transition.
type TransitionOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	now        Clock
}

func NewTransitionOrderCommandHandler(uowFactory OrderUoWFactory, now Clock) TransitionOrderCommandHandler {
	return TransitionOrderCommandHandler{uowFactory: uowFactory, now: now}
}

// Handle locks the order, applies the transition and writes its audit record
// in one transaction. Rejected transitions return a StateError and change
// nothing.
func (h TransitionOrderCommandHandler) Handle(ctx context.Context, command TransitionOrderCommand) (*order.Order, error) {
	if err := command.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orders, err := lockOrders(ctx, uow.OrderRepository(), []kernel.UUID{command.OrderID()})
	if err != nil {
		return nil, err
	}
	target := orders[0]

	machine := newOrderStateMachine(uow.OrderRepository(), uow.AuditRepository(), uow.RunRepository())
	if err = machine.apply(ctx, target, command.Status(), command.Actor(), command.Reason(), h.now()); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return target, nil
}
