package commands

import (
	"context"

	"dispatch/internal/core/domain/model/audit"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
)

// CreateOrderCommandHandler adds a new order.
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	now        Clock
}

func NewCreateOrderCommandHandler(uowFactory OrderUoWFactory, now Clock) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{uowFactory: uowFactory, now: now}
}

// Handle fails with ConflictError of kind ErrOrderExists when the external
// number is taken.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, command CreateOrderCommand) (*order.Order, error) {
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

	exists, err := uow.OrderRepository().ExistsByExternalNumber(ctx, command.externalNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errs.NewConflictError(errs.ErrOrderExists, "order", command.externalNumber)
	}

	now := h.now()
	created, err := order.NewOrder(kernel.NewUUID(), command.externalNumber, command.salesRef, command.status, command.snapshot, now)
	if err != nil {
		return nil, err
	}
	if err = uow.OrderRepository().Add(ctx, created); err != nil {
		return nil, err
	}
	if err = recordAudit(ctx, uow.AuditRepository(), audit.Params{
		EntityType: audit.EntityOrder,
		EntityID:   created.ID(),
		Action:     audit.ActionCreated,
		Actor:      command.actor,
		After: audit.Fields{
			"external_number": created.ExternalNumber(),
			"status":          created.Status().String(),
		},
	}, now); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}
