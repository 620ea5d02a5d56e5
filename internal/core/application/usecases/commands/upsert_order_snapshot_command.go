package commands

import (
	"context"
	"errors"
	"strings"

	"dispatch/internal/core/domain/model/audit"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var ErrUpsertOrderSnapshotCommandIsNotConstructed = errors.New(
	"UpsertOrderSnapshotCommand must be created via NewUpsertOrderSnapshotCommand constructor",
)

// UpsertOrderSnapshotCommand stores the latest payload of an order from the
// inventory system, creating the order in picked status if it is new.
type UpsertOrderSnapshotCommand struct {
	externalNumber string
	snapshot       order.Snapshot
	actor          kernel.Identity

	guard guard.ConstructorGuard
}

func NewUpsertOrderSnapshotCommand(
	externalNumber string,
	snapshot order.Snapshot,
	actor kernel.Identity,
) (UpsertOrderSnapshotCommand, error) {
	if actor.IsZero() {
		return UpsertOrderSnapshotCommand{}, errs.ErrAuthRequired
	}
	var numberErr error
	if strings.TrimSpace(externalNumber) == "" {
		numberErr = errs.NewValueIsRequiredError("external_number")
	}
	if err := errors.Join(numberErr, snapshot.Validate()); err != nil {
		return UpsertOrderSnapshotCommand{}, err
	}
	return UpsertOrderSnapshotCommand{
		externalNumber: strings.TrimSpace(externalNumber),
		snapshot:       snapshot,
		actor:          actor,
		guard:          guard.NewConstructorGuard(),
	}, nil
}

func (c UpsertOrderSnapshotCommand) Validate() error {
	return c.guard.Validate(ErrUpsertOrderSnapshotCommandIsNotConstructed)
}

type UpsertOrderSnapshotResult struct {
	Order   *order.Order
	Created bool
}

// UpsertOrderSnapshotCommandHandler is the in-process entry point for
// snapshot ingestion. Replaying the same snapshot only rewrites it.
type UpsertOrderSnapshotCommandHandler struct {
	uowFactory OrderUoWFactory
	now        Clock
}

func NewUpsertOrderSnapshotCommandHandler(uowFactory OrderUoWFactory, now Clock) UpsertOrderSnapshotCommandHandler {
	return UpsertOrderSnapshotCommandHandler{uowFactory: uowFactory, now: now}
}

func (h UpsertOrderSnapshotCommandHandler) Handle(
	ctx context.Context,
	command UpsertOrderSnapshotCommand,
) (UpsertOrderSnapshotResult, error) {
	if err := command.Validate(); err != nil {
		return UpsertOrderSnapshotResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return UpsertOrderSnapshotResult{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	now := h.now()
	snapshot := command.snapshot
	if snapshot.RefreshedAt.IsZero() {
		snapshot.RefreshedAt = now
	}

	existing, err := uow.OrderRepository().GetByExternalNumber(ctx, command.externalNumber)
	switch {
	case errors.Is(err, errs.ErrObjectNotFound):
		existing = nil
	case err != nil:
		return UpsertOrderSnapshotResult{}, err
	}

	result := UpsertOrderSnapshotResult{Order: existing}
	params := audit.Params{
		EntityType: audit.EntityOrder,
		Actor:      command.actor,
		Details:    audit.Fields{"sales_ref": snapshot.SalesRef, "line_count": len(snapshot.Lines)},
	}

	if existing == nil {
		created, createErr := order.NewOrder(kernel.NewUUID(), command.externalNumber, snapshot.SalesRef, order.Picked, &snapshot, now)
		if createErr != nil {
			return UpsertOrderSnapshotResult{}, createErr
		}
		if err = uow.OrderRepository().Add(ctx, created); err != nil {
			return UpsertOrderSnapshotResult{}, err
		}
		result = UpsertOrderSnapshotResult{Order: created, Created: true}
		params.Action = audit.ActionCreated
		params.After = audit.Fields{"external_number": created.ExternalNumber(), "status": created.Status().String()}
	} else {
		if err = existing.ReplaceSnapshot(snapshot, now); err != nil {
			return UpsertOrderSnapshotResult{}, err
		}
		if err = uow.OrderRepository().Update(ctx, existing); err != nil {
			return UpsertOrderSnapshotResult{}, err
		}
		params.Action = audit.ActionSnapshotUpdated
	}
	params.EntityID = result.Order.ID()

	if err = recordAudit(ctx, uow.AuditRepository(), params, now); err != nil {
		return UpsertOrderSnapshotResult{}, err
	}
	if err = uow.Commit(ctx); err != nil {
		return UpsertOrderSnapshotResult{}, err
	}
	return result, nil
}
