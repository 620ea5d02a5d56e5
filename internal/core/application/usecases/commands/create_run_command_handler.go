package commands

import (
	"context"

	"dispatch/internal/core/domain/model/audit"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/run"
	"dispatch/internal/core/domain/services"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/logger"
	"dispatch/internal/pkg/metrics"
)

// CreateRunCommandHandler starts a delivery run.
type CreateRunCommandHandler struct {
	uowFactory UoWFactory
	now        Clock
	log        *logger.Logger
	metrics    *metrics.Dispatch
}

func NewCreateRunCommandHandler(
	uowFactory UoWFactory,
	now Clock,
	log *logger.Logger,
	m *metrics.Dispatch,
) CreateRunCommandHandler {
	return CreateRunCommandHandler{uowFactory: uowFactory, now: now, log: log, metrics: m}
}

// Handle runs every check and mutation in one transaction, so either the run
// exists with all its orders in delivery or nothing changed.
//
// Checks, in order:
//   - no active run uses the vehicle (ErrVehicleInUse)
//   - the vehicle is checked out (ErrVehicleNotCheckedOut) by the runner (ErrWrongHolder)
//   - every order exists (ObjectNotFoundError) and is pre-delivery (ErrInvalidOrderState)
//
// Only the requested orders are locked, in id order.
func (h CreateRunCommandHandler) Handle(ctx context.Context, command CreateRunCommand) (*run.DeliveryRun, error) {
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

	v := command.Vehicle()
	active, err := uow.RunRepository().FindActiveByVehicle(ctx, v)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, errs.NewConflictErrorWithHolder(errs.ErrVehicleInUse, "vehicle", v.String(), active.Name())
	}

	checkout, err := uow.CheckoutRepository().FindOpenByVehicle(ctx, v)
	if err != nil {
		return nil, err
	}
	if checkout == nil {
		return nil, errs.NewConflictError(errs.ErrVehicleNotCheckedOut, "vehicle", v.String())
	}
	if !checkout.Holder().Owns(command.Runner()) {
		return nil, errs.NewConflictErrorWithHolder(
			errs.ErrWrongHolder, "vehicle", v.String(), checkout.Holder().DisplayName())
	}

	orders, err := lockOrders(ctx, uow.OrderRepository(), command.OrderIDs())
	if err != nil {
		return nil, err
	}
	if err = requireStatus(orders, order.PreDelivery, errs.ErrInvalidOrderState); err != nil {
		return nil, err
	}

	now := h.now()
	existing, err := uow.RunNameSequenceRepository().Next(ctx, services.WindowKey(now))
	if err != nil {
		return nil, err
	}

	created, err := run.NewRun(kernel.NewUUID(), services.RunName(now, existing), v, command.Runner(), command.OrderIDs(), now)
	if err != nil {
		return nil, err
	}
	if err = uow.RunRepository().Add(ctx, created); err != nil {
		return nil, err
	}

	machine := newOrderStateMachine(uow.OrderRepository(), uow.AuditRepository(), nil)
	for _, o := range orders {
		if err = o.AssignToRun(created.ID(), now); err != nil {
			return nil, err
		}
		if err = machine.apply(ctx, o, order.InDelivery, command.Runner(), "", now); err != nil {
			return nil, err
		}
	}

	if err = recordAudit(ctx, uow.AuditRepository(), audit.Params{
		EntityType: audit.EntityRun,
		EntityID:   created.ID(),
		Action:     audit.ActionRunCreated,
		Actor:      command.Runner(),
		After: audit.Fields{
			"name":        created.Name(),
			"vehicle":     v.String(),
			"order_count": created.OrderCount(),
			"order_ids":   kernel.Strings(created.OrderIDs()),
		},
	}, now); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.metrics.RunCreated()
	h.log.Info(h.log.WithFields(ctx, map[string]any{
		"run_id":      created.ID().String(),
		"vehicle":     v.String(),
		"order_count": created.OrderCount(),
	}), "delivery run created")
	return created, nil
}

// requireStatus fails with a StateError of kind listing every order not in want.
func requireStatus(orders []*order.Order, want order.Status, kind error) error {
	var ids []string
	current := make(map[string]string)
	for _, o := range orders {
		if o.Status() == want {
			continue
		}
		ids = append(ids, o.ID().String())
		current[o.ID().String()] = o.Status().String()
	}
	if len(ids) == 0 {
		return nil
	}
	return errs.NewStateError(kind, ids, current, want.String())
}
