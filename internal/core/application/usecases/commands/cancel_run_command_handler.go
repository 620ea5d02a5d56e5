package commands

import (
	"context"

	"dispatch/internal/core/domain/model/audit"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/domain/model/run"
	"dispatch/internal/pkg/logger"
	"dispatch/internal/pkg/metrics"
)

// CancelledRunIssuePrefix starts the issue reason of orders pulled out of a
// cancelled run.
const CancelledRunIssuePrefix = "run cancelled: "

// CancelRunCommandHandler abandons an active run. Orders still in delivery
// move to issue; delivered orders stay delivered. The vehicle checkout is
// left alone.
type CancelRunCommandHandler struct {
	uowFactory UoWFactory
	now        Clock
	log        *logger.Logger
	metrics    *metrics.Dispatch
}

func NewCancelRunCommandHandler(
	uowFactory UoWFactory,
	now Clock,
	log *logger.Logger,
	m *metrics.Dispatch,
) CancelRunCommandHandler {
	return CancelRunCommandHandler{uowFactory: uowFactory, now: now, log: log, metrics: m}
}

func (h CancelRunCommandHandler) Handle(ctx context.Context, command CancelRunCommand) (*run.DeliveryRun, error) {
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

	target, err := uow.RunRepository().LockByID(ctx, command.RunID())
	if err != nil {
		return nil, err
	}
	if err = target.EnsureActive(); err != nil {
		return nil, err
	}

	orders, err := lockOrders(ctx, uow.OrderRepository(), target.OrderIDs())
	if err != nil {
		return nil, err
	}

	now := h.now()
	// The cancelled run keeps its order list as history.
	machine := newOrderStateMachine(uow.OrderRepository(), uow.AuditRepository(), nil)
	pulled := 0
	for _, o := range orders {
		if o.Status() != order.InDelivery {
			continue
		}
		if err = machine.apply(ctx, o, order.Issue, command.Actor(), CancelledRunIssuePrefix+command.Reason(), now); err != nil {
			return nil, err
		}
		pulled++
	}

	if err = target.Cancel(command.Actor(), command.Reason(), now); err != nil {
		return nil, err
	}
	if err = uow.RunRepository().Update(ctx, target); err != nil {
		return nil, err
	}
	if err = recordAudit(ctx, uow.AuditRepository(), audit.Params{
		EntityType: audit.EntityRun,
		EntityID:   target.ID(),
		Action:     audit.ActionCancelled,
		Actor:      command.Actor(),
		Before:     audit.Fields{"status": run.Active.String()},
		After:      audit.Fields{"status": run.Cancelled.String()},
		Details:    audit.Fields{"reason": command.Reason(), "orders_to_issue": pulled},
	}, now); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.metrics.RunFinished("cancelled")
	h.log.Info(h.log.WithField(ctx, "run_id", target.ID().String()), "delivery run cancelled")
	return target, nil
}
