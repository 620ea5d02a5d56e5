package commands

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/audit"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"
)

// orderStateMachine applies a transition and persists it with its
// status_changed audit record. All repositories share one transaction.
//
// When runs is set, an order pulled from delivery into issue is also dropped
// from its active run, so a later run can claim it without both runs
// fulfilling it. The run row is locked after the order row.
type orderStateMachine struct {
	orders ports.OrderRepository
	audits ports.AuditRepository
	runs   ports.RunRepository
}

func newOrderStateMachine(orders ports.OrderRepository, audits ports.AuditRepository, runs ports.RunRepository) orderStateMachine {
	return orderStateMachine{orders: orders, audits: audits, runs: runs}
}

// apply leaves o untouched when the transition is rejected.
func (m orderStateMachine) apply(
	ctx context.Context,
	o *order.Order,
	next order.Status,
	actor kernel.Identity,
	reason string,
	now time.Time,
) error {
	from := o.Status()
	runID := o.AssignedRun()
	if err := o.Transition(next, reason, now); err != nil {
		return err
	}
	if err := m.orders.Update(ctx, o); err != nil {
		return err
	}
	if from == order.InDelivery && next == order.Issue && runID != nil {
		if err := m.releaseFromRun(ctx, *runID, o.ID()); err != nil {
			return err
		}
	}

	details := audit.Fields{"from": from.String(), "to": next.String()}
	if reason != "" {
		details["reason"] = reason
	}
	if assigned := o.AssignedRun(); assigned != nil {
		details["run_id"] = assigned.String()
	} else if runID != nil {
		details["run_id"] = runID.String()
	}
	return recordAudit(ctx, m.audits, audit.Params{
		EntityType: audit.EntityOrder,
		EntityID:   o.ID(),
		Action:     audit.ActionStatusChanged,
		Actor:      actor,
		Before:     audit.Fields{"status": from.String()},
		After:      audit.Fields{"status": next.String()},
		Details:    details,
	}, now)
}

func (m orderStateMachine) releaseFromRun(ctx context.Context, runID, orderID kernel.UUID) error {
	if m.runs == nil {
		return nil
	}
	owner, err := m.runs.LockByID(ctx, runID)
	if err != nil {
		return err
	}
	if !owner.IsActive() {
		return nil
	}
	if err = owner.ReleaseOrder(orderID); err != nil {
		return err
	}
	return m.runs.Update(ctx, owner)
}

// lockOrders locks exactly ids and fails with ObjectNotFoundError naming every
// id that has no row.
func lockOrders(ctx context.Context, repo ports.OrderRepository, ids []kernel.UUID) ([]*order.Order, error) {
	sorted := kernel.UniqueSorted(ids)
	orders, err := repo.LockByIDs(ctx, sorted)
	if err != nil {
		return nil, err
	}
	if missing := missingIDs(sorted, orders); len(missing) > 0 {
		return nil, newOrdersNotFoundError(missing)
	}
	return orders, nil
}

func missingIDs(want []kernel.UUID, found []*order.Order) []kernel.UUID {
	seen := make(map[string]struct{}, len(found))
	for _, o := range found {
		seen[o.ID().String()] = struct{}{}
	}
	var missing []kernel.UUID
	for _, id := range want {
		if _, ok := seen[id.String()]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
