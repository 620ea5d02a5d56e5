package run

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

var ErrRunIsNotConstructed = errors.New("DeliveryRun must be created via NewRun constructor")

// DeliveryRun groups orders carried out by one runner in one vehicle.
//
// Invariants:
//   - endTime is set if and only if the run is no longer active
//   - cancelReason is set only for cancelled runs
//   - orderIDs is non-empty and unique at creation
//   - an order leaves orderIDs only when it is pulled out of delivery while
//     the run is active
type DeliveryRun struct {
	id           kernel.UUID
	name         string
	status       Status
	vehicle      kernel.Vehicle
	runner       kernel.Identity
	orderIDs     []kernel.UUID
	startTime    time.Time
	endTime      *time.Time
	cancelReason string

	events []Event

	isConstructed bool
}

func NewRun(
	id kernel.UUID,
	name string,
	vehicle kernel.Vehicle,
	runner kernel.Identity,
	orderIDs []kernel.UUID,
	now time.Time,
) (*DeliveryRun, error) {
	r := &DeliveryRun{
		status:        Active,
		startTime:     now,
		isConstructed: true,
	}

	if err := errors.Join(
		r.setID(id),
		r.setName(name),
		r.setVehicle(vehicle),
		r.setRunner(runner),
		r.setOrderIDs(orderIDs),
	); err != nil {
		return nil, err
	}

	r.raise(EventCreated, runner, "", now)
	return r, nil
}

type RestoreParams struct {
	ID           kernel.UUID
	Name         string
	Status       Status
	Vehicle      kernel.Vehicle
	Runner       kernel.Identity
	OrderIDs     []kernel.UUID
	StartTime    time.Time
	EndTime      *time.Time
	CancelReason string
}

func RestoreRun(p RestoreParams) (*DeliveryRun, error) {
	r := &DeliveryRun{
		startTime:     p.StartTime,
		endTime:       p.EndTime,
		cancelReason:  p.CancelReason,
		isConstructed: true,
	}

	if err := errors.Join(
		r.setID(p.ID),
		r.setName(p.Name),
		r.setVehicle(p.Vehicle),
		p.Status.Validate(),
	); err != nil {
		return nil, err
	}
	r.status = p.Status
	r.runner = p.Runner
	r.orderIDs = append([]kernel.UUID(nil), p.OrderIDs...)

	return r, nil
}

func (r *DeliveryRun) Validate() error {
	if r == nil || !r.isConstructed {
		return ErrRunIsNotConstructed
	}
	return nil
}

func (r *DeliveryRun) ID() kernel.UUID {
	return r.id
}

func (r *DeliveryRun) Name() string {
	return r.name
}

func (r *DeliveryRun) Status() Status {
	return r.status
}

func (r *DeliveryRun) Vehicle() kernel.Vehicle {
	return r.vehicle
}

func (r *DeliveryRun) Runner() kernel.Identity {
	return r.runner
}

func (r *DeliveryRun) StartTime() time.Time {
	return r.startTime
}

func (r *DeliveryRun) EndTime() *time.Time {
	return r.endTime
}

func (r *DeliveryRun) CancelReason() string {
	return r.cancelReason
}

func (r *DeliveryRun) IsActive() bool {
	return r.status == Active
}

func (r *DeliveryRun) OrderCount() int {
	return len(r.orderIDs)
}

func (r *DeliveryRun) OrderIDs() []kernel.UUID {
	return append([]kernel.UUID(nil), r.orderIDs...)
}

// Complete ends an active run after every order was fulfilled upstream.
func (r *DeliveryRun) Complete(actor kernel.Identity, remainders int, now time.Time) error {
	if err := r.EnsureActive(); err != nil {
		return err
	}
	r.status = Completed
	r.endTime = &now

	r.raise(EventCompleted, actor, "", now)
	r.events[len(r.events)-1].Remainders = remainders
	return nil
}

// Cancel abandons an active run. The caller moves the run's orders out of
// delivery.
func (r *DeliveryRun) Cancel(actor kernel.Identity, reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return errs.NewValueIsRequiredError("cancel_reason")
	}
	if err := r.EnsureActive(); err != nil {
		return err
	}
	r.status = Cancelled
	r.endTime = &now
	r.cancelReason = reason

	r.raise(EventCancelled, actor, reason, now)
	return nil
}

// ReleaseOrder drops orderID from an active run. Unknown ids are ignored.
func (r *DeliveryRun) ReleaseOrder(orderID kernel.UUID) error {
	if err := r.EnsureActive(); err != nil {
		return err
	}
	r.orderIDs = slices.DeleteFunc(r.orderIDs, func(id kernel.UUID) bool {
		return id.IsEqual(orderID)
	})
	return nil
}

// RecordCompletionFailure notes a rejected finish attempt. The run stays
// active so the attempt can be repeated.
func (r *DeliveryRun) RecordCompletionFailure(actor kernel.Identity, failures []FulfillmentFailure, now time.Time) error {
	if err := r.EnsureActive(); err != nil {
		return err
	}
	r.raise(EventCompletionFailed, actor, fmt.Sprintf("%d order(s) failed fulfillment", len(failures)), now)
	r.events[len(r.events)-1].Failures = append([]FulfillmentFailure(nil), failures...)
	return nil
}

// DomainEvents returns the events raised since the run was loaded.
func (r *DeliveryRun) DomainEvents() []Event {
	return append([]Event(nil), r.events...)
}

func (r *DeliveryRun) ClearDomainEvents() {
	r.events = nil
}

// EnsureActive fails with a StateError of kind errs.ErrRunNotActive once the run
// has ended.
func (r *DeliveryRun) EnsureActive() error {
	if r.status != Active {
		return errs.NewStateError(
			errs.ErrRunNotActive,
			[]string{r.id.String()},
			map[string]string{r.id.String(): r.status.String()},
			Active.String(),
		)
	}
	return nil
}

func (r *DeliveryRun) raise(t EventType, actor kernel.Identity, reason string, now time.Time) {
	r.events = append(r.events, Event{
		Type:       t,
		RunID:      r.id,
		RunName:    r.name,
		Vehicle:    r.vehicle,
		OrderIDs:   r.OrderIDs(),
		Actor:      actor,
		Reason:     reason,
		OccurredAt: now,
	})
}

func (r *DeliveryRun) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	r.id = id
	return nil
}

func (r *DeliveryRun) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValueIsRequiredError("name")
	}
	r.name = name
	return nil
}

func (r *DeliveryRun) setVehicle(v kernel.Vehicle) error {
	if err := v.Validate(); err != nil {
		return err
	}
	r.vehicle = v
	return nil
}

func (r *DeliveryRun) setRunner(runner kernel.Identity) error {
	if runner.IsZero() {
		return errs.ErrAuthRequired
	}
	r.runner = runner
	return nil
}

func (r *DeliveryRun) setOrderIDs(ids []kernel.UUID) error {
	if len(ids) == 0 {
		return errs.NewValueIsRequiredError("order_ids")
	}
	for _, id := range ids {
		if err := id.Validate(); err != nil {
			return err
		}
	}
	r.orderIDs = kernel.UniqueSorted(ids)
	return nil
}
