package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

// RemainderSuffix is appended to a parent's external number to derive the
// number of its remainder order.
const RemainderSuffix = "-R"

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder, NewRemainderOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

	ErrOrderAlreadyHasRemainder = errors.New("order already has a remainder")
)

// Order is one customer order moving through physical handling.
//
// Order follows these invariants:
//   - status only changes along the edges of the transition table
//   - assignedRunID is set if and only if status is InDelivery
//   - issueReason is non-empty if and only if status is Issue
//   - a remainder order points to its parent; the parent points back via remainderOrderID
type Order struct {
	id             kernel.UUID
	externalNumber string
	salesRef       string
	status         Status

	// assignedRunID is a weak reference to the run carrying the order.
	assignedRunID *kernel.UUID
	issueReason   string

	parentOrderID    *kernel.UUID
	remainderOrderID *kernel.UUID

	snapshot *Snapshot

	createdAt time.Time
	updatedAt time.Time

	isConstructed bool
}

// NewOrder creates an order entering the workflow, either freshly picked or
// already staged for delivery.
func NewOrder(
	id kernel.UUID,
	externalNumber, salesRef string,
	initial Status,
	snapshot *Snapshot,
	now time.Time,
) (*Order, error) {
	o := &Order{
		salesRef:      strings.TrimSpace(salesRef),
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}

	var statusErr error
	if !initial.IsInitial() {
		statusErr = errs.NewValueIsInvalidErrorWithCause(
			"status",
			fmt.Errorf("orders cannot be created in status %s", initial),
		)
	}

	if err := errors.Join(
		o.setID(id),
		o.setExternalNumber(externalNumber),
		statusErr,
		o.setSnapshot(snapshot),
	); err != nil {
		return nil, err
	}
	o.status = initial

	return o, nil
}

// NewRemainderOrder spawns the follow-up order for lines of parent that were
// not picked. The remainder starts over at Picked and carries no movements.
func NewRemainderOrder(id kernel.UUID, parent *Order, lines []Line, now time.Time) (*Order, error) {
	if err := parent.Validate(); err != nil {
		return nil, err
	}
	if parent.IsRemainder() {
		return nil, errs.NewValueIsInvalidErrorWithCause(
			"parent",
			fmt.Errorf("%s is itself a remainder", parent.externalNumber),
		)
	}
	if len(lines) == 0 {
		return nil, errs.NewValueIsRequiredError("remainder lines")
	}

	salesRef := parent.salesRef
	if parent.snapshot != nil && parent.snapshot.SalesRef != "" {
		salesRef = parent.snapshot.SalesRef
	}

	o, err := NewOrder(id, parent.RemainderNumber(), salesRef, Picked, &Snapshot{
		SalesRef:    salesRef,
		Lines:       lines,
		RefreshedAt: now,
	}, now)
	if err != nil {
		return nil, err
	}

	parentID := parent.id
	o.parentOrderID = &parentID
	return o, nil
}

// RestoreParams carries the persisted state of an order.
type RestoreParams struct {
	ID               kernel.UUID
	ExternalNumber   string
	SalesRef         string
	Status           Status
	AssignedRunID    *kernel.UUID
	IssueReason      string
	ParentOrderID    *kernel.UUID
	RemainderOrderID *kernel.UUID
	Snapshot         *Snapshot
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// RestoreOrder rebuilds an order from storage. It checks the invariants but
// not the transition rules.
func RestoreOrder(p RestoreParams) (*Order, error) {
	o := &Order{
		salesRef:         p.SalesRef,
		assignedRunID:    p.AssignedRunID,
		issueReason:      p.IssueReason,
		parentOrderID:    p.ParentOrderID,
		remainderOrderID: p.RemainderOrderID,
		snapshot:         p.Snapshot,
		createdAt:        p.CreatedAt,
		updatedAt:        p.UpdatedAt,
		isConstructed:    true,
	}

	if err := errors.Join(
		o.setID(p.ID),
		o.setExternalNumber(p.ExternalNumber),
		p.Status.Validate(),
	); err != nil {
		return nil, err
	}
	o.status = p.Status

	return o, nil
}

func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) ExternalNumber() string {
	return o.externalNumber
}

func (o *Order) SalesRef() string {
	return o.salesRef
}

func (o *Order) Status() Status {
	return o.status
}

func (o *Order) AssignedRun() *kernel.UUID {
	return o.assignedRunID
}

func (o *Order) IssueReason() string {
	return o.issueReason
}

func (o *Order) ParentOrder() *kernel.UUID {
	return o.parentOrderID
}

func (o *Order) RemainderOrder() *kernel.UUID {
	return o.remainderOrderID
}

func (o *Order) HasRemainder() bool {
	return o.remainderOrderID != nil
}

// Snapshot returns a copy-free view of the external payload; nil when the
// order was created manually and never refreshed.
func (o *Order) Snapshot() *Snapshot {
	return o.snapshot
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// IsRemainder reports whether the order was split off another order.
// Remainders are never split again.
func (o *Order) IsRemainder() bool {
	return strings.HasSuffix(o.externalNumber, RemainderSuffix)
}

// RemainderNumber is the deterministic external number of this order's remainder.
func (o *Order) RemainderNumber() string {
	return o.externalNumber + RemainderSuffix
}

// Transition moves the order to next.
//
// Rules on top of the transition table:
//   - entering Issue requires a non-empty reason, stored as the issue reason
//   - entering InDelivery requires a prior AssignToRun
//   - leaving InDelivery drops the run assignment
//   - leaving Issue clears the issue reason
//
// On error the order is left unchanged.
func (o *Order) Transition(next Status, reason string, now time.Time) error {
	if !o.status.CanTransitionTo(next) {
		return errs.NewInvalidTransitionError(o.id.String(), o.status.String(), next.String())
	}

	reason = strings.TrimSpace(reason)
	if next == Issue && reason == "" {
		return errs.NewValueIsRequiredError("issue_reason")
	}
	if next == InDelivery && o.assignedRunID == nil {
		return errs.NewValueIsRequiredErrorWithCause(
			"assigned_run_id",
			fmt.Errorf("order %s must be assigned to a run before delivery", o.id),
		)
	}

	if o.status == InDelivery {
		o.assignedRunID = nil
	}
	if o.status == Issue {
		o.issueReason = ""
	}
	if next == Issue {
		o.issueReason = reason
	}

	o.status = next
	o.updatedAt = now
	return nil
}

// AssignToRun reserves a pre-delivery order for a run. The caller follows up
// with Transition(InDelivery, ...).
func (o *Order) AssignToRun(runID kernel.UUID, now time.Time) error {
	if err := runID.Validate(); err != nil {
		return err
	}
	if o.status != PreDelivery {
		return errs.NewStateError(
			errs.ErrInvalidOrderState,
			[]string{o.id.String()},
			map[string]string{o.id.String(): o.status.String()},
			PreDelivery.String(),
		)
	}
	o.assignedRunID = &runID
	o.updatedAt = now
	return nil
}

// LinkRemainder records the remainder spawned from this order.
func (o *Order) LinkRemainder(remainder *Order, now time.Time) error {
	if err := remainder.Validate(); err != nil {
		return err
	}
	if o.remainderOrderID != nil {
		return ErrOrderAlreadyHasRemainder
	}
	if remainder.parentOrderID == nil || !remainder.parentOrderID.IsEqual(o.id) {
		return errs.NewValueIsInvalidErrorWithCause(
			"remainder",
			fmt.Errorf("%s is not a remainder of %s", remainder.id, o.id),
		)
	}
	id := remainder.id
	o.remainderOrderID = &id
	o.updatedAt = now
	return nil
}

// ReplaceSnapshot stores a fresh external payload.
func (o *Order) ReplaceSnapshot(snapshot Snapshot, now time.Time) error {
	if err := o.setSnapshot(&snapshot); err != nil {
		return err
	}
	if snapshot.SalesRef != "" {
		o.salesRef = snapshot.SalesRef
	}
	o.updatedAt = now
	return nil
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setExternalNumber(number string) error {
	number = strings.TrimSpace(number)
	if number == "" {
		return errs.NewValueIsRequiredError("external_number")
	}
	o.externalNumber = number
	return nil
}

func (o *Order) setSnapshot(snapshot *Snapshot) error {
	if snapshot == nil {
		return nil
	}
	if err := snapshot.Validate(); err != nil {
		return err
	}
	o.snapshot = snapshot
	return nil
}
