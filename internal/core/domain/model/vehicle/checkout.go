// Package vehicle provides the Checkout aggregate: one person holding one
// physical vehicle. At most one checkout per vehicle is open at a time.
package vehicle

import (
	"errors"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

var ErrCheckoutIsNotConstructed = errors.New("Checkout must be created via NewCheckout constructor")

// Checkout is open while checkedInAt is nil.
type Checkout struct {
	id           kernel.UUID
	vehicle      kernel.Vehicle
	holder       kernel.Identity
	checkedOutAt time.Time
	checkedInAt  *time.Time
	checkedInBy  string
	notes        string

	isConstructed bool
}

func NewCheckout(id kernel.UUID, vehicle kernel.Vehicle, holder kernel.Identity, now time.Time) (*Checkout, error) {
	if holder.IsZero() {
		return nil, errs.ErrAuthRequired
	}
	if err := errors.Join(id.Validate(), vehicle.Validate()); err != nil {
		return nil, err
	}
	return &Checkout{
		id:            id,
		vehicle:       vehicle,
		holder:        holder,
		checkedOutAt:  now,
		isConstructed: true,
	}, nil
}

type RestoreParams struct {
	ID           kernel.UUID
	Vehicle      kernel.Vehicle
	Holder       kernel.Identity
	CheckedOutAt time.Time
	CheckedInAt  *time.Time
	CheckedInBy  string
	Notes        string
}

func RestoreCheckout(p RestoreParams) (*Checkout, error) {
	if err := errors.Join(p.ID.Validate(), p.Vehicle.Validate()); err != nil {
		return nil, err
	}
	return &Checkout{
		id:            p.ID,
		vehicle:       p.Vehicle,
		holder:        p.Holder,
		checkedOutAt:  p.CheckedOutAt,
		checkedInAt:   p.CheckedInAt,
		checkedInBy:   p.CheckedInBy,
		notes:         p.Notes,
		isConstructed: true,
	}, nil
}

func (c *Checkout) Validate() error {
	if c == nil || !c.isConstructed {
		return ErrCheckoutIsNotConstructed
	}
	return nil
}

func (c *Checkout) ID() kernel.UUID {
	return c.id
}

func (c *Checkout) Vehicle() kernel.Vehicle {
	return c.vehicle
}

func (c *Checkout) Holder() kernel.Identity {
	return c.holder
}

func (c *Checkout) CheckedOutAt() time.Time {
	return c.checkedOutAt
}

func (c *Checkout) CheckedInAt() *time.Time {
	return c.checkedInAt
}

func (c *Checkout) CheckedInBy() string {
	return c.checkedInBy
}

func (c *Checkout) Notes() string {
	return c.notes
}

func (c *Checkout) IsOpen() bool {
	return c.checkedInAt == nil
}

// CheckIn closes the checkout. Notes, when given, are appended on a new line
// prefixed with the name of whoever checked the vehicle in.
func (c *Checkout) CheckIn(actor kernel.Identity, notes string, now time.Time) error {
	if actor.IsZero() {
		return errs.ErrAuthRequired
	}
	if !c.IsOpen() {
		return errs.NewConflictError(errs.ErrNotCheckedOut, "vehicle", c.vehicle.String())
	}

	if notes = strings.TrimSpace(notes); notes != "" {
		entry := actor.DisplayName() + ": " + notes
		if c.notes == "" {
			c.notes = entry
		} else {
			c.notes = c.notes + "\n" + entry
		}
	}
	c.checkedInAt = &now
	c.checkedInBy = actor.DisplayName()
	return nil
}
