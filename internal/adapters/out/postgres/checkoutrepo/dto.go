// Package checkoutrepo persists vehicle checkouts with GORM.
package checkoutrepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/vehicle"

	"github.com/google/uuid"
)

// CheckoutDTO is the row of vehicle_checkouts. An open checkout has a NULL
// checked_in_at; ux_vehicle_checkouts_open allows one per vehicle.
type CheckoutDTO struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Vehicle      string     `gorm:"not null;index"`
	HolderUserID *string    `gorm:"size:255"`
	HolderName   string     `gorm:"not null"`
	CheckedOutAt time.Time  `gorm:"not null"`
	CheckedInAt  *time.Time `gorm:"index"`
	CheckedInBy  string     `gorm:"not null;default:''"`
	Notes        string     `gorm:"type:text;not null;default:''"`
}

func (CheckoutDTO) TableName() string {
	return "vehicle_checkouts"
}

func fromDomain(c *vehicle.Checkout) CheckoutDTO {
	return CheckoutDTO{
		ID:           c.ID().Bytes(),
		Vehicle:      c.Vehicle().String(),
		HolderUserID: c.Holder().UserIDPtr(),
		HolderName:   c.Holder().DisplayName(),
		CheckedOutAt: c.CheckedOutAt(),
		CheckedInAt:  c.CheckedInAt(),
		CheckedInBy:  c.CheckedInBy(),
		Notes:        c.Notes(),
	}
}

func toDomain(dto CheckoutDTO) (*vehicle.Checkout, error) {
	id, err := kernel.UUIDFromRaw(dto.ID)
	if err != nil {
		return nil, err
	}
	holder, err := kernel.RestoreIdentity(dto.HolderUserID, dto.HolderName)
	if err != nil {
		return nil, err
	}

	return vehicle.RestoreCheckout(vehicle.RestoreParams{
		ID:           id,
		Vehicle:      kernel.Vehicle(dto.Vehicle),
		Holder:       holder,
		CheckedOutAt: dto.CheckedOutAt,
		CheckedInAt:  dto.CheckedInAt,
		CheckedInBy:  dto.CheckedInBy,
		Notes:        dto.Notes,
	})
}
