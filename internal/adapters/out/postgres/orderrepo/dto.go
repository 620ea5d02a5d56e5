// Package orderrepo persists order aggregates with GORM.
package orderrepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO is the row of the orders table. The external snapshot is stored
// as a JSON document.
type OrderDTO struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ExternalNumber   string          `gorm:"not null;uniqueIndex:ux_orders_external_number"`
	SalesRef         string          `gorm:"not null;default:''"`
	Status           string          `gorm:"not null;index"`
	AssignedRunID    *uuid.UUID      `gorm:"type:uuid;index"`
	IssueReason      string          `gorm:"not null;default:''"`
	ParentOrderID    *uuid.UUID      `gorm:"type:uuid;index"`
	HasRemainder     bool            `gorm:"not null;default:false"`
	RemainderOrderID *uuid.UUID      `gorm:"type:uuid"`
	ExternalSnapshot *order.Snapshot `gorm:"type:jsonb;serializer:json"`
	CreatedAt        time.Time       `gorm:"not null;autoCreateTime:false"`
	UpdatedAt        time.Time       `gorm:"not null;autoUpdateTime:false"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

func fromDomain(o *order.Order) OrderDTO {
	return OrderDTO{
		ID:               o.ID().Bytes(),
		ExternalNumber:   o.ExternalNumber(),
		SalesRef:         o.SalesRef(),
		Status:           o.Status().String(),
		AssignedRunID:    rawID(o.AssignedRun()),
		IssueReason:      o.IssueReason(),
		ParentOrderID:    rawID(o.ParentOrder()),
		HasRemainder:     o.HasRemainder(),
		RemainderOrderID: rawID(o.RemainderOrder()),
		ExternalSnapshot: o.Snapshot(),
		CreatedAt:        o.CreatedAt(),
		UpdatedAt:        o.UpdatedAt(),
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromRaw(dto.ID)
	if err != nil {
		return nil, err
	}
	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}
	assigned, err := domainID(dto.AssignedRunID)
	if err != nil {
		return nil, err
	}
	parent, err := domainID(dto.ParentOrderID)
	if err != nil {
		return nil, err
	}
	remainder, err := domainID(dto.RemainderOrderID)
	if err != nil {
		return nil, err
	}

	return order.RestoreOrder(order.RestoreParams{
		ID:               id,
		ExternalNumber:   dto.ExternalNumber,
		SalesRef:         dto.SalesRef,
		Status:           status,
		AssignedRunID:    assigned,
		IssueReason:      dto.IssueReason,
		ParentOrderID:    parent,
		RemainderOrderID: remainder,
		Snapshot:         dto.ExternalSnapshot,
		CreatedAt:        dto.CreatedAt,
		UpdatedAt:        dto.UpdatedAt,
	})
}

func rawID(id *kernel.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	raw := id.Bytes()
	return &raw
}

func domainID(raw *uuid.UUID) (*kernel.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := kernel.UUIDFromRaw(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
