// Package runrepo persists delivery runs with GORM.
package runrepo

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/run"

	"github.com/google/uuid"
)

// RunDTO is the row of the delivery_runs table. At most one active row per
// vehicle is enforced by the partial index ux_delivery_runs_active_vehicle.
type RunDTO struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Name         string     `gorm:"not null"`
	Status       string     `gorm:"not null;index"`
	Vehicle      string     `gorm:"not null;index"`
	RunnerUserID *string    `gorm:"size:255"`
	RunnerName   string     `gorm:"not null"`
	OrderIDs     []string   `gorm:"type:jsonb;serializer:json;not null"`
	StartTime    time.Time  `gorm:"not null"`
	EndTime      *time.Time
	CancelReason string     `gorm:"not null;default:''"`
}

func (RunDTO) TableName() string {
	return "delivery_runs"
}

func fromDomain(r *run.DeliveryRun) RunDTO {
	return RunDTO{
		ID:           r.ID().Bytes(),
		Name:         r.Name(),
		Status:       r.Status().String(),
		Vehicle:      r.Vehicle().String(),
		RunnerUserID: r.Runner().UserIDPtr(),
		RunnerName:   r.Runner().DisplayName(),
		OrderIDs:     kernel.Strings(r.OrderIDs()),
		StartTime:    r.StartTime(),
		EndTime:      r.EndTime(),
		CancelReason: r.CancelReason(),
	}
}

func toDomain(dto RunDTO) (*run.DeliveryRun, error) {
	id, err := kernel.UUIDFromRaw(dto.ID)
	if err != nil {
		return nil, err
	}
	status, err := run.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}
	runner, err := kernel.RestoreIdentity(dto.RunnerUserID, dto.RunnerName)
	if err != nil {
		return nil, err
	}
	orderIDs := make([]kernel.UUID, 0, len(dto.OrderIDs))
	for _, raw := range dto.OrderIDs {
		orderID, parseErr := kernel.UUIDFromString(raw)
		if parseErr != nil {
			return nil, parseErr
		}
		orderIDs = append(orderIDs, orderID)
	}

	return run.RestoreRun(run.RestoreParams{
		ID:           id,
		Name:         dto.Name,
		Status:       status,
		Vehicle:      kernel.Vehicle(dto.Vehicle),
		Runner:       runner,
		OrderIDs:     orderIDs,
		StartTime:    dto.StartTime,
		EndTime:      dto.EndTime,
		CancelReason: dto.CancelReason,
	})
}
