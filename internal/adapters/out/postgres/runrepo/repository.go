package runrepo

import (
	"context"
	"errors"

	"dispatch/internal/adapters/out/postgres/dbutil"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/run"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormRunRepository implements ports.RunRepository using GORM.
type GormRunRepository struct {
	db     *gorm.DB
	events eventWriter
}

// eventWriter stores domain events in the same transaction as the run row.
type eventWriter interface {
	Add(ctx context.Context, event run.Event) error
}

func NewGormRunRepository(db *gorm.DB, events eventWriter) *GormRunRepository {
	return &GormRunRepository{db: db, events: events}
}

func (r *GormRunRepository) Add(ctx context.Context, aggregate *run.DeliveryRun) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if dbutil.IsUniqueViolation(err, "ux_delivery_runs_active_vehicle", "delivery_runs.vehicle") {
			return errs.NewConflictError(errs.ErrVehicleInUse, "vehicle", aggregate.Vehicle().String())
		}
		return err
	}

	return r.flushEvents(ctx, aggregate)
}

func (r *GormRunRepository) Update(ctx context.Context, aggregate *run.DeliveryRun) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&RunDTO{}).
		Where("id = ?", dto.ID).
		Select("*").
		Omit("id").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("run", aggregate.ID().String())
	}

	return r.flushEvents(ctx, aggregate)
}

func (r *GormRunRepository) LockByID(ctx context.Context, id kernel.UUID) (*run.DeliveryRun, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto RunDTO
	err := r.db.WithContext(ctx).
		Clauses(dbutil.ForUpdate()).
		First(&dto, "id = ?", id.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("run", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

func (r *GormRunRepository) FindActiveByVehicle(ctx context.Context, vehicle kernel.Vehicle) (*run.DeliveryRun, error) {
	var dtos []RunDTO
	if err := r.db.WithContext(ctx).
		Where("vehicle = ? AND status = ?", vehicle.String(), run.Active.String()).
		Limit(1).
		Find(&dtos).Error; err != nil {
		return nil, err
	}
	if len(dtos) == 0 {
		return nil, nil
	}

	return toDomain(dtos[0])
}

func (r *GormRunRepository) flushEvents(ctx context.Context, aggregate *run.DeliveryRun) error {
	for _, event := range aggregate.DomainEvents() {
		if err := r.events.Add(ctx, event); err != nil {
			return err
		}
	}
	aggregate.ClearDomainEvents()
	return nil
}
