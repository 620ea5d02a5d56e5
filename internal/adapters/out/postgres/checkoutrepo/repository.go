package checkoutrepo

import (
	"context"

	"dispatch/internal/adapters/out/postgres/dbutil"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/vehicle"
	"dispatch/internal/pkg/errs"

	"gorm.io/gorm"
)

// GormCheckoutRepository implements ports.CheckoutRepository using GORM.
type GormCheckoutRepository struct {
	db *gorm.DB
}

func NewGormCheckoutRepository(db *gorm.DB) *GormCheckoutRepository {
	return &GormCheckoutRepository{db: db}
}

func (r *GormCheckoutRepository) Add(ctx context.Context, aggregate *vehicle.Checkout) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		if dbutil.IsUniqueViolation(err, "ux_vehicle_checkouts_open", "vehicle_checkouts.vehicle") {
			return errs.NewConflictError(errs.ErrAlreadyCheckedOut, "vehicle", aggregate.Vehicle().String())
		}
		return err
	}

	return nil
}

func (r *GormCheckoutRepository) Update(ctx context.Context, aggregate *vehicle.Checkout) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).
		Model(&CheckoutDTO{}).
		Where("id = ?", dto.ID).
		Select("*").
		Omit("id").
		Updates(&dto)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("checkout", aggregate.ID().String())
	}

	return nil
}

func (r *GormCheckoutRepository) FindOpenByVehicle(ctx context.Context, v kernel.Vehicle) (*vehicle.Checkout, error) {
	var dtos []CheckoutDTO
	if err := r.db.WithContext(ctx).
		Clauses(dbutil.ForUpdate()).
		Where("vehicle = ? AND checked_in_at IS NULL", v.String()).
		Order("checked_out_at DESC").
		Limit(1).
		Find(&dtos).Error; err != nil {
		return nil, err
	}
	if len(dtos) == 0 {
		return nil, nil
	}

	return toDomain(dtos[0])
}
