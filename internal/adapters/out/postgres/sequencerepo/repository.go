// Package sequencerepo keeps the per-window run counters used for run names.
package sequencerepo

import (
	"context"

	"dispatch/internal/adapters/out/postgres/dbutil"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SequenceDTO is one half-day window counter.
type SequenceDTO struct {
	WindowKey string `gorm:"primaryKey;size:32"`
	Count     int    `gorm:"not null;default:0"`
}

func (SequenceDTO) TableName() string {
	return "run_name_sequences"
}

type GormRunNameSequenceRepository struct {
	db *gorm.DB
}

func NewGormRunNameSequenceRepository(db *gorm.DB) *GormRunNameSequenceRepository {
	return &GormRunNameSequenceRepository{db: db}
}

// Next must run inside a transaction: the counter row stays locked until it
// ends, so two runs in the same window never get the same number.
func (r *GormRunNameSequenceRepository) Next(ctx context.Context, windowKey string) (int, error) {
	db := r.db.WithContext(ctx)

	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&SequenceDTO{WindowKey: windowKey}).Error; err != nil {
		return 0, err
	}

	var seq SequenceDTO
	if err := db.Clauses(dbutil.ForUpdate()).
		First(&seq, "window_key = ?", windowKey).Error; err != nil {
		return 0, err
	}

	previous := seq.Count
	if err := db.Model(&SequenceDTO{}).
		Where("window_key = ?", windowKey).
		Update("count", previous+1).Error; err != nil {
		return 0, err
	}
	return previous, nil
}
