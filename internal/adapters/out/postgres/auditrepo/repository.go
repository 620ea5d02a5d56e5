// Package auditrepo appends audit trail entries.
package auditrepo

import (
	"context"
	"time"

	"dispatch/internal/core/domain/model/audit"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecordDTO is the row of audit_records. Rows are never updated.
type RecordDTO struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey"`
	EntityType  string       `gorm:"not null;index:ix_audit_entity,priority:1"`
	EntityID    uuid.UUID    `gorm:"type:uuid;not null;index:ix_audit_entity,priority:2"`
	Action      string       `gorm:"not null"`
	ActorUserID *string      `gorm:"size:255"`
	ActorName   string       `gorm:"not null"`
	Before      audit.Fields `gorm:"type:jsonb;serializer:json"`
	After       audit.Fields `gorm:"type:jsonb;serializer:json"`
	Details     audit.Fields `gorm:"type:jsonb;serializer:json"`
	CreatedAt   time.Time    `gorm:"not null;autoCreateTime:false"`
}

func (RecordDTO) TableName() string {
	return "audit_records"
}

type GormAuditRepository struct {
	db *gorm.DB
}

func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

func (r *GormAuditRepository) Append(ctx context.Context, record *audit.Record) error {
	dto := RecordDTO{
		ID:          record.ID().Bytes(),
		EntityType:  string(record.EntityType()),
		EntityID:    record.EntityID().Bytes(),
		Action:      string(record.Action()),
		ActorUserID: record.Actor().UserIDPtr(),
		ActorName:   record.Actor().DisplayName(),
		Before:      record.Before(),
		After:       record.After(),
		Details:     record.Details(),
		CreatedAt:   record.CreatedAt(),
	}
	return r.db.WithContext(ctx).Create(&dto).Error
}
