package outboxrepo

import (
	"context"
	"encoding/json"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/run"
	"dispatch/internal/core/ports"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AggregateTypeRun is the aggregate_type of every row written here.
const AggregateTypeRun = "delivery_run"

// EventDTO is a row of outbox_events.
type EventDTO struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	EventType     string     `gorm:"not null"`
	AggregateType string     `gorm:"not null"`
	AggregateID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	Payload       []byte     `gorm:"type:jsonb;not null"`
	CreatedAt     time.Time  `gorm:"not null;index;autoCreateTime:false"`
	PublishedAt   *time.Time `gorm:"index"`
	AttemptCount  int        `gorm:"not null;default:0"`
	LastError     *string
}

func (EventDTO) TableName() string {
	return "outbox_events"
}

type GormOutboxRepository struct {
	db *gorm.DB
}

func NewGormOutboxRepository(db *gorm.DB) *GormOutboxRepository {
	return &GormOutboxRepository{db: db}
}

func (r *GormOutboxRepository) Add(ctx context.Context, event run.Event) error {
	id := uuid.New()
	payload, err := encode(id, event)
	if err != nil {
		return err
	}

	dto := EventDTO{
		ID:            id,
		EventType:     string(event.Type),
		AggregateType: AggregateTypeRun,
		AggregateID:   event.RunID.Bytes(),
		Payload:       payload,
		CreatedAt:     event.OccurredAt,
	}
	return r.db.WithContext(ctx).Create(&dto).Error
}

func (r *GormOutboxRepository) FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]ports.OutboxMessage, error) {
	var rows []EventDTO
	err := r.db.WithContext(ctx).
		Where("published_at IS NULL AND attempt_count < ?", maxAttempts).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	messages := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		messages = append(messages, ports.OutboxMessage{
			ID:           row.ID,
			EventType:    row.EventType,
			AggregateID:  row.AggregateID,
			Payload:      row.Payload,
			CreatedAt:    row.CreatedAt,
			AttemptCount: row.AttemptCount,
		})
	}
	return messages, nil
}

func (r *GormOutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&EventDTO{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"published_at": at,
		}).Error
}

func (r *GormOutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	return r.db.WithContext(ctx).
		Model(&EventDTO{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error":    cause.Error(),
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
}

func encode(id uuid.UUID, event run.Event) ([]byte, error) {
	data := runEventPayload{
		RunID:      event.RunID.String(),
		RunName:    event.RunName,
		Vehicle:    event.Vehicle.String(),
		OrderIDs:   kernel.Strings(event.OrderIDs),
		Reason:     event.Reason,
		Remainders: event.Remainders,
	}
	for _, f := range event.Failures {
		data.Failures = append(data.Failures, failurePayload{
			OrderID:        f.OrderID.String(),
			ExternalNumber: f.ExternalNumber,
			Code:           f.Code,
			Reason:         f.Reason,
			Retryable:      f.Retryable,
		})
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	envelope := PayloadEnvelope{
		Version:    EnvelopeVersion,
		EventID:    id.String(),
		EventType:  string(event.Type),
		OccurredAt: event.OccurredAt,
		Data:       raw,
	}
	if !event.Actor.IsZero() {
		envelope.Actor = &ActorRef{
			UserID:      event.Actor.UserID(),
			DisplayName: event.Actor.DisplayName(),
		}
	}
	return json.Marshal(envelope)
}
