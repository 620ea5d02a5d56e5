// Package audit provides Record, one append-only entry of the audit trail.
package audit

import (
	"errors"
	"strings"
	"time"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

type EntityType string

const (
	EntityOrder    EntityType = "order"
	EntityRun      EntityType = "run"
	EntityCheckout EntityType = "vehicle_checkout"
)

type Action string

const (
	ActionCreated          Action = "created"
	ActionSnapshotUpdated  Action = "snapshot_updated"
	ActionStatusChanged    Action = "status_changed"
	ActionCheckedOut       Action = "checked_out"
	ActionCheckedIn        Action = "checked_in"
	ActionRunCreated       Action = "run_created"
	ActionCompleted        Action = "completed"
	ActionCompletionFailed Action = "completion_failed"
	ActionCancelled        Action = "cancelled"
	ActionRemainderSpawned Action = "remainder_spawned"
	ActionRemainderCreated Action = "remainder_created"
)

// Fields is a free-form JSON object attached to a record.
type Fields map[string]any

// Record is immutable once created.
type Record struct {
	id         kernel.UUID
	entityType EntityType
	entityID   kernel.UUID
	action     Action
	actor      kernel.Identity
	before     Fields
	after      Fields
	details    Fields
	createdAt  time.Time
}

type Params struct {
	EntityType EntityType
	EntityID   kernel.UUID
	Action     Action
	Actor      kernel.Identity
	Before     Fields
	After      Fields
	Details    Fields
}

func NewRecord(id kernel.UUID, p Params, now time.Time) (*Record, error) {
	var actorErr, typeErr, actionErr error
	if p.Actor.IsZero() {
		actorErr = errs.NewValueIsRequiredError("actor")
	}
	if strings.TrimSpace(string(p.EntityType)) == "" {
		typeErr = errs.NewValueIsRequiredError("entity_type")
	}
	if strings.TrimSpace(string(p.Action)) == "" {
		actionErr = errs.NewValueIsRequiredError("action")
	}
	if err := errors.Join(id.Validate(), p.EntityID.Validate(), actorErr, typeErr, actionErr); err != nil {
		return nil, err
	}

	return &Record{
		id:         id,
		entityType: p.EntityType,
		entityID:   p.EntityID,
		action:     p.Action,
		actor:      p.Actor,
		before:     p.Before,
		after:      p.After,
		details:    p.Details,
		createdAt:  now,
	}, nil
}

// RestoreRecord rebuilds a persisted record without validation.
func RestoreRecord(id kernel.UUID, p Params, createdAt time.Time) *Record {
	return &Record{
		id:         id,
		entityType: p.EntityType,
		entityID:   p.EntityID,
		action:     p.Action,
		actor:      p.Actor,
		before:     p.Before,
		after:      p.After,
		details:    p.Details,
		createdAt:  createdAt,
	}
}

func (r *Record) ID() kernel.UUID        { return r.id }
func (r *Record) EntityType() EntityType { return r.entityType }
func (r *Record) EntityID() kernel.UUID  { return r.entityID }
func (r *Record) Action() Action         { return r.action }
func (r *Record) Actor() kernel.Identity { return r.actor }
func (r *Record) Before() Fields         { return r.before }
func (r *Record) After() Fields          { return r.after }
func (r *Record) Details() Fields        { return r.details }
func (r *Record) CreatedAt() time.Time   { return r.createdAt }
