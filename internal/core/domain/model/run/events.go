package run

import (
	"time"

	"dispatch/internal/core/domain/model/kernel"
)

type EventType string

const (
	EventCreated          EventType = "run.created"
	EventCompleted        EventType = "run.completed"
	EventCompletionFailed EventType = "run.completion_failed"
	EventCancelled        EventType = "run.cancelled"
)

// Event is a run lifecycle notification for downstream consumers.
type Event struct {
	Type       EventType
	RunID      kernel.UUID
	RunName    string
	Vehicle    kernel.Vehicle
	OrderIDs   []kernel.UUID
	Actor      kernel.Identity
	Reason     string
	Failures   []FulfillmentFailure
	Remainders int
	OccurredAt time.Time
}
