// Package outboxrepo stores run events in the transactional outbox.
package outboxrepo

import (
	"encoding/json"
	"time"
)

// EnvelopeVersion is bumped on breaking payload changes.
const EnvelopeVersion = 1

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID      string `json:"userId,omitempty"`
	DisplayName string `json:"displayName"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

type failurePayload struct {
	OrderID        string `json:"orderId"`
	ExternalNumber string `json:"externalNumber"`
	Code           string `json:"code"`
	Reason         string `json:"reason"`
	Retryable      bool   `json:"retryable"`
}

type runEventPayload struct {
	RunID      string           `json:"runId"`
	RunName    string           `json:"runName"`
	Vehicle    string           `json:"vehicle"`
	OrderIDs   []string         `json:"orderIds"`
	Reason     string           `json:"reason,omitempty"`
	Failures   []failurePayload `json:"failures,omitempty"`
	Remainders int              `json:"remainders,omitempty"`
}
