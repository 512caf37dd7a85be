package models

import (
	"encoding/json"
	"time"
)

type WebhookEventStatus string

const (
	WebhookReceived  WebhookEventStatus = "received"
	WebhookProcessed WebhookEventStatus = "processed"
	WebhookFailed    WebhookEventStatus = "failed"
)

// WebhookEvent is the durable log of one inbound provider event, keyed by
// the provider's own event id. Rows are never deleted, which makes replay
// and admin retry safe by construction.
type WebhookEvent struct {
	ID          string             `db:"id" json:"id"`
	Provider    PaymentProvider    `db:"provider" json:"provider"`
	EventType   string             `db:"event_type" json:"event_type"`
	Payload     json.RawMessage    `db:"payload" json:"payload"`
	Status      WebhookEventStatus `db:"status" json:"status"`
	Error       *string            `db:"error" json:"error,omitempty"`
	ReceivedAt  time.Time          `db:"received_at" json:"received_at"`
	ProcessedAt *time.Time         `db:"processed_at" json:"processed_at,omitempty"`
}
