// Package payments defines the narrow capability this service needs from a
// payment processor. Any provider implementing Processor is substitutable;
// the rest of the system never imports a provider SDK directly.
package payments

import (
	"context"
	"encoding/json"
)

// Intent is the processor-side payment intent, reduced to what callers use.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Event is a provider webhook event normalized for reconciliation.
type Event struct {
	ID       string
	Type     string
	IntentID string
	Raw      json.RawMessage
}

// Processor is the payment processor capability.
type Processor interface {
	CreateIntent(ctx context.Context, amountCents int64, currency, idempotencyKey string, metadata map[string]string) (*Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*Intent, error)
	VerifyWebhookSignature(payload []byte, sigHeader string) bool
	ParseWebhook(payload []byte, sigHeader string) (*Event, error)
}

// DecodeEvent rebuilds an Event from a stored webhook payload, for admin
// retries where the original signature header is long gone.
func DecodeEvent(raw []byte) (*Event, error) {
	var envelope struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID string `json:"id"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	return &Event{
		ID:       envelope.ID,
		Type:     envelope.Type,
		IntentID: envelope.Data.Object.ID,
		Raw:      json.RawMessage(raw),
	}, nil
}
