package payments

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go"
	"github.com/stripe/stripe-go/paymentintent"
	"github.com/stripe/stripe-go/webhook"
)

// StripeProcessor implements Processor against the Stripe API.
type StripeProcessor struct {
	webhookSecret string
}

// NewStripeProcessor configures the global Stripe client key and returns the
// processor.
func NewStripeProcessor(secretKey, webhookSecret string) *StripeProcessor {
	stripe.Key = secretKey
	return &StripeProcessor{webhookSecret: webhookSecret}
}

func (p *StripeProcessor) CreateIntent(ctx context.Context, amountCents int64, currency, idempotencyKey string, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
	}
	params.SetIdempotencyKey(idempotencyKey)
	for key, value := range metadata {
		params.AddMetadata(key, value)
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &Intent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
	}, nil
}

func (p *StripeProcessor) RetrieveIntent(ctx context.Context, intentID string) (*Intent, error) {
	intent, err := paymentintent.Get(intentID, nil)
	if err != nil {
		return nil, err
	}
	return &Intent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
	}, nil
}

func (p *StripeProcessor) VerifyWebhookSignature(payload []byte, sigHeader string) bool {
	_, err := webhook.ConstructEvent(payload, sigHeader, p.webhookSecret)
	return err == nil
}

func (p *StripeProcessor) ParseWebhook(payload []byte, sigHeader string) (*Event, error) {
	stripeEvent, err := webhook.ConstructEvent(payload, sigHeader, p.webhookSecret)
	if err != nil {
		return nil, err
	}

	var object struct {
		ID string `json:"id"`
	}
	if stripeEvent.Data != nil && len(stripeEvent.Data.Raw) > 0 {
		if err := json.Unmarshal(stripeEvent.Data.Raw, &object); err != nil {
			return nil, err
		}
	}
	return &Event{
		ID:       stripeEvent.ID,
		Type:     stripeEvent.Type,
		IntentID: object.ID,
		Raw:      json.RawMessage(payload),
	}, nil
}

// IntentStatusToPayment maps a Stripe intent status onto the local payment
// status; anything not clearly settled stays pending.
func IntentStatusToPayment(intentStatus string) string {
	switch intentStatus {
	case "succeeded":
		return "paid"
	case "requires_payment_method", "canceled":
		return "failed"
	default:
		return "pending"
	}
}
