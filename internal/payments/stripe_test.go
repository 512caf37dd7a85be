package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go"
)

const testWebhookSecret = "whsec_test_secret"

// signPayload builds a Stripe-Signature header the way Stripe does: an HMAC
// over "<timestamp>.<payload>" with the webhook secret.
func signPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func newMockedProcessor(t *testing.T) *StripeProcessor {
	t.Helper()
	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)

	stripe.SetBackend(stripe.APIBackend, stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		HTTPClient: client,
		URL:        stripe.APIURL,
	}))
	return NewStripeProcessor("sk_test_123", testWebhookSecret)
}

func TestCreateIntent(t *testing.T) {
	processor := newMockedProcessor(t)

	httpmock.RegisterResponder("POST", "https://api.stripe.com/v1/payment_intents",
		httpmock.NewStringResponder(200, `{
			"id": "pi_123",
			"client_secret": "pi_123_secret_abc",
			"status": "requires_payment_method"
		}`))

	intent, err := processor.CreateIntent(context.Background(), 100000, "usd", "key-1", map[string]string{
		"booking_id": "b-1",
	})
	assert.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
	assert.Equal(t, "requires_payment_method", intent.Status)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestRetrieveIntent(t *testing.T) {
	processor := newMockedProcessor(t)

	httpmock.RegisterResponder("GET", "https://api.stripe.com/v1/payment_intents/pi_123",
		httpmock.NewStringResponder(200, `{
			"id": "pi_123",
			"client_secret": "pi_123_secret_abc",
			"status": "succeeded"
		}`))

	intent, err := processor.RetrieveIntent(context.Background(), "pi_123")
	assert.NoError(t, err)
	assert.Equal(t, "succeeded", intent.Status)
}

func TestCreateIntentUpstreamError(t *testing.T) {
	processor := newMockedProcessor(t)

	httpmock.RegisterResponder("POST", "https://api.stripe.com/v1/payment_intents",
		httpmock.NewStringResponder(402, `{"error": {"type": "card_error", "message": "declined"}}`))

	_, err := processor.CreateIntent(context.Background(), 100000, "usd", "key-1", nil)
	assert.Error(t, err)
}

func TestParseWebhookValidSignature(t *testing.T) {
	processor := NewStripeProcessor("sk_test_123", testWebhookSecret)
	payload := []byte(`{"id": "evt_1", "type": "payment_intent.succeeded", "data": {"object": {"id": "pi_42"}}}`)
	header := signPayload(payload, testWebhookSecret, time.Now())

	event, err := processor.ParseWebhook(payload, header)
	assert.NoError(t, err)
	assert.Equal(t, "evt_1", event.ID)
	assert.Equal(t, "payment_intent.succeeded", event.Type)
	assert.Equal(t, "pi_42", event.IntentID)
	assert.JSONEq(t, string(payload), string(event.Raw))

	assert.True(t, processor.VerifyWebhookSignature(payload, header))
}

func TestParseWebhookRejectsBadSignature(t *testing.T) {
	processor := NewStripeProcessor("sk_test_123", testWebhookSecret)
	payload := []byte(`{"id": "evt_1", "type": "payment_intent.succeeded", "data": {"object": {"id": "pi_42"}}}`)

	header := signPayload(payload, "whsec_wrong_secret", time.Now())
	_, err := processor.ParseWebhook(payload, header)
	assert.Error(t, err)
	assert.False(t, processor.VerifyWebhookSignature(payload, header))
}

func TestParseWebhookRejectsStaleTimestamp(t *testing.T) {
	processor := NewStripeProcessor("sk_test_123", testWebhookSecret)
	payload := []byte(`{"id": "evt_1", "type": "payment_intent.succeeded", "data": {"object": {"id": "pi_42"}}}`)

	header := signPayload(payload, testWebhookSecret, time.Now().Add(-time.Hour))
	_, err := processor.ParseWebhook(payload, header)
	assert.Error(t, err)
}

func TestDecodeEvent(t *testing.T) {
	raw := []byte(`{"id": "evt_9", "type": "payment_intent.payment_failed", "data": {"object": {"id": "pi_9"}}}`)

	event, err := DecodeEvent(raw)
	assert.NoError(t, err)
	assert.Equal(t, "evt_9", event.ID)
	assert.Equal(t, "payment_intent.payment_failed", event.Type)
	assert.Equal(t, "pi_9", event.IntentID)
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	_, err := DecodeEvent([]byte(`not json`))
	assert.Error(t, err)
}

func TestIntentStatusToPayment(t *testing.T) {
	assert.Equal(t, "paid", IntentStatusToPayment("succeeded"))
	assert.Equal(t, "failed", IntentStatusToPayment("requires_payment_method"))
	assert.Equal(t, "failed", IntentStatusToPayment("canceled"))
	assert.Equal(t, "pending", IntentStatusToPayment("processing"))
	assert.Equal(t, "pending", IntentStatusToPayment("requires_confirmation"))
}
