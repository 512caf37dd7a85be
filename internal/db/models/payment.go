package models

import (
	"time"

	"github.com/google/uuid"
)

type PaymentProvider string

const (
	ProviderStripe PaymentProvider = "stripe"
	ProviderManual PaymentProvider = "manual"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type PaymentMode string

const (
	PaymentModeFull    PaymentMode = "full"
	PaymentModeDeposit PaymentMode = "deposit"
)

// Payment is the single capture attempt of a booking. booking_id and
// idempotency_key are both unique at the storage layer; PayoutsCreatedAt
// guards payout creation so a payment funds its payout rows at most once.
type Payment struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	BookingID        uuid.UUID       `db:"booking_id" json:"booking_id"`
	Provider         PaymentProvider `db:"provider" json:"provider"`
	ProviderIntentID string          `db:"provider_intent_id" json:"provider_intent_id"`
	IdempotencyKey   string          `db:"idempotency_key" json:"-"`
	Mode             PaymentMode     `db:"mode" json:"mode"`
	Status           PaymentStatus   `db:"status" json:"status"`
	Amount           int64           `db:"amount_cents" json:"amount_cents"`
	Currency         string          `db:"currency" json:"currency"`
	PayoutsCreatedAt *time.Time      `db:"payouts_created_at" json:"payouts_created_at,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}
