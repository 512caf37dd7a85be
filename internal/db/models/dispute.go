package models

import (
	"time"

	"github.com/google/uuid"
)

type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "open"
	DisputeResolved DisputeStatus = "resolved"
)

// Dispute records a disagreement on a booking. Opening one force-holds every
// eligible payout of the booking; resolution itself is handled elsewhere.
type Dispute struct {
	ID             uuid.UUID     `db:"id" json:"id"`
	BookingID      uuid.UUID     `db:"booking_id" json:"booking_id"`
	OpenedByUserID uuid.UUID     `db:"opened_by_user_id" json:"opened_by_user_id"`
	Status         DisputeStatus `db:"status" json:"status"`
	Reason         string        `db:"reason" json:"reason"`
	Details        *string       `db:"details" json:"details,omitempty"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}
