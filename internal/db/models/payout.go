package models

import (
	"time"

	"github.com/google/uuid"
)

type PayoutMilestone string

const (
	MilestoneReservation PayoutMilestone = "reservation"
	MilestoneCompletion  PayoutMilestone = "completion"
)

type PayoutStatus string

const (
	PayoutLocked   PayoutStatus = "locked"
	PayoutEligible PayoutStatus = "eligible"
	PayoutPaid     PayoutStatus = "paid"
	PayoutHeld     PayoutStatus = "held"
	PayoutReversed PayoutStatus = "reversed"
)

// Payout is one milestone release for one booking vendor; exactly two exist
// per vendor (reservation + completion), created by webhook reconciliation.
type Payout struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	BookingVendorID uuid.UUID       `db:"booking_vendor_id" json:"booking_vendor_id"`
	Milestone       PayoutMilestone `db:"milestone" json:"milestone"`
	Amount          int64           `db:"amount_cents" json:"amount_cents"`
	Status          PayoutStatus    `db:"status" json:"status"`
	AdminApprovedBy *uuid.UUID      `db:"admin_approved_by" json:"admin_approved_by,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}
