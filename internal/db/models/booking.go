package models

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingDraft                  BookingStatus = "draft"
	BookingAwaitingVendorApproval BookingStatus = "awaiting_vendor_approval"
	BookingReadyForPayment        BookingStatus = "ready_for_payment"
	BookingPaid                   BookingStatus = "paid"
	BookingInProgress             BookingStatus = "in_progress"
	BookingCompleted              BookingStatus = "completed"
	BookingCanceled               BookingStatus = "canceled"
)

// Booking is one organizer request spanning a venue and zero or more
// service vendors. TotalGrossAmount stays 0 until every vendor has approved.
type Booking struct {
	ID               uuid.UUID     `db:"id" json:"id"`
	OrganizerUserID  uuid.UUID     `db:"organizer_user_id" json:"organizer_user_id"`
	TemplateID       *uuid.UUID    `db:"template_id" json:"template_id,omitempty"`
	EventDate        *time.Time    `db:"event_date" json:"event_date,omitempty"`
	GuestCount       *int          `db:"guest_count" json:"guest_count,omitempty"`
	LocationText     *string       `db:"location_text" json:"location_text,omitempty"`
	Notes            *string       `db:"notes" json:"notes,omitempty"`
	RequestedBudget  *int64        `db:"requested_budget_cents" json:"requested_budget_cents,omitempty"`
	Status           BookingStatus `db:"status" json:"status"`
	TotalGrossAmount int64         `db:"total_gross_amount_cents" json:"total_gross_amount_cents"`
	Currency         string        `db:"currency" json:"currency"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
}

// Terminal reports whether the booking can no longer change state.
func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCanceled
}

// StatusFromVendors recomputes the negotiation-phase booking status from its
// vendor rows: READY_FOR_PAYMENT exactly when every vendor has approved,
// AWAITING_VENDOR_APPROVAL otherwise.
func StatusFromVendors(vendors []BookingVendor) BookingStatus {
	if len(vendors) == 0 {
		return BookingAwaitingVendorApproval
	}
	for _, v := range vendors {
		if v.ApprovalStatus != VendorApproved {
			return BookingAwaitingVendorApproval
		}
	}
	return BookingReadyForPayment
}
