package models

import (
	"time"

	"github.com/google/uuid"
)

type LedgerEntryType string

const (
	LedgerHeldFunds   LedgerEntryType = "held_funds"
	LedgerPlatformFee LedgerEntryType = "platform_fee"
	LedgerRelease     LedgerEntryType = "release"
	LedgerPayout      LedgerEntryType = "payout"
	LedgerRefund      LedgerEntryType = "refund"
)

// LedgerEntry is an append-only journal fact. Entries are never updated or
// deleted; corrections are new entries. (payment_id, type) and
// (payout_id, type) are unique so a reconciliation step posts at most once.
type LedgerEntry struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	BookingID       uuid.UUID       `db:"booking_id" json:"booking_id"`
	BookingVendorID *uuid.UUID      `db:"booking_vendor_id" json:"booking_vendor_id,omitempty"`
	PaymentID       *uuid.UUID      `db:"payment_id" json:"payment_id,omitempty"`
	PayoutID        *uuid.UUID      `db:"payout_id" json:"payout_id,omitempty"`
	Type            LedgerEntryType `db:"type" json:"type"`
	Amount          int64           `db:"amount_cents" json:"amount_cents"`
	Currency        string          `db:"currency" json:"currency"`
	Note            *string         `db:"note" json:"note,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// LedgerSummary is a booking's financial position derived by folding its
// journal. Available funds are what remains in escrow after fees, paid
// payouts and refunds.
type LedgerSummary struct {
	BookingID         uuid.UUID `json:"booking_id"`
	Currency          string    `json:"currency"`
	HeldFunds         int64     `json:"held_funds_cents"`
	PlatformFees      int64     `json:"platform_fee_cents"`
	PayoutsPaid       int64     `json:"payouts_paid_cents"`
	Refunds           int64     `json:"refunds_cents"`
	AvailableToPayout int64     `json:"available_to_payout_cents"`
}

// VendorLedgerSummary is the per-vendor view of allocated vs released funds.
type VendorLedgerSummary struct {
	NetAllocated    int64 `json:"net_allocated_cents"`
	PaidOut         int64 `json:"paid_out_cents"`
	RemainingLocked int64 `json:"remaining_locked_cents"`
}

// SummarizeLedger folds a booking's journal entries into totals.
func SummarizeLedger(bookingID uuid.UUID, entries []LedgerEntry) LedgerSummary {
	summary := LedgerSummary{BookingID: bookingID}
	for _, entry := range entries {
		if summary.Currency == "" {
			summary.Currency = entry.Currency
		}
		switch entry.Type {
		case LedgerHeldFunds:
			summary.HeldFunds += entry.Amount
		case LedgerPlatformFee:
			summary.PlatformFees += entry.Amount
		case LedgerPayout:
			summary.PayoutsPaid += entry.Amount
		case LedgerRefund:
			summary.Refunds += entry.Amount
		}
	}
	summary.AvailableToPayout = summary.HeldFunds - summary.PlatformFees - summary.PayoutsPaid - summary.Refunds
	return summary
}

// SummarizePayoutsByVendor groups payout rows into per-vendor allocations,
// keyed by booking vendor id.
func SummarizePayoutsByVendor(payouts []Payout) map[uuid.UUID]VendorLedgerSummary {
	perVendor := make(map[uuid.UUID]VendorLedgerSummary)
	for _, payout := range payouts {
		vendorSummary := perVendor[payout.BookingVendorID]
		vendorSummary.NetAllocated += payout.Amount
		switch payout.Status {
		case PayoutPaid:
			vendorSummary.PaidOut += payout.Amount
		case PayoutLocked, PayoutEligible, PayoutHeld:
			vendorSummary.RemainingLocked += payout.Amount
		}
		perVendor[payout.BookingVendorID] = vendorSummary
	}
	return perVendor
}
