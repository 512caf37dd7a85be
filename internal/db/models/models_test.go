package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestStatusFromVendors(t *testing.T) {
	tests := []struct {
		name     string
		statuses []VendorApprovalStatus
		want     BookingStatus
	}{
		{"no vendors", nil, BookingAwaitingVendorApproval},
		{"all approved", []VendorApprovalStatus{VendorApproved, VendorApproved}, BookingReadyForPayment},
		{"one pending", []VendorApprovalStatus{VendorApproved, VendorPending}, BookingAwaitingVendorApproval},
		{"one declined", []VendorApprovalStatus{VendorApproved, VendorDeclined}, BookingAwaitingVendorApproval},
		{"one countered", []VendorApprovalStatus{VendorCountered}, BookingAwaitingVendorApproval},
		{"single approved", []VendorApprovalStatus{VendorApproved}, BookingReadyForPayment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vendors := make([]BookingVendor, 0, len(tt.statuses))
			for _, status := range tt.statuses {
				vendors = append(vendors, BookingVendor{ApprovalStatus: status})
			}
			assert.Equal(t, tt.want, StatusFromVendors(vendors))
		})
	}
}

func TestBookingStatusTerminal(t *testing.T) {
	assert.True(t, BookingCompleted.Terminal())
	assert.True(t, BookingCanceled.Terminal())
	assert.False(t, BookingPaid.Terminal())
	assert.False(t, BookingAwaitingVendorApproval.Terminal())
	assert.False(t, BookingInProgress.Terminal())
}

func TestSummarizeLedgerFold(t *testing.T) {
	bookingID := uuid.New()
	entries := []LedgerEntry{
		{BookingID: bookingID, Type: LedgerHeldFunds, Amount: 100000, Currency: "usd"},
		{BookingID: bookingID, Type: LedgerPlatformFee, Amount: 10000, Currency: "usd"},
		{BookingID: bookingID, Type: LedgerPayout, Amount: 22500, Currency: "usd"},
		{BookingID: bookingID, Type: LedgerRefund, Amount: 5000, Currency: "usd"},
	}

	summary := SummarizeLedger(bookingID, entries)
	assert.Equal(t, bookingID, summary.BookingID)
	assert.Equal(t, "usd", summary.Currency)
	assert.Equal(t, int64(100000), summary.HeldFunds)
	assert.Equal(t, int64(10000), summary.PlatformFees)
	assert.Equal(t, int64(22500), summary.PayoutsPaid)
	assert.Equal(t, int64(5000), summary.Refunds)
	assert.Equal(t, int64(62500), summary.AvailableToPayout)
}

func TestSummarizeLedgerEmpty(t *testing.T) {
	bookingID := uuid.New()
	summary := SummarizeLedger(bookingID, nil)
	assert.Equal(t, int64(0), summary.HeldFunds)
	assert.Equal(t, int64(0), summary.AvailableToPayout)
}

func TestSummarizeLedgerIgnoresReleaseEntries(t *testing.T) {
	bookingID := uuid.New()
	entries := []LedgerEntry{
		{BookingID: bookingID, Type: LedgerHeldFunds, Amount: 1000, Currency: "usd"},
		{BookingID: bookingID, Type: LedgerRelease, Amount: 400, Currency: "usd"},
	}
	summary := SummarizeLedger(bookingID, entries)
	assert.Equal(t, int64(1000), summary.AvailableToPayout)
}

func TestSummarizePayoutsByVendor(t *testing.T) {
	vendorA := uuid.New()
	vendorB := uuid.New()
	payouts := []Payout{
		{BookingVendorID: vendorA, Milestone: MilestoneReservation, Amount: 22500, Status: PayoutPaid},
		{BookingVendorID: vendorA, Milestone: MilestoneCompletion, Amount: 22500, Status: PayoutLocked},
		{BookingVendorID: vendorB, Milestone: MilestoneReservation, Amount: 13500, Status: PayoutEligible},
		{BookingVendorID: vendorB, Milestone: MilestoneCompletion, Amount: 13500, Status: PayoutHeld},
	}

	perVendor := SummarizePayoutsByVendor(payouts)
	assert.Len(t, perVendor, 2)

	assert.Equal(t, int64(45000), perVendor[vendorA].NetAllocated)
	assert.Equal(t, int64(22500), perVendor[vendorA].PaidOut)
	assert.Equal(t, int64(22500), perVendor[vendorA].RemainingLocked)

	assert.Equal(t, int64(27000), perVendor[vendorB].NetAllocated)
	assert.Equal(t, int64(0), perVendor[vendorB].PaidOut)
	assert.Equal(t, int64(27000), perVendor[vendorB].RemainingLocked)
}

func TestSummarizePayoutsByVendorExcludesReversedFromLocked(t *testing.T) {
	vendorID := uuid.New()
	payouts := []Payout{
		{BookingVendorID: vendorID, Milestone: MilestoneReservation, Amount: 500, Status: PayoutReversed},
	}
	perVendor := SummarizePayoutsByVendor(payouts)
	assert.Equal(t, int64(500), perVendor[vendorID].NetAllocated)
	assert.Equal(t, int64(0), perVendor[vendorID].PaidOut)
	assert.Equal(t, int64(0), perVendor[vendorID].RemainingLocked)
}
