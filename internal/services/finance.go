package services

import (
	"github.com/google/uuid"

	"planora/internal/db/models"
)

// FinanceService is the read side: everything it returns is derived by
// folding the journal, never read from a stored balance.
type FinanceService struct {
	bookings BookingStore
	ledger   LedgerStore
	payouts  PayoutStore
}

func NewFinanceService(
	bookings BookingStore,
	ledger LedgerStore,
	payouts PayoutStore,
) *FinanceService {
	return &FinanceService{bookings: bookings, ledger: ledger, payouts: payouts}
}

// BookingFinance is a booking's full financial position.
type BookingFinance struct {
	Summary models.LedgerSummary                     `json:"summary"`
	Vendors map[uuid.UUID]models.VendorLedgerSummary `json:"vendors"`
	Entries []models.LedgerEntry                     `json:"entries"`
	Payouts []models.Payout                          `json:"payouts"`
}

// BookingSummary folds a booking's journal and payout rows.
func (s *FinanceService) BookingSummary(bookingID uuid.UUID) (*BookingFinance, error) {
	if _, err := s.bookings.GetByID(bookingID); err != nil {
		return nil, err
	}
	entries, err := s.ledger.ListByBooking(bookingID)
	if err != nil {
		return nil, err
	}
	payouts, err := s.payouts.ListByBooking(bookingID)
	if err != nil {
		return nil, err
	}
	return &BookingFinance{
		Summary: models.SummarizeLedger(bookingID, entries),
		Vendors: models.SummarizePayoutsByVendor(payouts),
		Entries: entries,
		Payouts: payouts,
	}, nil
}

// Overview is the platform-wide position for the finance dashboard.
type Overview struct {
	HeldFunds     int64 `json:"held_funds_cents"`
	PlatformFees  int64 `json:"platform_fee_cents"`
	PayoutsPaid   int64 `json:"payouts_paid_cents"`
	EligibleTotal int64 `json:"eligible_total_cents"`
}

// PlatformOverview sums the whole journal plus the pending payout queue.
func (s *FinanceService) PlatformOverview() (*Overview, error) {
	held, fees, paid, err := s.ledger.PlatformTotals()
	if err != nil {
		return nil, err
	}
	eligible, err := s.payouts.EligibleTotal()
	if err != nil {
		return nil, err
	}
	return &Overview{
		HeldFunds:     held,
		PlatformFees:  fees,
		PayoutsPaid:   paid,
		EligibleTotal: eligible,
	}, nil
}
