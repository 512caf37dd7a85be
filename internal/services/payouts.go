package services

import (
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"planora/internal/apperr"
	"planora/internal/db/models"
	"planora/internal/notify"
)

// PayoutService drives the payout lifecycle. Money only leaves escrow
// through Approve, which re-checks available funds under the booking lock.
type PayoutService struct {
	db             *sqlx.DB
	payouts        PayoutStore
	bookings       BookingStore
	bookingVendors BookingVendorStore
	vendors        VendorStore
	ledger         LedgerStore
	disputes       DisputeStore
	notifier       notify.Notifier
}

func NewPayoutService(
	db *sqlx.DB,
	payouts PayoutStore,
	bookings BookingStore,
	bookingVendors BookingVendorStore,
	vendors VendorStore,
	ledger LedgerStore,
	disputes DisputeStore,
	notifier notify.Notifier,
) *PayoutService {
	return &PayoutService{
		db:             db,
		payouts:        payouts,
		bookings:       bookings,
		bookingVendors: bookingVendors,
		vendors:        vendors,
		ledger:         ledger,
		disputes:       disputes,
		notifier:       notifier,
	}
}

// RequestRelease lets a vendor surface its reservation payout for admin
// review once the booking is paid. Completion payouts unlock automatically
// when the booking completes.
func (s *PayoutService) RequestRelease(actor Actor, payoutID uuid.UUID) (*models.Payout, error) {
	vendor, err := s.vendors.GetByUserID(actor.UserID)
	if err != nil {
		return nil, err
	}
	payout, err := s.payouts.GetByID(payoutID)
	if err != nil {
		return nil, err
	}
	row, err := s.bookingVendors.GetByID(payout.BookingVendorID)
	if err != nil {
		return nil, err
	}
	if row.VendorID != vendor.ID {
		return nil, apperr.Forbidden("forbidden")
	}
	if payout.Milestone != models.MilestoneReservation {
		return nil, apperr.BadRequest("payout_not_reservation")
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	booking, err := s.bookings.GetForUpdateTx(tx, row.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingPaid && booking.Status != models.BookingInProgress {
		return nil, apperr.Conflict("booking_not_paid")
	}
	locked, err := s.payouts.GetForUpdateTx(tx, payoutID)
	if err != nil {
		return nil, err
	}
	if locked.Status != models.PayoutLocked {
		return nil, apperr.Conflict("payout_not_locked")
	}
	if err := s.payouts.UpdateStatusTx(tx, payoutID, models.PayoutEligible, nil); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.publish("payout.release_requested", map[string]interface{}{
		"payout_id":  payoutID,
		"booking_id": row.BookingID,
	})
	return s.payouts.GetByID(payoutID)
}

// Approve pays out an eligible payout. The milestone guard and the ledger
// funds check both run under the booking lock, and the payout posting is
// unique per payout, so double approval cannot double-spend.
func (s *PayoutService) Approve(actor Actor, payoutID uuid.UUID) (*models.Payout, error) {
	payout, err := s.payouts.GetByID(payoutID)
	if err != nil {
		return nil, err
	}
	row, err := s.bookingVendors.GetByID(payout.BookingVendorID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	booking, err := s.bookings.GetForUpdateTx(tx, row.BookingID)
	if err != nil {
		return nil, err
	}
	locked, err := s.payouts.GetForUpdateTx(tx, payoutID)
	if err != nil {
		return nil, err
	}
	if locked.Status != models.PayoutEligible {
		return nil, apperr.Conflict("payout_not_eligible")
	}
	switch locked.Milestone {
	case models.MilestoneReservation:
		if booking.Status != models.BookingPaid && booking.Status != models.BookingInProgress &&
			booking.Status != models.BookingCompleted {
			return nil, apperr.Conflict("booking_not_paid")
		}
	case models.MilestoneCompletion:
		if booking.Status != models.BookingCompleted {
			return nil, apperr.Conflict("booking_not_completed")
		}
	}

	entries, err := s.ledger.ListByBookingTx(tx, booking.ID)
	if err != nil {
		return nil, err
	}
	summary := models.SummarizeLedger(booking.ID, entries)
	if locked.Amount > summary.AvailableToPayout {
		return nil, apperr.Conflict("insufficient_funds").WithDetails(map[string]interface{}{
			"requested_cents": locked.Amount,
			"available_cents": summary.AvailableToPayout,
		})
	}

	entry := models.LedgerEntry{
		ID:              uuid.New(),
		BookingID:       booking.ID,
		BookingVendorID: &row.ID,
		PayoutID:        &payoutID,
		Type:            models.LedgerPayout,
		Amount:          locked.Amount,
		Currency:        booking.Currency,
	}
	inserted, err := s.ledger.InsertTx(tx, &entry)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, apperr.Conflict("payout_already_posted")
	}
	if err := s.payouts.UpdateStatusTx(tx, payoutID, models.PayoutPaid, &actor.UserID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.publish("payout.paid", map[string]interface{}{
		"payout_id":    payoutID,
		"booking_id":   booking.ID,
		"amount_cents": locked.Amount,
	})
	return s.payouts.GetByID(payoutID)
}

// Hold freezes an eligible payout pending investigation.
func (s *PayoutService) Hold(actor Actor, payoutID uuid.UUID) (*models.Payout, error) {
	return s.adminTransition(payoutID,
		[]models.PayoutStatus{models.PayoutEligible, models.PayoutLocked}, models.PayoutHeld,
		"payout_not_holdable")
}

// Reverse writes off a payout, including one already paid. The reversal is a
// status override only; any monetary correction is a new ledger entry, never
// a mutation of the original PAYOUT posting.
func (s *PayoutService) Reverse(actor Actor, payoutID uuid.UUID) (*models.Payout, error) {
	return s.adminTransition(payoutID,
		[]models.PayoutStatus{models.PayoutHeld, models.PayoutEligible, models.PayoutPaid}, models.PayoutReversed,
		"payout_not_reversible")
}

// OpenDispute records a dispute and force-holds every eligible payout of the
// booking in the same transaction.
func (s *PayoutService) OpenDispute(actor Actor, bookingID uuid.UUID, reason string, details *string) (*models.Dispute, error) {
	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.checkDisputeParty(actor, booking); err != nil {
		return nil, err
	}
	if reason == "" {
		return nil, apperr.BadRequest("missing_dispute_reason")
	}

	dispute := models.Dispute{
		ID:             uuid.New(),
		BookingID:      bookingID,
		OpenedByUserID: actor.UserID,
		Status:         models.DisputeOpen,
		Reason:         reason,
		Details:        details,
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	if _, err := s.bookings.GetForUpdateTx(tx, bookingID); err != nil {
		return nil, err
	}
	if err := s.disputes.CreateTx(tx, &dispute); err != nil {
		return nil, err
	}
	if err := s.payouts.HoldEligibleTx(tx, bookingID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.publish("dispute.opened", map[string]interface{}{
		"booking_id": bookingID,
		"dispute_id": dispute.ID,
	})
	return &dispute, nil
}

// ListForVendor returns the acting vendor's payouts.
func (s *PayoutService) ListForVendor(actor Actor) ([]models.Payout, error) {
	vendor, err := s.vendors.GetByUserID(actor.UserID)
	if err != nil {
		return nil, err
	}
	return s.payouts.ListByVendor(vendor.ID)
}

// ListEligible returns the admin review queue.
func (s *PayoutService) ListEligible() ([]models.Payout, error) {
	return s.payouts.ListEligible()
}

func (s *PayoutService) adminTransition(payoutID uuid.UUID, from []models.PayoutStatus, to models.PayoutStatus, conflictCode string) (*models.Payout, error) {
	payout, err := s.payouts.GetByID(payoutID)
	if err != nil {
		return nil, err
	}
	row, err := s.bookingVendors.GetByID(payout.BookingVendorID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	if _, err := s.bookings.GetForUpdateTx(tx, row.BookingID); err != nil {
		return nil, err
	}
	locked, err := s.payouts.GetForUpdateTx(tx, payoutID)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, status := range from {
		if locked.Status == status {
			allowed = true
		}
	}
	if !allowed {
		return nil, apperr.Conflict(conflictCode)
	}
	if err := s.payouts.UpdateStatusTx(tx, payoutID, to, nil); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.payouts.GetByID(payoutID)
}

func (s *PayoutService) checkDisputeParty(actor Actor, booking *models.Booking) error {
	if actor.Role == RoleAdmin || booking.OrganizerUserID == actor.UserID {
		return nil
	}
	vendor, err := s.vendors.GetByUserID(actor.UserID)
	if err != nil {
		return apperr.Forbidden("forbidden")
	}
	rows, err := s.bookingVendors.ListByBooking(booking.ID)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if row.VendorID == vendor.ID {
			return nil
		}
	}
	return apperr.Forbidden("forbidden")
}

func (s *PayoutService) publish(key string, message interface{}) {
	if err := s.notifier.Publish(key, message); err != nil {
		log.Printf("notify %s failed: %v", key, err)
	}
}
