package repos

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"planora/internal/apperr"
	"planora/internal/db/models"
)

// PayoutRepository handles database operations for payouts.
type PayoutRepository struct {
	db *sqlx.DB
}

// NewPayoutRepository creates a new PayoutRepository.
func NewPayoutRepository(db *sqlx.DB) *PayoutRepository {
	return &PayoutRepository{db: db}
}

// InsertTx creates a payout row. The (booking_vendor_id, milestone)
// uniqueness absorbs duplicate webhook deliveries: inserted=false means the
// pair already exists.
func (r *PayoutRepository) InsertTx(tx *sqlx.Tx, payout *models.Payout) (bool, error) {
	result, err := tx.NamedExec(
		`INSERT INTO payouts (id, booking_vendor_id, milestone, amount_cents, status)
		 VALUES (:id, :booking_vendor_id, :milestone, :amount_cents, :status)
		 ON CONFLICT (booking_vendor_id, milestone) DO NOTHING`,
		payout,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// GetByID retrieves a payout by id.
func (r *PayoutRepository) GetByID(id uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	err := r.db.Get(&payout, `SELECT * FROM payouts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("payout_not_found")
	}
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

// GetForUpdateTx locks a payout row for the rest of the transaction.
func (r *PayoutRepository) GetForUpdateTx(tx *sqlx.Tx, id uuid.UUID) (*models.Payout, error) {
	var payout models.Payout
	err := tx.Get(&payout, `SELECT * FROM payouts WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("payout_not_found")
	}
	if err != nil {
		return nil, err
	}
	return &payout, nil
}

// UpdateStatusTx sets the payout status and, when approving, the admin.
func (r *PayoutRepository) UpdateStatusTx(tx *sqlx.Tx, id uuid.UUID, status models.PayoutStatus, adminApprovedBy *uuid.UUID) error {
	_, err := tx.Exec(
		`UPDATE payouts
		 SET status = $1, admin_approved_by = COALESCE($2, admin_approved_by), updated_at = now()
		 WHERE id = $3`,
		status, adminApprovedBy, id,
	)
	return err
}

// ListByBooking returns every payout of a booking's vendors.
func (r *PayoutRepository) ListByBooking(bookingID uuid.UUID) ([]models.Payout, error) {
	payouts := []models.Payout{}
	err := r.db.Select(
		&payouts,
		`SELECT p.* FROM payouts p
		 JOIN booking_vendors bv ON bv.id = p.booking_vendor_id
		 WHERE bv.booking_id = $1
		 ORDER BY p.created_at`,
		bookingID,
	)
	return payouts, err
}

// ListByVendor returns a vendor's payouts across all bookings.
func (r *PayoutRepository) ListByVendor(vendorID uuid.UUID) ([]models.Payout, error) {
	payouts := []models.Payout{}
	err := r.db.Select(
		&payouts,
		`SELECT p.* FROM payouts p
		 JOIN booking_vendors bv ON bv.id = p.booking_vendor_id
		 WHERE bv.vendor_id = $1
		 ORDER BY p.created_at`,
		vendorID,
	)
	return payouts, err
}

// ListEligible returns all payouts awaiting admin action.
func (r *PayoutRepository) ListEligible() ([]models.Payout, error) {
	payouts := []models.Payout{}
	err := r.db.Select(
		&payouts,
		`SELECT * FROM payouts WHERE status = $1 ORDER BY created_at`,
		models.PayoutEligible,
	)
	return payouts, err
}

// UnlockCompletionTx flips a booking's still-locked completion payouts to
// eligible; runs inside the booking-completion transaction.
func (r *PayoutRepository) UnlockCompletionTx(tx *sqlx.Tx, bookingID uuid.UUID) error {
	_, err := tx.Exec(
		`UPDATE payouts SET status = $1, updated_at = now()
		 WHERE milestone = $2 AND status = $3
		   AND booking_vendor_id IN (SELECT id FROM booking_vendors WHERE booking_id = $4)`,
		models.PayoutEligible, models.MilestoneCompletion, models.PayoutLocked, bookingID,
	)
	return err
}

// HoldEligibleTx force-holds every eligible payout of a booking; runs as a
// side effect of opening a dispute.
func (r *PayoutRepository) HoldEligibleTx(tx *sqlx.Tx, bookingID uuid.UUID) error {
	_, err := tx.Exec(
		`UPDATE payouts SET status = $1, updated_at = now()
		 WHERE status = $2
		   AND booking_vendor_id IN (SELECT id FROM booking_vendors WHERE booking_id = $3)`,
		models.PayoutHeld, models.PayoutEligible, bookingID,
	)
	return err
}

// EligibleTotal sums all eligible payout amounts platform-wide.
func (r *PayoutRepository) EligibleTotal() (int64, error) {
	var total int64
	err := r.db.Get(
		&total,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM payouts WHERE status = $1`,
		models.PayoutEligible,
	)
	return total, err
}
