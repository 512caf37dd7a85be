package repos

import (
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"planora/internal/db/models"
)

// LedgerRepository appends to and reads the ledger journal. There are no
// update or delete operations on purpose.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// InsertTx appends an entry. The (payment_id, type) and (payout_id, type)
// uniqueness makes the insert idempotent: a duplicate posting is dropped and
// reported as inserted=false rather than an error.
func (r *LedgerRepository) InsertTx(tx *sqlx.Tx, entry *models.LedgerEntry) (bool, error) {
	result, err := tx.NamedExec(
		`INSERT INTO ledger_entries (id, booking_id, booking_vendor_id, payment_id, payout_id,
		                             type, amount_cents, currency, note)
		 VALUES (:id, :booking_id, :booking_vendor_id, :payment_id, :payout_id,
		         :type, :amount_cents, :currency, :note)
		 ON CONFLICT DO NOTHING`,
		entry,
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

// ListByBooking returns a booking's journal, oldest first.
func (r *LedgerRepository) ListByBooking(bookingID uuid.UUID) ([]models.LedgerEntry, error) {
	entries := []models.LedgerEntry{}
	err := r.db.Select(
		&entries,
		`SELECT * FROM ledger_entries WHERE booking_id = $1 ORDER BY created_at`,
		bookingID,
	)
	return entries, err
}

// ListByBookingTx is ListByBooking inside an open transaction, used by
// payout approval so the funds check sees entries posted earlier in it.
func (r *LedgerRepository) ListByBookingTx(tx *sqlx.Tx, bookingID uuid.UUID) ([]models.LedgerEntry, error) {
	entries := []models.LedgerEntry{}
	err := tx.Select(
		&entries,
		`SELECT * FROM ledger_entries WHERE booking_id = $1 ORDER BY created_at`,
		bookingID,
	)
	return entries, err
}

// PlatformTotals sums the whole journal by entry type.
func (r *LedgerRepository) PlatformTotals() (held, fees, payoutsPaid int64, err error) {
	row := r.db.QueryRowx(
		`SELECT
		    COALESCE(SUM(CASE WHEN type = $1 THEN amount_cents ELSE 0 END), 0),
		    COALESCE(SUM(CASE WHEN type = $2 THEN amount_cents ELSE 0 END), 0),
		    COALESCE(SUM(CASE WHEN type = $3 THEN amount_cents ELSE 0 END), 0)
		 FROM ledger_entries`,
		models.LedgerHeldFunds, models.LedgerPlatformFee, models.LedgerPayout,
	)
	err = row.Scan(&held, &fees, &payoutsPaid)
	return held, fees, payoutsPaid, err
}
