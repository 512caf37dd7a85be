package repos

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"planora/internal/apperr"
	"planora/internal/db/models"
)

// BookingVendorRepository handles database operations for booking vendor rows.
type BookingVendorRepository struct {
	db *sqlx.DB
}

// NewBookingVendorRepository creates a new BookingVendorRepository.
func NewBookingVendorRepository(db *sqlx.DB) *BookingVendorRepository {
	return &BookingVendorRepository{db: db}
}

// InsertManyTx inserts the vendor rows of a freshly created booking.
func (r *BookingVendorRepository) InsertManyTx(tx *sqlx.Tx, rows []models.BookingVendor) error {
	for i := range rows {
		_, err := tx.NamedExec(
			`INSERT INTO booking_vendors (id, booking_id, vendor_id, role_in_booking,
			                              approval_status, agreed_amount_cents, counter_note)
			 VALUES (:id, :booking_id, :vendor_id, :role_in_booking,
			         :approval_status, :agreed_amount_cents, :counter_note)`,
			rows[i],
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// ListByBooking returns all vendor rows of a booking.
func (r *BookingVendorRepository) ListByBooking(bookingID uuid.UUID) ([]models.BookingVendor, error) {
	rows := []models.BookingVendor{}
	err := r.db.Select(
		&rows,
		`SELECT * FROM booking_vendors WHERE booking_id = $1 ORDER BY created_at`,
		bookingID,
	)
	return rows, err
}

// ListByBookingTx is ListByBooking inside an open transaction, so status
// recomputation reads the vendor set the transaction sees.
func (r *BookingVendorRepository) ListByBookingTx(tx *sqlx.Tx, bookingID uuid.UUID) ([]models.BookingVendor, error) {
	rows := []models.BookingVendor{}
	err := tx.Select(
		&rows,
		`SELECT * FROM booking_vendors WHERE booking_id = $1 ORDER BY created_at`,
		bookingID,
	)
	return rows, err
}

// GetForUpdateTx locks the (booking, vendor) row being negotiated.
func (r *BookingVendorRepository) GetForUpdateTx(tx *sqlx.Tx, bookingID, vendorID uuid.UUID) (*models.BookingVendor, error) {
	var row models.BookingVendor
	err := tx.Get(
		&row,
		`SELECT * FROM booking_vendors WHERE booking_id = $1 AND vendor_id = $2 FOR UPDATE`,
		bookingID, vendorID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("booking_vendor_not_found")
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetByIDForUpdateTx locks a vendor row by its own id.
func (r *BookingVendorRepository) GetByIDForUpdateTx(tx *sqlx.Tx, id uuid.UUID) (*models.BookingVendor, error) {
	var row models.BookingVendor
	err := tx.Get(&row, `SELECT * FROM booking_vendors WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("booking_vendor_not_found")
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetByID retrieves a vendor row by id.
func (r *BookingVendorRepository) GetByID(id uuid.UUID) (*models.BookingVendor, error) {
	var row models.BookingVendor
	err := r.db.Get(&row, `SELECT * FROM booking_vendors WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("booking_vendor_not_found")
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// UpdateNegotiationTx writes the outcome of a vendor negotiation action.
func (r *BookingVendorRepository) UpdateNegotiationTx(tx *sqlx.Tx, row *models.BookingVendor) error {
	_, err := tx.Exec(
		`UPDATE booking_vendors
		 SET approval_status = $1, agreed_amount_cents = $2, counter_note = $3, updated_at = now()
		 WHERE id = $4`,
		row.ApprovalStatus, row.AgreedAmount, row.CounterNote, row.ID,
	)
	return err
}

// ListBookingIDsForVendor returns ids of bookings where the vendor has a row
// in one of the given approval statuses.
func (r *BookingVendorRepository) ListBookingIDsForVendor(vendorID uuid.UUID, statuses []models.VendorApprovalStatus) ([]uuid.UUID, error) {
	if len(statuses) == 0 {
		return []uuid.UUID{}, nil
	}
	query, args, err := sqlx.In(
		`SELECT DISTINCT booking_id FROM booking_vendors WHERE vendor_id = ? AND approval_status IN (?)`,
		vendorID, statuses,
	)
	if err != nil {
		return nil, err
	}
	ids := []uuid.UUID{}
	err = r.db.Select(&ids, r.db.Rebind(query), args...)
	return ids, err
}
