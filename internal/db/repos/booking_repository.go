package repos

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"planora/internal/apperr"
	"planora/internal/db/models"
)

// BookingRepository handles database operations for bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// CreateTx inserts a booking inside an open transaction.
func (r *BookingRepository) CreateTx(tx *sqlx.Tx, booking *models.Booking) error {
	_, err := tx.NamedExec(
		`INSERT INTO bookings (id, organizer_user_id, template_id, event_date, guest_count,
		                       location_text, notes, requested_budget_cents, status,
		                       total_gross_amount_cents, currency)
		 VALUES (:id, :organizer_user_id, :template_id, :event_date, :guest_count,
		         :location_text, :notes, :requested_budget_cents, :status,
		         :total_gross_amount_cents, :currency)`,
		booking,
	)
	return err
}

// GetByID retrieves a booking by id.
func (r *BookingRepository) GetByID(id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.Get(&booking, `SELECT * FROM bookings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("booking_not_found")
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetForUpdateTx locks the booking row for the rest of the transaction.
// Every cross-entity mutation takes this lock first.
func (r *BookingRepository) GetForUpdateTx(tx *sqlx.Tx, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := tx.Get(&booking, `SELECT * FROM bookings WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("booking_not_found")
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// UpdateStatusTx sets the booking status.
func (r *BookingRepository) UpdateStatusTx(tx *sqlx.Tx, id uuid.UUID, status models.BookingStatus) error {
	_, err := tx.Exec(
		`UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	)
	return err
}

// SetTotalTx persists the authoritative booking total.
func (r *BookingRepository) SetTotalTx(tx *sqlx.Tx, id uuid.UUID, totalCents int64) error {
	_, err := tx.Exec(
		`UPDATE bookings SET total_gross_amount_cents = $1, updated_at = now() WHERE id = $2`,
		totalCents, id,
	)
	return err
}

// ListByOrganizer returns all bookings created by an organizer.
func (r *BookingRepository) ListByOrganizer(organizerUserID uuid.UUID) ([]models.Booking, error) {
	bookings := []models.Booking{}
	err := r.db.Select(
		&bookings,
		`SELECT * FROM bookings WHERE organizer_user_id = $1 ORDER BY created_at DESC`,
		organizerUserID,
	)
	return bookings, err
}

// ListByIDs returns the bookings with the given ids.
func (r *BookingRepository) ListByIDs(ids []uuid.UUID) ([]models.Booking, error) {
	if len(ids) == 0 {
		return []models.Booking{}, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM bookings WHERE id IN (?) ORDER BY created_at DESC`, ids)
	if err != nil {
		return nil, err
	}
	bookings := []models.Booking{}
	err = r.db.Select(&bookings, r.db.Rebind(query), args...)
	return bookings, err
}
