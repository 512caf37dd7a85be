package repos

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"planora/internal/apperr"
	"planora/internal/db/models"
)

// ErrUniqueViolation reports a postgres unique-constraint hit; callers treat
// it as "somebody else got there first" and re-read.
var ErrUniqueViolation = errors.New("unique_violation")

// IsUniqueViolation reports whether err is a postgres 23505.
func IsUniqueViolation(err error) bool {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return errors.Is(err, ErrUniqueViolation)
}

// PaymentRepository handles database operations for payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// CreateTx inserts a pending payment. Unique constraints on booking_id and
// idempotency_key surface as ErrUniqueViolation.
func (r *PaymentRepository) CreateTx(tx *sqlx.Tx, payment *models.Payment) error {
	_, err := tx.NamedExec(
		`INSERT INTO payments (id, booking_id, provider, provider_intent_id, idempotency_key,
		                       mode, status, amount_cents, currency)
		 VALUES (:id, :booking_id, :provider, :provider_intent_id, :idempotency_key,
		         :mode, :status, :amount_cents, :currency)`,
		payment,
	)
	if err != nil && IsUniqueViolation(err) {
		return ErrUniqueViolation
	}
	return err
}

// GetByBooking retrieves the payment of a booking, if any.
func (r *PaymentRepository) GetByBooking(bookingID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Get(&payment, `SELECT * FROM payments WHERE booking_id = $1`, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByIdempotencyKey retrieves the payment created under a client key, if any.
func (r *PaymentRepository) GetByIdempotencyKey(key string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.Get(&payment, `SELECT * FROM payments WHERE idempotency_key = $1`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByProviderIntentForUpdateTx locks the payment belonging to a processor
// intent for the rest of the transaction.
func (r *PaymentRepository) GetByProviderIntentForUpdateTx(tx *sqlx.Tx, intentID string) (*models.Payment, error) {
	var payment models.Payment
	err := tx.Get(&payment, `SELECT * FROM payments WHERE provider_intent_id = $1 FOR UPDATE`, intentID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("payment_not_found")
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetByIDForUpdateTx locks a payment row by id.
func (r *PaymentRepository) GetByIDForUpdateTx(tx *sqlx.Tx, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := tx.Get(&payment, `SELECT * FROM payments WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("payment_not_found")
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// UpdateStatusTx sets the payment status.
func (r *PaymentRepository) UpdateStatusTx(tx *sqlx.Tx, id uuid.UUID, status models.PaymentStatus) error {
	_, err := tx.Exec(
		`UPDATE payments SET status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	)
	return err
}

// SetPayoutsCreatedTx stamps the moment this payment funded its payout rows.
func (r *PaymentRepository) SetPayoutsCreatedTx(tx *sqlx.Tx, id uuid.UUID, at time.Time) error {
	_, err := tx.Exec(
		`UPDATE payments SET payouts_created_at = $1, updated_at = now() WHERE id = $2`,
		at, id,
	)
	return err
}

// ListStuck returns recent payments still pending or failed, oldest first,
// for the operator reconciliation job.
func (r *PaymentRepository) ListStuck(since time.Time, limit int) ([]models.Payment, error) {
	payments := []models.Payment{}
	err := r.db.Select(
		&payments,
		`SELECT * FROM payments
		 WHERE provider = $1 AND created_at >= $2 AND status IN ($3, $4)
		 ORDER BY created_at
		 LIMIT $5`,
		models.ProviderStripe, since, models.PaymentPending, models.PaymentFailed, limit,
	)
	return payments, err
}
