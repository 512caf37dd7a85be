package repos

import (
	"github.com/jmoiron/sqlx"

	"planora/internal/db/models"
)

// DisputeRepository handles database operations for disputes.
type DisputeRepository struct {
	db *sqlx.DB
}

// NewDisputeRepository creates a new DisputeRepository.
func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

// CreateTx inserts a dispute inside the transaction that holds its payouts.
func (r *DisputeRepository) CreateTx(tx *sqlx.Tx, dispute *models.Dispute) error {
	_, err := tx.NamedExec(
		`INSERT INTO disputes (id, booking_id, opened_by_user_id, status, reason, details)
		 VALUES (:id, :booking_id, :opened_by_user_id, :status, :reason, :details)`,
		dispute,
	)
	return err
}
