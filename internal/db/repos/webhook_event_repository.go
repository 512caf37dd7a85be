package repos

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"planora/internal/apperr"
	"planora/internal/db/models"
)

// WebhookEventRepository handles the durable webhook event log.
type WebhookEventRepository struct {
	db *sqlx.DB
}

// NewWebhookEventRepository creates a new WebhookEventRepository.
func NewWebhookEventRepository(db *sqlx.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// Get retrieves a stored event by the provider's event id.
func (r *WebhookEventRepository) Get(id string) (*models.WebhookEvent, error) {
	var event models.WebhookEvent
	err := r.db.Get(&event, `SELECT * FROM webhook_events WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("webhook_event_not_found")
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// UpsertReceived records a new delivery, or moves a previously failed event
// back to received for another attempt. A processed event is left untouched.
func (r *WebhookEventRepository) UpsertReceived(event *models.WebhookEvent) error {
	_, err := r.db.NamedExec(
		`INSERT INTO webhook_events (id, provider, event_type, payload, status)
		 VALUES (:id, :provider, :event_type, :payload, :status)
		 ON CONFLICT (id) DO UPDATE
		 SET status = EXCLUDED.status, error = NULL
		 WHERE webhook_events.status <> 'processed'`,
		event,
	)
	return err
}

// MarkProcessedTx stamps the event processed inside the side-effect
// transaction, so "processed" and the ledger writes commit together.
func (r *WebhookEventRepository) MarkProcessedTx(tx *sqlx.Tx, id string) error {
	_, err := tx.Exec(
		`UPDATE webhook_events SET status = $1, error = NULL, processed_at = $2 WHERE id = $3`,
		models.WebhookProcessed, time.Now().UTC(), id,
	)
	return err
}

// MarkFailed records a processing failure after the transaction rolled back.
func (r *WebhookEventRepository) MarkFailed(id string, reason string) error {
	_, err := r.db.Exec(
		`UPDATE webhook_events SET status = $1, error = $2 WHERE id = $3`,
		models.WebhookFailed, reason, id,
	)
	return err
}
