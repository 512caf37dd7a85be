package services

import (
	"context"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"planora/internal/db/models"
	"planora/internal/payments"
)

// ReconcileService sweeps recent pending and failed payments against the
// processor's view of their intents. It is the safety net for lost webhooks.
type ReconcileService struct {
	db        *sqlx.DB
	payments  PaymentStore
	processor payments.Processor
	webhooks  *WebhookService
}

func NewReconcileService(
	db *sqlx.DB,
	paymentRepo PaymentStore,
	processor payments.Processor,
	webhooks *WebhookService,
) *ReconcileService {
	return &ReconcileService{
		db:        db,
		payments:  paymentRepo,
		processor: processor,
		webhooks:  webhooks,
	}
}

// ReconcileResult counts one sweep.
type ReconcileResult struct {
	Scanned int `json:"scanned"`
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
}

// Run reconciles payments created within the lookback window. Failures on
// individual payments are counted and skipped; the sweep always finishes.
func (s *ReconcileService) Run(ctx context.Context, lookback time.Duration, limit int) (*ReconcileResult, error) {
	since := time.Now().UTC().Add(-lookback)
	stuck, err := s.payments.ListStuck(since, limit)
	if err != nil {
		return nil, err
	}

	result := &ReconcileResult{Scanned: len(stuck)}
	for i := range stuck {
		updated, err := s.reconcileOne(ctx, &stuck[i])
		if err != nil {
			log.Printf("reconcile payment %s: %v", stuck[i].ID, err)
			result.Errors++
			continue
		}
		if updated {
			result.Updated++
		}
	}
	return result, nil
}

func (s *ReconcileService) reconcileOne(ctx context.Context, payment *models.Payment) (bool, error) {
	intent, err := s.processor.RetrieveIntent(ctx, payment.ProviderIntentID)
	if err != nil {
		return false, err
	}
	target := models.PaymentStatus(payments.IntentStatusToPayment(intent.Status))
	if target == payment.Status {
		return false, nil
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	locked, err := s.payments.GetByIDForUpdateTx(tx, payment.ID)
	if err != nil {
		return false, err
	}
	if locked.Status == target {
		return false, tx.Commit()
	}

	if target == models.PaymentPaid {
		if err := s.webhooks.applySuccessTx(tx, locked); err != nil {
			return false, err
		}
	} else {
		if err := s.payments.UpdateStatusTx(tx, locked.ID, target); err != nil {
			return false, err
		}
	}
	return true, tx.Commit()
}
