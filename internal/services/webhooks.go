package services

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"planora/internal/allocation"
	"planora/internal/apperr"
	"planora/internal/db/models"
	"planora/internal/notify"
	"planora/internal/payments"
)

// WebhookService turns provider events into local state. Every event is
// logged first; side effects and the processed stamp commit in one
// transaction, so a crash mid-processing leaves the event retryable.
type WebhookService struct {
	db             *sqlx.DB
	events         WebhookEventStore
	payments       PaymentStore
	bookings       BookingStore
	bookingVendors BookingVendorStore
	ledger         LedgerStore
	payouts        PayoutStore
	settings       Settings
	notifier       notify.Notifier
}

func NewWebhookService(
	db *sqlx.DB,
	events WebhookEventStore,
	paymentRepo PaymentStore,
	bookings BookingStore,
	bookingVendors BookingVendorStore,
	ledger LedgerStore,
	payouts PayoutStore,
	settings Settings,
	notifier notify.Notifier,
) *WebhookService {
	return &WebhookService{
		db:             db,
		events:         events,
		payments:       paymentRepo,
		bookings:       bookings,
		bookingVendors: bookingVendors,
		ledger:         ledger,
		payouts:        payouts,
		settings:       settings,
		notifier:       notifier,
	}
}

// HandleEvent processes one provider delivery. ignored=true means the event
// was already processed and this delivery is a duplicate.
func (s *WebhookService) HandleEvent(event *payments.Event) (ignored bool, err error) {
	existing, err := s.events.Get(event.ID)
	if err != nil && apperr.CodeOf(err) != "webhook_event_not_found" {
		return false, err
	}
	if existing != nil && existing.Status == models.WebhookProcessed {
		return true, nil
	}

	record := models.WebhookEvent{
		ID:        event.ID,
		Provider:  models.ProviderStripe,
		EventType: event.Type,
		Payload:   event.Raw,
		Status:    models.WebhookReceived,
	}
	if err := s.events.UpsertReceived(&record); err != nil {
		return false, err
	}

	if err := s.process(event); err != nil {
		if markErr := s.events.MarkFailed(event.ID, err.Error()); markErr != nil {
			log.Printf("mark webhook %s failed: %v", event.ID, markErr)
		}
		return false, apperr.New(http.StatusInternalServerError, "webhook_processing_failed").WithMessage(err.Error())
	}
	return false, nil
}

// Retry reprocesses a failed event from its stored payload.
func (s *WebhookService) Retry(eventID string) (*models.WebhookEvent, error) {
	record, err := s.events.Get(eventID)
	if err != nil {
		return nil, err
	}
	if record.Status != models.WebhookFailed {
		return nil, apperr.Conflict("invalid_webhook_status")
	}
	event, err := payments.DecodeEvent(record.Payload)
	if err != nil {
		return nil, apperr.BadRequest("invalid_event")
	}
	if _, err := s.HandleEvent(event); err != nil {
		return nil, err
	}
	return s.events.Get(eventID)
}

func (s *WebhookService) process(event *payments.Event) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	switch event.Type {
	case "payment_intent.succeeded":
		payment, err := s.payments.GetByProviderIntentForUpdateTx(tx, event.IntentID)
		if err != nil {
			return err
		}
		if err := s.applySuccessTx(tx, payment); err != nil {
			return err
		}
	case "payment_intent.payment_failed", "payment_intent.canceled":
		payment, err := s.payments.GetByProviderIntentForUpdateTx(tx, event.IntentID)
		if err != nil {
			return err
		}
		if payment.Status == models.PaymentPending {
			if err := s.payments.UpdateStatusTx(tx, payment.ID, models.PaymentFailed); err != nil {
				return err
			}
		}
	default:
		// Unhandled event types are acknowledged, not failed.
	}

	if err := s.events.MarkProcessedTx(tx, event.ID); err != nil {
		return err
	}
	return tx.Commit()
}

// applySuccessTx applies the full settled-payment effect under the locked
// payment row: payment PAID, booking PAID, escrow posted, payouts funded.
// Every step is idempotent, so replays and retries converge on one outcome.
func (s *WebhookService) applySuccessTx(tx *sqlx.Tx, payment *models.Payment) error {
	if payment.Status != models.PaymentPaid {
		if err := s.payments.UpdateStatusTx(tx, payment.ID, models.PaymentPaid); err != nil {
			return err
		}
	}

	booking, err := s.bookings.GetForUpdateTx(tx, payment.BookingID)
	if err != nil {
		return err
	}
	vendors, err := s.bookingVendors.ListByBookingTx(tx, booking.ID)
	if err != nil {
		return err
	}

	total := booking.TotalGrossAmount
	if total == 0 {
		for _, vendor := range vendors {
			if vendor.ApprovalStatus == models.VendorApproved {
				total += vendor.AgreedAmount
			}
		}
		if err := s.bookings.SetTotalTx(tx, booking.ID, total); err != nil {
			return err
		}
	}
	if booking.Status == models.BookingAwaitingVendorApproval || booking.Status == models.BookingReadyForPayment {
		if err := s.bookings.UpdateStatusTx(tx, booking.ID, models.BookingPaid); err != nil {
			return err
		}
	}

	held := models.LedgerEntry{
		ID:        uuid.New(),
		BookingID: booking.ID,
		PaymentID: &payment.ID,
		Type:      models.LedgerHeldFunds,
		Amount:    payment.Amount,
		Currency:  payment.Currency,
	}
	if _, err := s.ledger.InsertTx(tx, &held); err != nil {
		return err
	}

	if payment.PayoutsCreatedAt != nil {
		return nil
	}

	allocVendors := make([]allocation.Vendor, 0, len(vendors))
	for _, vendor := range vendors {
		if vendor.ApprovalStatus == models.VendorApproved {
			allocVendors = append(allocVendors, allocation.Vendor{
				BookingVendorID: vendor.ID,
				AgreedAmount:    vendor.AgreedAmount,
			})
		}
	}
	allocations, err := allocation.AllocatePaidAmount(
		total, payment.Amount, allocVendors,
		s.settings.PlatformCommissionPct, s.settings.ReservationReleasePct,
	)
	if err != nil {
		if errors.Is(err, allocation.ErrInvalidBookingTotal) || errors.Is(err, allocation.ErrInvalidPaidAmount) {
			return apperr.Conflict("allocation_failed").WithMessage(err.Error())
		}
		return err
	}

	for i := range allocations {
		alloc := allocations[i]
		if alloc.PlatformFee > 0 {
			fee := models.LedgerEntry{
				ID:              uuid.New(),
				BookingID:       booking.ID,
				BookingVendorID: &alloc.BookingVendorID,
				Type:            models.LedgerPlatformFee,
				Amount:          alloc.PlatformFee,
				Currency:        payment.Currency,
			}
			if _, err := s.ledger.InsertTx(tx, &fee); err != nil {
				return err
			}
		}
		reservation := models.Payout{
			ID:              uuid.New(),
			BookingVendorID: alloc.BookingVendorID,
			Milestone:       models.MilestoneReservation,
			Amount:          alloc.ReservationShare,
			Status:          models.PayoutLocked,
		}
		if _, err := s.payouts.InsertTx(tx, &reservation); err != nil {
			return err
		}
		completion := models.Payout{
			ID:              uuid.New(),
			BookingVendorID: alloc.BookingVendorID,
			Milestone:       models.MilestoneCompletion,
			Amount:          alloc.CompletionShare,
			Status:          models.PayoutLocked,
		}
		if _, err := s.payouts.InsertTx(tx, &completion); err != nil {
			return err
		}
	}

	if err := s.payments.SetPayoutsCreatedTx(tx, payment.ID, time.Now().UTC()); err != nil {
		return err
	}

	s.publish("payment.succeeded", map[string]interface{}{
		"booking_id": booking.ID,
		"payment_id": payment.ID,
	})
	return nil
}

func (s *WebhookService) publish(key string, message interface{}) {
	if err := s.notifier.Publish(key, message); err != nil {
		log.Printf("notify %s failed: %v", key, err)
	}
}
