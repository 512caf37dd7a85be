package services

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"planora/internal/apperr"
	"planora/internal/db/models"
	"planora/internal/db/repos"
	"planora/internal/notify"
	"planora/internal/payments"
)

// PaymentService creates capture intents. One payment per booking, and one
// payment per client idempotency key; replays return the original intent.
type PaymentService struct {
	db             *sqlx.DB
	payments       PaymentStore
	bookings       BookingStore
	bookingVendors BookingVendorStore
	processor      payments.Processor
	settings       Settings
	notifier       notify.Notifier
}

func NewPaymentService(
	db *sqlx.DB,
	paymentRepo PaymentStore,
	bookings BookingStore,
	bookingVendors BookingVendorStore,
	processor payments.Processor,
	settings Settings,
	notifier notify.Notifier,
) *PaymentService {
	return &PaymentService{
		db:             db,
		payments:       paymentRepo,
		bookings:       bookings,
		bookingVendors: bookingVendors,
		processor:      processor,
		settings:       settings,
		notifier:       notifier,
	}
}

// IntentResult is what the client needs to confirm the capture.
type IntentResult struct {
	Payment      models.Payment `json:"payment"`
	ClientSecret string         `json:"client_secret"`
}

// CreateIntent creates (or replays) the capture intent for a booking.
//
// The idempotency key is checked before the booking status so a client
// retrying after the funds already landed still gets its original intent
// back instead of a conflict.
func (s *PaymentService) CreateIntent(ctx context.Context, actor Actor, bookingID uuid.UUID, mode models.PaymentMode, idempotencyKey string) (*IntentResult, error) {
	if idempotencyKey == "" {
		return nil, apperr.BadRequest("missing_idempotency_key")
	}
	if mode != models.PaymentModeFull && mode != models.PaymentModeDeposit {
		return nil, apperr.BadRequest("invalid_payment_mode")
	}

	existing, err := s.payments.GetByIdempotencyKey(idempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.BookingID != bookingID {
			return nil, apperr.Conflict("idempotency_key_conflict")
		}
		return s.replay(ctx, existing)
	}

	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleAdmin && booking.OrganizerUserID != actor.UserID {
		return nil, apperr.Forbidden("forbidden")
	}
	// The single-payment rule outranks the status guard: a second attempt
	// with a fresh key on a settled booking is a duplicate, not a bad state.
	if payment, err := s.payments.GetByBooking(bookingID); err != nil {
		return nil, err
	} else if payment != nil {
		return nil, apperr.Conflict("payment_already_exists")
	}
	if booking.Status != models.BookingReadyForPayment {
		return nil, apperr.Conflict("booking_not_ready_for_payment")
	}

	total, err := s.bookingTotal(bookingID)
	if err != nil {
		return nil, err
	}
	amount := total
	if mode == models.PaymentModeDeposit {
		amount = int64(math.Floor(float64(total) * s.settings.DepositPct))
	}
	if amount <= 0 {
		return nil, apperr.BadRequest("invalid_payment_amount")
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	locked, err := s.bookings.GetForUpdateTx(tx, bookingID)
	if err != nil {
		return nil, err
	}
	if locked.Status != models.BookingReadyForPayment {
		return nil, apperr.Conflict("booking_not_ready_for_payment")
	}
	if err := s.bookings.SetTotalTx(tx, bookingID, total); err != nil {
		return nil, err
	}

	intent, err := s.processor.CreateIntent(ctx, amount, s.settings.Currency, idempotencyKey, map[string]string{
		"booking_id": bookingID.String(),
	})
	if err != nil {
		return nil, apperr.Upstream("payment_provider_error")
	}

	payment := models.Payment{
		ID:               uuid.New(),
		BookingID:        bookingID,
		Provider:         models.ProviderStripe,
		ProviderIntentID: intent.ID,
		IdempotencyKey:   idempotencyKey,
		Mode:             mode,
		Status:           models.PaymentPending,
		Amount:           amount,
		Currency:         s.settings.Currency,
	}
	if err := s.payments.CreateTx(tx, &payment); err != nil {
		if repos.IsUniqueViolation(err) {
			// Lost a race with a concurrent request holding the same key or
			// booking. Roll back and serve whatever won.
			tx.Rollback()
			return s.replayRace(ctx, bookingID, idempotencyKey)
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.publish("payment.intent_created", map[string]interface{}{
		"booking_id":   bookingID,
		"payment_id":   payment.ID,
		"amount_cents": amount,
	})
	return &IntentResult{Payment: payment, ClientSecret: intent.ClientSecret}, nil
}

// GetByBooking returns a booking's payment for its organizer or an admin.
func (s *PaymentService) GetByBooking(actor Actor, bookingID uuid.UUID) (*models.Payment, error) {
	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleAdmin && booking.OrganizerUserID != actor.UserID {
		return nil, apperr.Forbidden("forbidden")
	}
	payment, err := s.payments.GetByBooking(bookingID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperr.NotFound("payment_not_found")
	}
	return payment, nil
}

// bookingTotal sums the agreed amounts of a fully approved vendor set.
func (s *PaymentService) bookingTotal(bookingID uuid.UUID) (int64, error) {
	vendors, err := s.bookingVendors.ListByBooking(bookingID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, vendor := range vendors {
		if vendor.ApprovalStatus != models.VendorApproved {
			return 0, apperr.Conflict("vendors_not_approved")
		}
		if vendor.AgreedAmount <= 0 {
			return 0, apperr.Conflict("missing_pricing")
		}
		total += vendor.AgreedAmount
	}
	return total, nil
}

func (s *PaymentService) replay(ctx context.Context, payment *models.Payment) (*IntentResult, error) {
	intent, err := s.processor.RetrieveIntent(ctx, payment.ProviderIntentID)
	if err != nil {
		return nil, apperr.Upstream("payment_provider_error")
	}
	return &IntentResult{Payment: *payment, ClientSecret: intent.ClientSecret}, nil
}

func (s *PaymentService) replayRace(ctx context.Context, bookingID uuid.UUID, idempotencyKey string) (*IntentResult, error) {
	payment, err := s.payments.GetByIdempotencyKey(idempotencyKey)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		payment, err = s.payments.GetByBooking(bookingID)
		if err != nil {
			return nil, err
		}
		if payment == nil {
			return nil, fmt.Errorf("payment insert conflicted but no row found for booking %s", bookingID)
		}
		if payment.IdempotencyKey != idempotencyKey {
			return nil, apperr.Conflict("payment_already_exists")
		}
	}
	if payment.BookingID != bookingID {
		return nil, apperr.Conflict("idempotency_key_conflict")
	}
	return s.replay(ctx, payment)
}

func (s *PaymentService) publish(key string, message interface{}) {
	if err := s.notifier.Publish(key, message); err != nil {
		log.Printf("notify %s failed: %v", key, err)
	}
}
