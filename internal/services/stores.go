package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"planora/internal/db/models"
)

// Storage capabilities the services depend on, satisfied by
// internal/db/repos. Methods suffixed Tx run inside an open transaction.

type BookingStore interface {
	CreateTx(tx *sqlx.Tx, booking *models.Booking) error
	GetByID(id uuid.UUID) (*models.Booking, error)
	GetForUpdateTx(tx *sqlx.Tx, id uuid.UUID) (*models.Booking, error)
	UpdateStatusTx(tx *sqlx.Tx, id uuid.UUID, status models.BookingStatus) error
	SetTotalTx(tx *sqlx.Tx, id uuid.UUID, totalCents int64) error
	ListByOrganizer(organizerUserID uuid.UUID) ([]models.Booking, error)
	ListByIDs(ids []uuid.UUID) ([]models.Booking, error)
}

type BookingVendorStore interface {
	InsertManyTx(tx *sqlx.Tx, rows []models.BookingVendor) error
	ListByBooking(bookingID uuid.UUID) ([]models.BookingVendor, error)
	ListByBookingTx(tx *sqlx.Tx, bookingID uuid.UUID) ([]models.BookingVendor, error)
	GetForUpdateTx(tx *sqlx.Tx, bookingID, vendorID uuid.UUID) (*models.BookingVendor, error)
	GetByIDForUpdateTx(tx *sqlx.Tx, id uuid.UUID) (*models.BookingVendor, error)
	GetByID(id uuid.UUID) (*models.BookingVendor, error)
	UpdateNegotiationTx(tx *sqlx.Tx, row *models.BookingVendor) error
	ListBookingIDsForVendor(vendorID uuid.UUID, statuses []models.VendorApprovalStatus) ([]uuid.UUID, error)
}

type VendorStore interface {
	GetByID(id uuid.UUID) (*models.Vendor, error)
	GetByUserID(userID uuid.UUID) (*models.Vendor, error)
	ListByIDs(ids []uuid.UUID) ([]models.Vendor, error)
}

type PaymentStore interface {
	CreateTx(tx *sqlx.Tx, payment *models.Payment) error
	GetByBooking(bookingID uuid.UUID) (*models.Payment, error)
	GetByIdempotencyKey(key string) (*models.Payment, error)
	GetByProviderIntentForUpdateTx(tx *sqlx.Tx, intentID string) (*models.Payment, error)
	GetByIDForUpdateTx(tx *sqlx.Tx, id uuid.UUID) (*models.Payment, error)
	UpdateStatusTx(tx *sqlx.Tx, id uuid.UUID, status models.PaymentStatus) error
	SetPayoutsCreatedTx(tx *sqlx.Tx, id uuid.UUID, at time.Time) error
	ListStuck(since time.Time, limit int) ([]models.Payment, error)
}

type LedgerStore interface {
	InsertTx(tx *sqlx.Tx, entry *models.LedgerEntry) (bool, error)
	ListByBooking(bookingID uuid.UUID) ([]models.LedgerEntry, error)
	ListByBookingTx(tx *sqlx.Tx, bookingID uuid.UUID) ([]models.LedgerEntry, error)
	PlatformTotals() (held, fees, payoutsPaid int64, err error)
}

type PayoutStore interface {
	InsertTx(tx *sqlx.Tx, payout *models.Payout) (bool, error)
	GetByID(id uuid.UUID) (*models.Payout, error)
	GetForUpdateTx(tx *sqlx.Tx, id uuid.UUID) (*models.Payout, error)
	UpdateStatusTx(tx *sqlx.Tx, id uuid.UUID, status models.PayoutStatus, adminApprovedBy *uuid.UUID) error
	ListByBooking(bookingID uuid.UUID) ([]models.Payout, error)
	ListByVendor(vendorID uuid.UUID) ([]models.Payout, error)
	ListEligible() ([]models.Payout, error)
	UnlockCompletionTx(tx *sqlx.Tx, bookingID uuid.UUID) error
	HoldEligibleTx(tx *sqlx.Tx, bookingID uuid.UUID) error
	EligibleTotal() (int64, error)
}

type WebhookEventStore interface {
	Get(id string) (*models.WebhookEvent, error)
	UpsertReceived(event *models.WebhookEvent) error
	MarkProcessedTx(tx *sqlx.Tx, id string) error
	MarkFailed(id string, reason string) error
}

type DisputeStore interface {
	CreateTx(tx *sqlx.Tx, dispute *models.Dispute) error
}
