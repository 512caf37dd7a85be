package services

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"planora/internal/db/models"
	"planora/internal/payments"
)

// newTestDB returns a sqlx handle whose transaction boundaries are scripted;
// all row access in these tests goes through the store mocks instead.
func newTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, smock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), smock
}

// MockBookingStore mocks the booking store
type MockBookingStore struct {
	mock.Mock
}

func (m *MockBookingStore) CreateTx(tx *sqlx.Tx, booking *models.Booking) error {
	args := m.Called(tx, booking)
	return args.Error(0)
}

func (m *MockBookingStore) GetByID(id uuid.UUID) (*models.Booking, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingStore) GetForUpdateTx(tx *sqlx.Tx, id uuid.UUID) (*models.Booking, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Booking), args.Error(1)
}

func (m *MockBookingStore) UpdateStatusTx(tx *sqlx.Tx, id uuid.UUID, status models.BookingStatus) error {
	args := m.Called(tx, id, status)
	return args.Error(0)
}

func (m *MockBookingStore) SetTotalTx(tx *sqlx.Tx, id uuid.UUID, totalCents int64) error {
	args := m.Called(tx, id, totalCents)
	return args.Error(0)
}

func (m *MockBookingStore) ListByOrganizer(organizerUserID uuid.UUID) ([]models.Booking, error) {
	args := m.Called(organizerUserID)
	return args.Get(0).([]models.Booking), args.Error(1)
}

func (m *MockBookingStore) ListByIDs(ids []uuid.UUID) ([]models.Booking, error) {
	args := m.Called(ids)
	return args.Get(0).([]models.Booking), args.Error(1)
}

// MockBookingVendorStore mocks the booking vendor store
type MockBookingVendorStore struct {
	mock.Mock
}

func (m *MockBookingVendorStore) InsertManyTx(tx *sqlx.Tx, rows []models.BookingVendor) error {
	args := m.Called(tx, rows)
	return args.Error(0)
}

func (m *MockBookingVendorStore) ListByBooking(bookingID uuid.UUID) ([]models.BookingVendor, error) {
	args := m.Called(bookingID)
	return args.Get(0).([]models.BookingVendor), args.Error(1)
}

func (m *MockBookingVendorStore) ListByBookingTx(tx *sqlx.Tx, bookingID uuid.UUID) ([]models.BookingVendor, error) {
	args := m.Called(tx, bookingID)
	return args.Get(0).([]models.BookingVendor), args.Error(1)
}

func (m *MockBookingVendorStore) GetForUpdateTx(tx *sqlx.Tx, bookingID, vendorID uuid.UUID) (*models.BookingVendor, error) {
	args := m.Called(tx, bookingID, vendorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingVendor), args.Error(1)
}

func (m *MockBookingVendorStore) GetByIDForUpdateTx(tx *sqlx.Tx, id uuid.UUID) (*models.BookingVendor, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingVendor), args.Error(1)
}

func (m *MockBookingVendorStore) GetByID(id uuid.UUID) (*models.BookingVendor, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingVendor), args.Error(1)
}

func (m *MockBookingVendorStore) UpdateNegotiationTx(tx *sqlx.Tx, row *models.BookingVendor) error {
	args := m.Called(tx, row)
	return args.Error(0)
}

func (m *MockBookingVendorStore) ListBookingIDsForVendor(vendorID uuid.UUID, statuses []models.VendorApprovalStatus) ([]uuid.UUID, error) {
	args := m.Called(vendorID, statuses)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

// MockVendorStore mocks the vendor registry store
type MockVendorStore struct {
	mock.Mock
}

func (m *MockVendorStore) GetByID(id uuid.UUID) (*models.Vendor, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vendor), args.Error(1)
}

func (m *MockVendorStore) GetByUserID(userID uuid.UUID) (*models.Vendor, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vendor), args.Error(1)
}

func (m *MockVendorStore) ListByIDs(ids []uuid.UUID) ([]models.Vendor, error) {
	args := m.Called(ids)
	return args.Get(0).([]models.Vendor), args.Error(1)
}

// MockPaymentStore mocks the payment store
type MockPaymentStore struct {
	mock.Mock
}

func (m *MockPaymentStore) CreateTx(tx *sqlx.Tx, payment *models.Payment) error {
	args := m.Called(tx, payment)
	return args.Error(0)
}

func (m *MockPaymentStore) GetByBooking(bookingID uuid.UUID) (*models.Payment, error) {
	args := m.Called(bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentStore) GetByIdempotencyKey(key string) (*models.Payment, error) {
	args := m.Called(key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentStore) GetByProviderIntentForUpdateTx(tx *sqlx.Tx, intentID string) (*models.Payment, error) {
	args := m.Called(tx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentStore) GetByIDForUpdateTx(tx *sqlx.Tx, id uuid.UUID) (*models.Payment, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *MockPaymentStore) UpdateStatusTx(tx *sqlx.Tx, id uuid.UUID, status models.PaymentStatus) error {
	args := m.Called(tx, id, status)
	return args.Error(0)
}

func (m *MockPaymentStore) SetPayoutsCreatedTx(tx *sqlx.Tx, id uuid.UUID, at time.Time) error {
	args := m.Called(tx, id, at)
	return args.Error(0)
}

func (m *MockPaymentStore) ListStuck(since time.Time, limit int) ([]models.Payment, error) {
	args := m.Called(since, limit)
	return args.Get(0).([]models.Payment), args.Error(1)
}

// MockLedgerStore mocks the ledger store
type MockLedgerStore struct {
	mock.Mock
}

func (m *MockLedgerStore) InsertTx(tx *sqlx.Tx, entry *models.LedgerEntry) (bool, error) {
	args := m.Called(tx, entry)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedgerStore) ListByBooking(bookingID uuid.UUID) ([]models.LedgerEntry, error) {
	args := m.Called(bookingID)
	return args.Get(0).([]models.LedgerEntry), args.Error(1)
}

func (m *MockLedgerStore) ListByBookingTx(tx *sqlx.Tx, bookingID uuid.UUID) ([]models.LedgerEntry, error) {
	args := m.Called(tx, bookingID)
	return args.Get(0).([]models.LedgerEntry), args.Error(1)
}

func (m *MockLedgerStore) PlatformTotals() (int64, int64, int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Get(1).(int64), args.Get(2).(int64), args.Error(3)
}

// MockPayoutStore mocks the payout store
type MockPayoutStore struct {
	mock.Mock
}

func (m *MockPayoutStore) InsertTx(tx *sqlx.Tx, payout *models.Payout) (bool, error) {
	args := m.Called(tx, payout)
	return args.Bool(0), args.Error(1)
}

func (m *MockPayoutStore) GetByID(id uuid.UUID) (*models.Payout, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func (m *MockPayoutStore) GetForUpdateTx(tx *sqlx.Tx, id uuid.UUID) (*models.Payout, error) {
	args := m.Called(tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payout), args.Error(1)
}

func (m *MockPayoutStore) UpdateStatusTx(tx *sqlx.Tx, id uuid.UUID, status models.PayoutStatus, adminApprovedBy *uuid.UUID) error {
	args := m.Called(tx, id, status, adminApprovedBy)
	return args.Error(0)
}

func (m *MockPayoutStore) ListByBooking(bookingID uuid.UUID) ([]models.Payout, error) {
	args := m.Called(bookingID)
	return args.Get(0).([]models.Payout), args.Error(1)
}

func (m *MockPayoutStore) ListByVendor(vendorID uuid.UUID) ([]models.Payout, error) {
	args := m.Called(vendorID)
	return args.Get(0).([]models.Payout), args.Error(1)
}

func (m *MockPayoutStore) ListEligible() ([]models.Payout, error) {
	args := m.Called()
	return args.Get(0).([]models.Payout), args.Error(1)
}

func (m *MockPayoutStore) UnlockCompletionTx(tx *sqlx.Tx, bookingID uuid.UUID) error {
	args := m.Called(tx, bookingID)
	return args.Error(0)
}

func (m *MockPayoutStore) HoldEligibleTx(tx *sqlx.Tx, bookingID uuid.UUID) error {
	args := m.Called(tx, bookingID)
	return args.Error(0)
}

func (m *MockPayoutStore) EligibleTotal() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

// MockWebhookEventStore mocks the webhook event log
type MockWebhookEventStore struct {
	mock.Mock
}

func (m *MockWebhookEventStore) Get(id string) (*models.WebhookEvent, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WebhookEvent), args.Error(1)
}

func (m *MockWebhookEventStore) UpsertReceived(event *models.WebhookEvent) error {
	args := m.Called(event)
	return args.Error(0)
}

func (m *MockWebhookEventStore) MarkProcessedTx(tx *sqlx.Tx, id string) error {
	args := m.Called(tx, id)
	return args.Error(0)
}

func (m *MockWebhookEventStore) MarkFailed(id string, reason string) error {
	args := m.Called(id, reason)
	return args.Error(0)
}

// MockDisputeStore mocks the dispute store
type MockDisputeStore struct {
	mock.Mock
}

func (m *MockDisputeStore) CreateTx(tx *sqlx.Tx, dispute *models.Dispute) error {
	args := m.Called(tx, dispute)
	return args.Error(0)
}

// MockProcessor mocks the payment processor
type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) CreateIntent(ctx context.Context, amountCents int64, currency, idempotencyKey string, metadata map[string]string) (*payments.Intent, error) {
	args := m.Called(ctx, amountCents, currency, idempotencyKey, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Intent), args.Error(1)
}

func (m *MockProcessor) RetrieveIntent(ctx context.Context, intentID string) (*payments.Intent, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Intent), args.Error(1)
}

func (m *MockProcessor) VerifyWebhookSignature(payload []byte, sigHeader string) bool {
	args := m.Called(payload, sigHeader)
	return args.Bool(0)
}

func (m *MockProcessor) ParseWebhook(payload []byte, sigHeader string) (*payments.Event, error) {
	args := m.Called(payload, sigHeader)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payments.Event), args.Error(1)
}
