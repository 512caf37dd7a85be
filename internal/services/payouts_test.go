package services

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"planora/internal/apperr"
	"planora/internal/db/models"
	"planora/internal/notify"
)

type payoutMocks struct {
	payouts        *MockPayoutStore
	bookings       *MockBookingStore
	bookingVendors *MockBookingVendorStore
	vendors        *MockVendorStore
	ledger         *MockLedgerStore
	disputes       *MockDisputeStore
}

func newPayoutService(db *sqlx.DB) (*PayoutService, *payoutMocks) {
	m := &payoutMocks{
		payouts:        new(MockPayoutStore),
		bookings:       new(MockBookingStore),
		bookingVendors: new(MockBookingVendorStore),
		vendors:        new(MockVendorStore),
		ledger:         new(MockLedgerStore),
		disputes:       new(MockDisputeStore),
	}
	svc := NewPayoutService(db, m.payouts, m.bookings, m.bookingVendors,
		m.vendors, m.ledger, m.disputes, notify.Nop{})
	return svc, m
}

func TestApproveInsufficientFundsPostsNothing(t *testing.T) {
	db, smock := newTestDB(t)
	svc, m := newPayoutService(db)

	admin := Actor{UserID: uuid.New(), Role: RoleAdmin}
	bookingID := uuid.New()
	vendorRowID := uuid.New()
	payoutID := uuid.New()
	payout := &models.Payout{
		ID:              payoutID,
		BookingVendorID: vendorRowID,
		Milestone:       models.MilestoneReservation,
		Amount:          5000,
		Status:          models.PayoutEligible,
	}

	m.payouts.On("GetByID", payoutID).Return(payout, nil)
	m.bookingVendors.On("GetByID", vendorRowID).
		Return(&models.BookingVendor{ID: vendorRowID, BookingID: bookingID}, nil)
	smock.ExpectBegin()
	m.bookings.On("GetForUpdateTx", mock.Anything, bookingID).
		Return(&models.Booking{ID: bookingID, Status: models.BookingPaid, Currency: "usd"}, nil)
	m.payouts.On("GetForUpdateTx", mock.Anything, payoutID).Return(payout, nil)
	m.ledger.On("ListByBookingTx", mock.Anything, bookingID).Return([]models.LedgerEntry{
		{BookingID: bookingID, Type: models.LedgerHeldFunds, Amount: 4400, Currency: "usd"},
		{BookingID: bookingID, Type: models.LedgerPlatformFee, Amount: 440, Currency: "usd"},
	}, nil)
	smock.ExpectRollback()

	_, err := svc.Approve(admin, payoutID)

	appErr := apperr.From(err)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "insufficient_funds", appErr.Code)
	assert.Equal(t, int64(5000), appErr.Details["requested_cents"])
	assert.Equal(t, int64(3960), appErr.Details["available_cents"])
	m.ledger.AssertNotCalled(t, "InsertTx", mock.Anything, mock.Anything)
	m.payouts.AssertNotCalled(t, "UpdateStatusTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.NoError(t, smock.ExpectationsWereMet())
}

func TestApprovePaysEligiblePayout(t *testing.T) {
	db, smock := newTestDB(t)
	svc, m := newPayoutService(db)

	admin := Actor{UserID: uuid.New(), Role: RoleAdmin}
	bookingID := uuid.New()
	vendorRowID := uuid.New()
	payoutID := uuid.New()
	eligible := &models.Payout{
		ID:              payoutID,
		BookingVendorID: vendorRowID,
		Milestone:       models.MilestoneReservation,
		Amount:          4500,
		Status:          models.PayoutEligible,
	}
	paid := &models.Payout{
		ID:              payoutID,
		BookingVendorID: vendorRowID,
		Milestone:       models.MilestoneReservation,
		Amount:          4500,
		Status:          models.PayoutPaid,
		AdminApprovedBy: &admin.UserID,
	}

	m.payouts.On("GetByID", payoutID).Return(eligible, nil).Once()
	m.bookingVendors.On("GetByID", vendorRowID).
		Return(&models.BookingVendor{ID: vendorRowID, BookingID: bookingID}, nil)
	smock.ExpectBegin()
	m.bookings.On("GetForUpdateTx", mock.Anything, bookingID).
		Return(&models.Booking{ID: bookingID, Status: models.BookingPaid, Currency: "usd"}, nil)
	m.payouts.On("GetForUpdateTx", mock.Anything, payoutID).Return(eligible, nil)
	m.ledger.On("ListByBookingTx", mock.Anything, bookingID).Return([]models.LedgerEntry{
		{BookingID: bookingID, Type: models.LedgerHeldFunds, Amount: 10000, Currency: "usd"},
		{BookingID: bookingID, Type: models.LedgerPlatformFee, Amount: 1000, Currency: "usd"},
	}, nil)
	m.ledger.On("InsertTx", mock.Anything, mock.MatchedBy(func(e *models.LedgerEntry) bool {
		return e.Type == models.LedgerPayout && e.Amount == 4500 &&
			e.PayoutID != nil && *e.PayoutID == payoutID
	})).Return(true, nil).Once()
	m.payouts.On("UpdateStatusTx", mock.Anything, payoutID, models.PayoutPaid, &admin.UserID).Return(nil)
	smock.ExpectCommit()
	m.payouts.On("GetByID", payoutID).Return(paid, nil).Once()

	result, err := svc.Approve(admin, payoutID)

	assert.NoError(t, err)
	assert.Equal(t, models.PayoutPaid, result.Status)
	assert.NoError(t, smock.ExpectationsWereMet())
	m.ledger.AssertExpectations(t)
	m.payouts.AssertExpectations(t)
}
