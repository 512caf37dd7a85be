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

type bookingMocks struct {
	bookings       *MockBookingStore
	bookingVendors *MockBookingVendorStore
	vendors        *MockVendorStore
	payouts        *MockPayoutStore
}

func newBookingService(db *sqlx.DB) (*BookingService, *bookingMocks) {
	m := &bookingMocks{
		bookings:       new(MockBookingStore),
		bookingVendors: new(MockBookingVendorStore),
		vendors:        new(MockVendorStore),
		payouts:        new(MockPayoutStore),
	}
	svc := NewBookingService(db, m.bookings, m.bookingVendors, m.vendors, m.payouts, notify.Nop{})
	return svc, m
}

func TestVendorActOnCanceledBookingRejected(t *testing.T) {
	db, smock := newTestDB(t)
	svc, m := newBookingService(db)

	userID := uuid.New()
	bookingID := uuid.New()
	m.vendors.On("GetByUserID", userID).Return(&models.Vendor{
		ID:                 uuid.New(),
		UserID:             userID,
		VendorType:         models.ServiceProvider,
		VerificationStatus: models.VerificationApproved,
	}, nil)
	smock.ExpectBegin()
	m.bookings.On("GetForUpdateTx", mock.Anything, bookingID).
		Return(&models.Booking{ID: bookingID, Status: models.BookingCanceled}, nil)
	smock.ExpectRollback()

	actor := Actor{UserID: userID, Role: RoleVendor}
	_, err := svc.VendorAct(actor, bookingID, ActionApprove, VendorActionInput{})

	appErr := apperr.From(err)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "booking_not_editable", appErr.Code)
	m.bookingVendors.AssertNotCalled(t, "GetForUpdateTx", mock.Anything, mock.Anything, mock.Anything)
	m.bookingVendors.AssertNotCalled(t, "UpdateNegotiationTx", mock.Anything, mock.Anything)
	m.bookings.AssertNotCalled(t, "UpdateStatusTx", mock.Anything, mock.Anything, mock.Anything)
	assert.NoError(t, smock.ExpectationsWereMet())
}

func TestAcceptCounterOnCompletedBookingRejected(t *testing.T) {
	db, smock := newTestDB(t)
	svc, m := newBookingService(db)

	organizerID := uuid.New()
	bookingID := uuid.New()
	smock.ExpectBegin()
	m.bookings.On("GetForUpdateTx", mock.Anything, bookingID).
		Return(&models.Booking{
			ID:              bookingID,
			OrganizerUserID: organizerID,
			Status:          models.BookingCompleted,
		}, nil)
	smock.ExpectRollback()

	actor := Actor{UserID: organizerID, Role: RoleOrganizer}
	_, err := svc.AcceptCounter(actor, bookingID, uuid.New(), true)

	assert.Equal(t, "booking_not_editable", apperr.CodeOf(err))
	m.bookingVendors.AssertNotCalled(t, "GetByIDForUpdateTx", mock.Anything, mock.Anything)
	m.bookingVendors.AssertNotCalled(t, "UpdateNegotiationTx", mock.Anything, mock.Anything)
	assert.NoError(t, smock.ExpectationsWereMet())
}
