package services

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"planora/internal/apperr"
	"planora/internal/db/models"
	"planora/internal/notify"
)

// BookingService owns the booking aggregate and its approval state machine.
// Vendor-status mutations and the booking status recomputation always run in
// one transaction under a lock on the booking row.
type BookingService struct {
	db             *sqlx.DB
	bookings       BookingStore
	bookingVendors BookingVendorStore
	vendors        VendorStore
	payouts        PayoutStore
	notifier       notify.Notifier
}

func NewBookingService(
	db *sqlx.DB,
	bookings BookingStore,
	bookingVendors BookingVendorStore,
	vendors VendorStore,
	payouts PayoutStore,
	notifier notify.Notifier,
) *BookingService {
	return &BookingService{
		db:             db,
		bookings:       bookings,
		bookingVendors: bookingVendors,
		vendors:        vendors,
		payouts:        payouts,
		notifier:       notifier,
	}
}

// CreateBookingInput is an organizer's booking request.
type CreateBookingInput struct {
	VenueVendorID    uuid.UUID
	ServiceVendorIDs []uuid.UUID
	TemplateID       *uuid.UUID
	EventDate        *time.Time
	GuestCount       *int
	LocationText     *string
	Notes            *string
	RequestedBudget  *int64
	Currency         string
}

// BookingWithVendors bundles a booking and its vendor rows.
type BookingWithVendors struct {
	Booking models.Booking         `json:"booking"`
	Vendors []models.BookingVendor `json:"vendors"`
}

// Create validates the vendor set and creates the booking plus one PENDING
// row per vendor, atomically.
func (s *BookingService) Create(actor Actor, input CreateBookingInput) (*BookingWithVendors, error) {
	serviceIDs := dedupeIDs(input.ServiceVendorIDs)
	for _, id := range serviceIDs {
		if id == input.VenueVendorID {
			return nil, apperr.BadRequest("venue_vendor_in_services")
		}
	}

	venueVendor, err := s.vendors.GetByID(input.VenueVendorID)
	if err != nil {
		if apperr.CodeOf(err) == "vendor_not_found" {
			return nil, apperr.NotFound("venue_vendor_not_found")
		}
		return nil, err
	}
	if venueVendor.VendorType != models.VenueOwner {
		return nil, apperr.BadRequest("venue_vendor_type_invalid")
	}
	if venueVendor.VerificationStatus != models.VerificationApproved {
		return nil, apperr.BadRequest("venue_vendor_not_approved")
	}

	serviceVendors, err := s.vendors.ListByIDs(serviceIDs)
	if err != nil {
		return nil, err
	}
	if len(serviceVendors) != len(serviceIDs) {
		return nil, apperr.NotFound("service_vendor_not_found")
	}
	for _, vendor := range serviceVendors {
		if vendor.VendorType != models.ServiceProvider {
			return nil, apperr.BadRequest("service_vendor_type_invalid")
		}
		if vendor.VerificationStatus != models.VerificationApproved {
			return nil, apperr.BadRequest("service_vendor_not_approved")
		}
	}

	booking := models.Booking{
		ID:              uuid.New(),
		OrganizerUserID: actor.UserID,
		TemplateID:      input.TemplateID,
		EventDate:       input.EventDate,
		GuestCount:      input.GuestCount,
		LocationText:    input.LocationText,
		Notes:           input.Notes,
		RequestedBudget: input.RequestedBudget,
		Status:          models.BookingAwaitingVendorApproval,
		Currency:        input.Currency,
	}

	rows := []models.BookingVendor{{
		ID:             uuid.New(),
		BookingID:      booking.ID,
		VendorID:       venueVendor.ID,
		Role:           models.RoleVenue,
		ApprovalStatus: models.VendorPending,
	}}
	for _, vendor := range serviceVendors {
		rows = append(rows, models.BookingVendor{
			ID:             uuid.New(),
			BookingID:      booking.ID,
			VendorID:       vendor.ID,
			Role:           models.RoleService,
			ApprovalStatus: models.VendorPending,
		})
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	if err := s.bookings.CreateTx(tx, &booking); err != nil {
		return nil, err
	}
	if err := s.bookingVendors.InsertManyTx(tx, rows); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.publish("booking.created", map[string]interface{}{
		"booking_id":   booking.ID,
		"organizer_id": actor.UserID,
	})
	return s.GetWithVendors(booking.ID)
}

// VendorAction is one of the negotiation verbs.
type VendorAction string

const (
	ActionApprove VendorAction = "approve"
	ActionDecline VendorAction = "decline"
	ActionCounter VendorAction = "counter"
)

// VendorActionInput carries the optional negotiation payload.
type VendorActionInput struct {
	Amount *int64
	Note   *string
}

// VendorAct applies approve/decline/counter for the acting vendor and
// recomputes the booking status in the same transaction.
func (s *BookingService) VendorAct(actor Actor, bookingID uuid.UUID, action VendorAction, input VendorActionInput) (*BookingWithVendors, error) {
	vendor, err := s.resolveVendor(actor)
	if err != nil {
		return nil, err
	}
	if action == ActionCounter && (input.Amount == nil || *input.Amount <= 0) {
		return nil, apperr.BadRequest("invalid_counter_amount")
	}

	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	booking, err := s.bookings.GetForUpdateTx(tx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status.Terminal() {
		return nil, apperr.Conflict("booking_not_editable")
	}
	row, err := s.bookingVendors.GetForUpdateTx(tx, bookingID, vendor.ID)
	if err != nil {
		return nil, err
	}
	if row.ApprovalStatus != models.VendorPending && row.ApprovalStatus != models.VendorCountered {
		return nil, apperr.Conflict("vendor_action_not_allowed")
	}

	switch action {
	case ActionApprove:
		row.ApprovalStatus = models.VendorApproved
		if input.Amount != nil {
			row.AgreedAmount = *input.Amount
		}
	case ActionDecline:
		row.ApprovalStatus = models.VendorDeclined
	case ActionCounter:
		row.ApprovalStatus = models.VendorCountered
		row.AgreedAmount = *input.Amount
	default:
		return nil, apperr.BadRequest("invalid_request")
	}
	if input.Note != nil {
		row.CounterNote = input.Note
	}
	if err := s.bookingVendors.UpdateNegotiationTx(tx, row); err != nil {
		return nil, err
	}

	status, err := s.recomputeStatusTx(tx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.publish("booking.vendor_"+string(action), map[string]interface{}{
		"booking_id": bookingID,
		"vendor_id":  vendor.ID,
		"status":     status,
	})
	return s.GetWithVendors(bookingID)
}

// AcceptCounter lets the organizer settle a COUNTERED row to approved or
// declined.
func (s *BookingService) AcceptCounter(actor Actor, bookingID, bookingVendorID uuid.UUID, accept bool) (*BookingWithVendors, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	booking, err := s.bookings.GetForUpdateTx(tx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.OrganizerUserID != actor.UserID {
		return nil, apperr.Forbidden("forbidden")
	}
	if booking.Status.Terminal() {
		return nil, apperr.Conflict("booking_not_editable")
	}
	row, err := s.bookingVendors.GetByIDForUpdateTx(tx, bookingVendorID)
	if err != nil {
		return nil, err
	}
	if row.BookingID != bookingID {
		return nil, apperr.BadRequest("booking_vendor_id_mismatch")
	}
	if row.ApprovalStatus != models.VendorCountered {
		return nil, apperr.Conflict("booking_vendor_not_countered")
	}

	if accept {
		row.ApprovalStatus = models.VendorApproved
	} else {
		row.ApprovalStatus = models.VendorDeclined
	}
	if err := s.bookingVendors.UpdateNegotiationTx(tx, row); err != nil {
		return nil, err
	}
	if _, err := s.recomputeStatusTx(tx, bookingID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetWithVendors(bookingID)
}

// Start moves a paid booking into execution.
func (s *BookingService) Start(actor Actor, bookingID uuid.UUID) (*BookingWithVendors, error) {
	return s.transition(actor, bookingID, "booking_not_startable",
		[]models.BookingStatus{models.BookingPaid}, models.BookingInProgress, nil)
}

// Complete finishes a booking and, in the same transaction, unlocks every
// still-locked COMPLETION payout of its vendors.
func (s *BookingService) Complete(actor Actor, bookingID uuid.UUID) (*BookingWithVendors, error) {
	result, err := s.transition(actor, bookingID, "booking_not_completable",
		[]models.BookingStatus{models.BookingPaid, models.BookingInProgress}, models.BookingCompleted,
		func(tx *sqlx.Tx) error {
			return s.payouts.UnlockCompletionTx(tx, bookingID)
		})
	if err != nil {
		return nil, err
	}
	s.publish("booking.completed", map[string]interface{}{"booking_id": bookingID})
	return result, nil
}

// Cancel aborts a booking from any non-terminal state.
func (s *BookingService) Cancel(actor Actor, bookingID uuid.UUID) (*BookingWithVendors, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	booking, err := s.bookings.GetForUpdateTx(tx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleAdmin && booking.OrganizerUserID != actor.UserID {
		return nil, apperr.Forbidden("forbidden")
	}
	if booking.Status.Terminal() {
		return nil, apperr.Conflict("booking_not_cancelable")
	}
	if err := s.bookings.UpdateStatusTx(tx, bookingID, models.BookingCanceled); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.publish("booking.canceled", map[string]interface{}{"booking_id": bookingID})
	return s.GetWithVendors(bookingID)
}

// GetWithVendors loads a booking and its vendor rows.
func (s *BookingService) GetWithVendors(bookingID uuid.UUID) (*BookingWithVendors, error) {
	booking, err := s.bookings.GetByID(bookingID)
	if err != nil {
		return nil, err
	}
	vendors, err := s.bookingVendors.ListByBooking(bookingID)
	if err != nil {
		return nil, err
	}
	return &BookingWithVendors{Booking: *booking, Vendors: vendors}, nil
}

// GetForOrganizer is GetWithVendors plus an ownership check.
func (s *BookingService) GetForOrganizer(actor Actor, bookingID uuid.UUID) (*BookingWithVendors, error) {
	result, err := s.GetWithVendors(bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleAdmin && result.Booking.OrganizerUserID != actor.UserID {
		return nil, apperr.Forbidden("forbidden")
	}
	return result, nil
}

// ListForOrganizer returns the organizer's bookings with vendor rows.
func (s *BookingService) ListForOrganizer(actor Actor) ([]BookingWithVendors, error) {
	bookings, err := s.bookings.ListByOrganizer(actor.UserID)
	if err != nil {
		return nil, err
	}
	return s.attachVendors(bookings)
}

// VendorInbox returns bookings where the acting vendor still has a PENDING
// or COUNTERED row.
func (s *BookingService) VendorInbox(actor Actor) ([]BookingWithVendors, error) {
	vendor, err := s.resolveVendor(actor)
	if err != nil {
		return nil, err
	}
	ids, err := s.bookingVendors.ListBookingIDsForVendor(
		vendor.ID,
		[]models.VendorApprovalStatus{models.VendorPending, models.VendorCountered},
	)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookings.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	return s.attachVendors(bookings)
}

func (s *BookingService) transition(
	actor Actor,
	bookingID uuid.UUID,
	conflictCode string,
	from []models.BookingStatus,
	to models.BookingStatus,
	inTx func(tx *sqlx.Tx) error,
) (*BookingWithVendors, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	booking, err := s.bookings.GetForUpdateTx(tx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleAdmin && booking.OrganizerUserID != actor.UserID {
		return nil, apperr.Forbidden("forbidden")
	}
	allowed := false
	for _, status := range from {
		if booking.Status == status {
			allowed = true
		}
	}
	if !allowed {
		return nil, apperr.Conflict(conflictCode)
	}
	if err := s.bookings.UpdateStatusTx(tx, bookingID, to); err != nil {
		return nil, err
	}
	if inTx != nil {
		if err := inTx(tx); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s.GetWithVendors(bookingID)
}

// recomputeStatusTx re-derives the negotiation status from the vendor set
// the transaction sees. Must run under the booking row lock.
func (s *BookingService) recomputeStatusTx(tx *sqlx.Tx, bookingID uuid.UUID) (models.BookingStatus, error) {
	vendors, err := s.bookingVendors.ListByBookingTx(tx, bookingID)
	if err != nil {
		return "", err
	}
	status := models.StatusFromVendors(vendors)
	return status, s.bookings.UpdateStatusTx(tx, bookingID, status)
}

func (s *BookingService) resolveVendor(actor Actor) (*models.Vendor, error) {
	vendor, err := s.vendors.GetByUserID(actor.UserID)
	if err != nil {
		return nil, err
	}
	if vendor.VerificationStatus != models.VerificationApproved {
		return nil, apperr.Forbidden("vendor_not_approved")
	}
	return vendor, nil
}

func (s *BookingService) attachVendors(bookings []models.Booking) ([]BookingWithVendors, error) {
	results := make([]BookingWithVendors, 0, len(bookings))
	for _, booking := range bookings {
		vendors, err := s.bookingVendors.ListByBooking(booking.ID)
		if err != nil {
			return nil, err
		}
		results = append(results, BookingWithVendors{Booking: booking, Vendors: vendors})
	}
	return results, nil
}

func (s *BookingService) publish(key string, message interface{}) {
	if err := s.notifier.Publish(key, message); err != nil {
		log.Printf("notify %s failed: %v", key, err)
	}
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
