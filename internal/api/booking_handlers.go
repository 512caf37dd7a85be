package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"planora/internal/services"
)

type BookingHandler struct {
	bookings *services.BookingService
	payouts  *services.PayoutService
	currency string
}

func NewBookingHandler(bookings *services.BookingService, payouts *services.PayoutService, currency string) *BookingHandler {
	return &BookingHandler{bookings: bookings, payouts: payouts, currency: currency}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req struct {
		VenueVendorID    uuid.UUID   `json:"venue_vendor_id" binding:"required"`
		ServiceVendorIDs []uuid.UUID `json:"service_vendor_ids"`
		TemplateID       *uuid.UUID  `json:"template_id"`
		EventDate        *time.Time  `json:"event_date"`
		GuestCount       *int        `json:"guest_count"`
		LocationText     *string     `json:"location_text"`
		Notes            *string     `json:"notes"`
		RequestedBudget  *int64      `json:"requested_budget_cents"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}

	result, err := h.bookings.Create(CurrentActor(c), services.CreateBookingInput{
		VenueVendorID:    req.VenueVendorID,
		ServiceVendorIDs: req.ServiceVendorIDs,
		TemplateID:       req.TemplateID,
		EventDate:        req.EventDate,
		GuestCount:       req.GuestCount,
		LocationText:     req.LocationText,
		Notes:            req.Notes,
		RequestedBudget:  req.RequestedBudget,
		Currency:         h.currency,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	result, err := h.bookings.GetForOrganizer(CurrentActor(c), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) ListBookings(c *gin.Context) {
	results, err := h.bookings.ListForOrganizer(CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *BookingHandler) VendorInbox(c *gin.Context) {
	results, err := h.bookings.VendorInbox(CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *BookingHandler) VendorApprove(c *gin.Context) {
	h.vendorAct(c, services.ActionApprove)
}

func (h *BookingHandler) VendorDecline(c *gin.Context) {
	h.vendorAct(c, services.ActionDecline)
}

func (h *BookingHandler) VendorCounter(c *gin.Context) {
	h.vendorAct(c, services.ActionCounter)
}

func (h *BookingHandler) vendorAct(c *gin.Context, action services.VendorAction) {
	bookingID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Amount *int64  `json:"amount_cents"`
		Note   *string `json:"note"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
			return
		}
	}
	result, err := h.bookings.VendorAct(CurrentActor(c), bookingID, action, services.VendorActionInput{
		Amount: req.Amount,
		Note:   req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) AcceptCounter(c *gin.Context) {
	bookingID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	bookingVendorID, ok := pathUUID(c, "booking_vendor_id")
	if !ok {
		return
	}
	var req struct {
		Accept *bool `json:"accept"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
			return
		}
	}
	accept := req.Accept == nil || *req.Accept

	result, err := h.bookings.AcceptCounter(CurrentActor(c), bookingID, bookingVendorID, accept)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) StartBooking(c *gin.Context) {
	h.transition(c, h.bookings.Start)
}

func (h *BookingHandler) CompleteBooking(c *gin.Context) {
	h.transition(c, h.bookings.Complete)
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	h.transition(c, h.bookings.Cancel)
}

func (h *BookingHandler) transition(c *gin.Context, fn func(services.Actor, uuid.UUID) (*services.BookingWithVendors, error)) {
	bookingID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	result, err := fn(CurrentActor(c), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *BookingHandler) OpenDispute(c *gin.Context) {
	bookingID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Reason  string  `json:"reason" binding:"required"`
		Details *string `json:"details"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	dispute, err := h.payouts.OpenDispute(CurrentActor(c), bookingID, req.Reason, req.Details)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dispute)
}

// pathUUID parses a uuid path parameter, responding 400 on garbage.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_" + name})
		return uuid.Nil, false
	}
	return id, true
}
