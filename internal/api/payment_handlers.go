package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"planora/internal/db/models"
	"planora/internal/payments"
	"planora/internal/services"
)

type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: paymentService}
}

func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	var req struct {
		BookingID      uuid.UUID `json:"booking_id" binding:"required"`
		Mode           string    `json:"mode"`
		IdempotencyKey string    `json:"idempotency_key"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}
	mode := models.PaymentMode(req.Mode)
	if req.Mode == "" {
		mode = models.PaymentModeFull
	}

	result, err := h.payments.CreateIntent(c.Request.Context(), CurrentActor(c), req.BookingID, mode, req.IdempotencyKey)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *PaymentHandler) GetBookingPayment(c *gin.Context) {
	bookingID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	payment, err := h.payments.GetByBooking(CurrentActor(c), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payment)
}

type WebhookHandler struct {
	processor payments.Processor
	webhooks  *services.WebhookService
}

func NewWebhookHandler(processor payments.Processor, webhooks *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{processor: processor, webhooks: webhooks}
}

// StripeWebhook is the unauthenticated provider endpoint. The signature
// header is the only trust anchor, so it is checked before anything else.
func (h *WebhookHandler) StripeWebhook(c *gin.Context) {
	const maxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_event"})
		return
	}
	sigHeader := c.GetHeader("Stripe-Signature")
	if sigHeader == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_signature"})
		return
	}

	event, err := h.processor.ParseWebhook(payload, sigHeader)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_signature"})
		return
	}

	ignored, err := h.webhooks.HandleEvent(event)
	if err != nil {
		respondError(c, err)
		return
	}
	if ignored {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
