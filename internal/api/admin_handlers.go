package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"planora/internal/db/models"
	"planora/internal/services"
)

type AdminHandler struct {
	payouts   *services.PayoutService
	finance   *services.FinanceService
	webhooks  *services.WebhookService
	reconcile *services.ReconcileService
}

func NewAdminHandler(
	payouts *services.PayoutService,
	finance *services.FinanceService,
	webhooks *services.WebhookService,
	reconcile *services.ReconcileService,
) *AdminHandler {
	return &AdminHandler{
		payouts:   payouts,
		finance:   finance,
		webhooks:  webhooks,
		reconcile: reconcile,
	}
}

func (h *AdminHandler) ListPendingPayouts(c *gin.Context) {
	payouts, err := h.payouts.ListEligible()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payouts)
}

func (h *AdminHandler) ApprovePayout(c *gin.Context) {
	h.payoutAction(c, h.payouts.Approve)
}

func (h *AdminHandler) HoldPayout(c *gin.Context) {
	h.payoutAction(c, h.payouts.Hold)
}

func (h *AdminHandler) ReversePayout(c *gin.Context) {
	h.payoutAction(c, h.payouts.Reverse)
}

func (h *AdminHandler) payoutAction(c *gin.Context, fn func(services.Actor, uuid.UUID) (*models.Payout, error)) {
	payoutID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	payout, err := fn(CurrentActor(c), payoutID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payout)
}

func (h *AdminHandler) BookingFinance(c *gin.Context) {
	bookingID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	summary, err := h.finance.BookingSummary(bookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *AdminHandler) FinanceOverview(c *gin.Context) {
	overview, err := h.finance.PlatformOverview()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *AdminHandler) RetryWebhook(c *gin.Context) {
	eventID := c.Param("event_id")
	if eventID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_event_id"})
		return
	}
	event, err := h.webhooks.Retry(eventID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *AdminHandler) RunReconcile(c *gin.Context) {
	var req struct {
		LookbackHours int `json:"lookback_hours"`
		Limit         int `json:"limit"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "message": err.Error()})
			return
		}
	}
	if req.LookbackHours <= 0 {
		req.LookbackHours = 24
	}
	if req.Limit <= 0 {
		req.Limit = 100
	}

	result, err := h.reconcile.Run(c.Request.Context(), time.Duration(req.LookbackHours)*time.Hour, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
