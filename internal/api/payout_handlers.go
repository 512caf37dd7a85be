package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"planora/internal/services"
)

type PayoutHandler struct {
	payouts *services.PayoutService
}

func NewPayoutHandler(payouts *services.PayoutService) *PayoutHandler {
	return &PayoutHandler{payouts: payouts}
}

func (h *PayoutHandler) ListVendorPayouts(c *gin.Context) {
	payouts, err := h.payouts.ListForVendor(CurrentActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payouts)
}

func (h *PayoutHandler) RequestRelease(c *gin.Context) {
	payoutID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	payout, err := h.payouts.RequestRelease(CurrentActor(c), payoutID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payout)
}
