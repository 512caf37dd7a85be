package api

import (
	"github.com/gin-gonic/gin"

	"planora/internal/payments"
	"planora/internal/services"
)

// Handlers bundles everything SetupRoutes wires.
type Handlers struct {
	JWTSecret []byte
	Processor payments.Processor
	Bookings  *services.BookingService
	Payments  *services.PaymentService
	Payouts   *services.PayoutService
	Finance   *services.FinanceService
	Webhooks  *services.WebhookService
	Reconcile *services.ReconcileService
	Currency  string
}

func SetupRoutes(r *gin.Engine, h Handlers) {
	bookingHandler := NewBookingHandler(h.Bookings, h.Payouts, h.Currency)
	paymentHandler := NewPaymentHandler(h.Payments)
	webhookHandler := NewWebhookHandler(h.Processor, h.Webhooks)
	payoutHandler := NewPayoutHandler(h.Payouts)
	adminHandler := NewAdminHandler(h.Payouts, h.Finance, h.Webhooks, h.Reconcile)

	v1 := r.Group("/v1")

	// Provider callbacks authenticate by signature, not by token.
	v1.POST("/webhooks/stripe", webhookHandler.StripeWebhook)

	auth := v1.Group("")
	auth.Use(AuthMiddleware(h.JWTSecret))

	organizer := auth.Group("")
	organizer.Use(RequireRole(services.RoleOrganizer, services.RoleAdmin))
	{
		organizer.POST("/bookings", bookingHandler.CreateBooking)
		organizer.GET("/bookings", bookingHandler.ListBookings)
		organizer.GET("/bookings/:id", bookingHandler.GetBooking)
		organizer.POST("/bookings/:id/vendors/:booking_vendor_id/accept-counter", bookingHandler.AcceptCounter)
		organizer.POST("/bookings/:id/start", bookingHandler.StartBooking)
		organizer.POST("/bookings/:id/complete", bookingHandler.CompleteBooking)
		organizer.POST("/bookings/:id/cancel", bookingHandler.CancelBooking)
		organizer.GET("/bookings/:id/payment", paymentHandler.GetBookingPayment)
		organizer.POST("/payments/intents", paymentHandler.CreateIntent)
	}

	// Disputes can be opened by any authenticated party of the booking; the
	// service checks membership.
	auth.POST("/bookings/:id/disputes", bookingHandler.OpenDispute)

	vendor := auth.Group("/vendor")
	vendor.Use(RequireRole(services.RoleVendor))
	{
		vendor.GET("/bookings", bookingHandler.VendorInbox)
		vendor.POST("/bookings/:id/approve", bookingHandler.VendorApprove)
		vendor.POST("/bookings/:id/decline", bookingHandler.VendorDecline)
		vendor.POST("/bookings/:id/counter", bookingHandler.VendorCounter)
		vendor.GET("/payouts", payoutHandler.ListVendorPayouts)
		vendor.POST("/payouts/:id/request", payoutHandler.RequestRelease)
	}

	admin := auth.Group("/admin")
	admin.Use(RequireRole(services.RoleAdmin))
	{
		admin.GET("/payouts/pending", adminHandler.ListPendingPayouts)
		admin.POST("/payouts/:id/approve", adminHandler.ApprovePayout)
		admin.POST("/payouts/:id/hold", adminHandler.HoldPayout)
		admin.POST("/payouts/:id/reverse", adminHandler.ReversePayout)
		admin.GET("/bookings/:id/finance", adminHandler.BookingFinance)
		admin.GET("/finance/overview", adminHandler.FinanceOverview)
		admin.POST("/webhooks/:event_id/retry", adminHandler.RetryWebhook)
		admin.POST("/reconcile", adminHandler.RunReconcile)
	}
}
