package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	"planora/config"
	"planora/internal/api"
	"planora/internal/db"
	"planora/internal/db/repos"
	"planora/internal/notify"
	"planora/internal/payments"
	"planora/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database := db.NewDB(cfg.DatabaseURL)

	var notifier notify.Notifier = notify.Nop{}
	var broker *notify.Broker
	if cfg.RabbitMQURL != "" {
		broker, err = notify.NewBroker(cfg.RabbitMQURL, "planora")
		if err != nil {
			log.Printf("Warning: Failed to create broker: %v", err)
		} else {
			notifier = broker
		}
	}

	bookingRepo := repos.NewBookingRepository(database)
	bookingVendorRepo := repos.NewBookingVendorRepository(database)
	vendorRepo := repos.NewVendorRepository(database)
	paymentRepo := repos.NewPaymentRepository(database)
	ledgerRepo := repos.NewLedgerRepository(database)
	payoutRepo := repos.NewPayoutRepository(database)
	webhookRepo := repos.NewWebhookEventRepository(database)
	disputeRepo := repos.NewDisputeRepository(database)

	processor := payments.NewStripeProcessor(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	settings := services.Settings{
		Currency:              cfg.Currency,
		PlatformCommissionPct: cfg.PlatformCommissionPct,
		ReservationReleasePct: cfg.ReservationReleasePct,
		DepositPct:            cfg.DepositPct,
	}

	bookingService := services.NewBookingService(database, bookingRepo, bookingVendorRepo, vendorRepo, payoutRepo, notifier)
	paymentService := services.NewPaymentService(database, paymentRepo, bookingRepo, bookingVendorRepo, processor, settings, notifier)
	webhookService := services.NewWebhookService(database, webhookRepo, paymentRepo, bookingRepo, bookingVendorRepo, ledgerRepo, payoutRepo, settings, notifier)
	payoutService := services.NewPayoutService(database, payoutRepo, bookingRepo, bookingVendorRepo, vendorRepo, ledgerRepo, disputeRepo, notifier)
	financeService := services.NewFinanceService(bookingRepo, ledgerRepo, payoutRepo)
	reconcileService := services.NewReconcileService(database, paymentRepo, processor, webhookService)

	router := gin.Default()
	api.SetupRoutes(router, api.Handlers{
		JWTSecret: []byte(cfg.JWTSecret),
		Processor: processor,
		Bookings:  bookingService,
		Payments:  paymentService,
		Payouts:   payoutService,
		Finance:   financeService,
		Webhooks:  webhookService,
		Reconcile: reconcileService,
		Currency:  cfg.Currency,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Shutting down server...")
		if broker != nil {
			if err := broker.Close(); err != nil {
				log.Printf("Error closing broker: %v", err)
			}
		}
		if err := database.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
		os.Exit(0)
	}()

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
