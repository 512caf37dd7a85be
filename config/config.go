package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the full runtime configuration, loaded from the environment.
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	JWTSecret   string `envconfig:"JWT_SECRET" required:"true"`

	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET" required:"true"`

	// Notification sink; publishing is skipped when unset.
	RabbitMQURL string `envconfig:"RABBITMQ_URL"`

	PlatformCommissionPct float64 `envconfig:"PLATFORM_COMMISSION_PCT" default:"0.10"`
	ReservationReleasePct float64 `envconfig:"RESERVATION_RELEASE_PCT" default:"0.50"`
	DepositPct            float64 `envconfig:"DEPOSIT_PCT" default:"0.30"`
	Currency              string  `envconfig:"CURRENCY" default:"usd"`
}

// Load reads .env if present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
