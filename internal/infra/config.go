package infra

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/negoride/platform/internal/domain"
)

// Config holds all application configuration parsed from environment variables.
type Config struct {
	// Database
	DatabaseURL string `env:"DATABASE_URL"`
	PGHost      string `env:"PGHOST" envDefault:"localhost"`
	PGPort      int    `env:"PGPORT" envDefault:"5432"`
	PGUser      string `env:"PGUSER" envDefault:"negoride"`
	PGPassword  string `env:"PGPASSWORD" envDefault:"negoride"`
	PGDatabase  string `env:"PGDATABASE" envDefault:"negoride"`
	PGMaxConns  int32  `env:"PG_MAX_CONNS" envDefault:"20"`

	// Redis (wallet projection cache)
	RedisURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`

	// JWT (tokens are issued by the account service; we only verify)
	JWTSecret string `env:"JWT_SECRET" envDefault:"change-me-in-production"`

	// Server
	APIPort int `env:"API_PORT" envDefault:"3200"`

	// Kafka
	KafkaBrokers string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	KafkaEnabled bool   `env:"KAFKA_ENABLED" envDefault:"false"`

	// Payments
	ServiceFeePercent   int64  `env:"SERVICE_FEE_PERCENT" envDefault:"10"`
	DefaultCurrency     string `env:"DEFAULT_CURRENCY" envDefault:"CAD"`
	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`

	// Limits (cents; 0 disables the check)
	SinglePaymentMax int64 `env:"SINGLE_PAYMENT_MAX" envDefault:"50000"`
	DailySpendMax    int64 `env:"DAILY_SPEND_MAX" envDefault:"200000"`

	// Dev
	AllowInsecureDefaults bool `env:"ALLOW_INSECURE_DEFAULTS" envDefault:"false"`
}

// LoadConfig parses environment variables into a Config struct.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := domain.ValidateFeePercent(cfg.ServiceFeePercent); err != nil {
		return nil, fmt.Errorf("SERVICE_FEE_PERCENT: %w", err)
	}
	return cfg, nil
}

// Validate checks for insecure configuration that must not run in production.
// Set ALLOW_INSECURE_DEFAULTS=true to bypass (local dev only).
func (c *Config) Validate() error {
	if c.AllowInsecureDefaults {
		return nil
	}
	if c.JWTSecret == "change-me-in-production" {
		return fmt.Errorf("JWT_SECRET is set to the insecure default; set a strong secret or set ALLOW_INSECURE_DEFAULTS=true for local dev")
	}
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET is too short (%d chars); minimum 32 characters required", len(c.JWTSecret))
	}
	if c.StripeWebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}
	return nil
}

// DSN returns the PostgreSQL connection string, preferring DATABASE_URL if set.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.PGUser, c.PGPassword, c.PGHost, c.PGPort, c.PGDatabase)
}
