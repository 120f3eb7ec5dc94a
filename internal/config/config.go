package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds environment-driven configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	PayTR    PayTRConfig
	Mail     MailConfig
	Checkout CheckoutConfig
	LogLevel string
}

type ServerConfig struct {
	Addr            string
	AllowOrigins    string
	ShutdownTimeout time.Duration
	// PublicURL is used to build the gateway success/fail redirect links.
	PublicURL string
}

type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	// AdminEmails are promoted to the admin role when they sign up.
	AdminEmails []string
}

type PayTRConfig struct {
	MerchantID   string
	MerchantKey  string
	MerchantSalt string
	TestMode     bool
	BaseURL      string
	Timeout      time.Duration
}

type MailConfig struct {
	SendGridAPIKey string
	FromAddress    string
	FromName       string
}

// CheckoutConfig carries the pricing defaults used until an admin stores
// different values in settings.
type CheckoutConfig struct {
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
	Currency              string
}

// Load reads configuration from an optional .env file and environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Addr:            getEnv("HANK_ADDR", ":8080"),
			AllowOrigins:    getEnv("CORS_ALLOW_ORIGINS", "*"),
			ShutdownTimeout: time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT", 15)) * time.Second,
			PublicURL:       strings.TrimRight(getEnv("PUBLIC_URL", "http://localhost:5173"), "/"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			AutoMigrate:  getEnv("DB_AUTO_MIGRATE", "1") == "1",
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:   os.Getenv("JWT_SECRET"),
			TokenTTL:    time.Duration(getEnvAsInt("JWT_TTL_HOURS", 72)) * time.Hour,
			AdminEmails: getEnvAsSlice("ADMIN_EMAILS", nil),
		},
		PayTR: PayTRConfig{
			MerchantID:   os.Getenv("PAYTR_MERCHANT_ID"),
			MerchantKey:  os.Getenv("PAYTR_MERCHANT_KEY"),
			MerchantSalt: os.Getenv("PAYTR_MERCHANT_SALT"),
			TestMode:     getEnv("PAYTR_TEST_MODE", "1") == "1",
			BaseURL:      getEnv("PAYTR_BASE_URL", "https://www.paytr.com"),
			Timeout:      time.Duration(getEnvAsInt("PAYTR_TIMEOUT", 20)) * time.Second,
		},
		Mail: MailConfig{
			SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
			FromAddress:    getEnv("MAIL_FROM", "no-reply@example.com"),
			FromName:       getEnv("MAIL_FROM_NAME", "Hank Store"),
		},
		Checkout: CheckoutConfig{
			FreeShippingThreshold: getEnvAsDecimal("FREE_SHIPPING_THRESHOLD", decimal.NewFromInt(2500)),
			ShippingFee:           getEnvAsDecimal("SHIPPING_FEE", decimal.NewFromInt(200)),
			Currency:              getEnv("CURRENCY", "TL"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("HANK_ADDR is required")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is not set")
	}
	if c.Checkout.ShippingFee.IsNegative() || c.Checkout.FreeShippingThreshold.IsNegative() {
		return fmt.Errorf("shipping fee and threshold must be non-negative")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}
	return nil
}

// PaymentEnabled reports whether gateway credentials are present.
func (c *Config) PaymentEnabled() bool {
	return c.PayTR.MerchantID != "" && c.PayTR.MerchantKey != "" && c.PayTR.MerchantSalt != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvAsDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
