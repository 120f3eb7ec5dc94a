package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hank")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.True(t, cfg.Checkout.FreeShippingThreshold.Equal(decimal.NewFromInt(2500)))
	assert.True(t, cfg.Checkout.ShippingFee.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.PaymentEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/hank")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SHIPPING_FEE", "149.90")
	t.Setenv("ADMIN_EMAILS", "a@example.com, b@example.com ,")
	t.Setenv("PAYTR_MERCHANT_ID", "1")
	t.Setenv("PAYTR_MERCHANT_KEY", "k")
	t.Setenv("PAYTR_MERCHANT_SALT", "s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "149.9", cfg.Checkout.ShippingFee.String())
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Auth.AdminEmails)
	assert.True(t, cfg.PaymentEnabled())
}

func TestLoad_MissingSecrets(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Addr: ":1"},
		Database: DatabaseConfig{URL: "x"},
		Auth:     AuthConfig{JWTSecret: "x"},
		LogLevel: "verbose",
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}
