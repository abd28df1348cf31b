package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("JWT_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_key")
	t.Setenv("RAZORPAY_KEY_SECRET", "secret")
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", "whsec")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GO_ENV", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 10*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, 2, cfg.GatewayMaxRetries)
	assert.False(t, cfg.IsProduction())
	assert.Contains(t, cfg.DSN(), "dbname=storefront")
}

func TestLoad_DatabaseURLWins(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/shop")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/shop", cfg.DSN())
}

func TestLoad_MissingWebhookSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RAZORPAY_WEBHOOK_SECRET")
}

func TestLoad_BadDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("GATEWAY_TIMEOUT", "ten")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_AdminEmailNormalized(t *testing.T) {
	setRequired(t)
	t.Setenv("ADMIN_EMAIL", "  Admin@Shop.IO ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "admin@shop.io", cfg.AdminEmail)
}
