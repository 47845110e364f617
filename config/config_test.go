package config

import (
	"testing"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessDefaults(t *testing.T) {
	t.Setenv("DB_BACKEND", "memory")
	t.Setenv("BANK_MUSCAT_MERCHANT_ID", "TESTMID")

	var cfg Config
	require.NoError(t, envconfig.Process("", &cfg))
	require.NoError(t, cfg.normalize())

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, 500, cfg.Cache.Capacity)
	assert.Equal(t, 5*time.Minute, cfg.Cache.ProductTTL)
	assert.Equal(t, "TESTMID", cfg.Gateway.MerchantID)
	assert.Equal(t, "merchant.TESTMID", cfg.Gateway.APIUsername)
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, "OMR", cfg.Gateway.DefaultCurrency)
	assert.Contains(t, cfg.Gateway.BaseURL, "test")
	assert.Equal(t, "http://localhost:8080/api/payments/checkout", cfg.Gateway.CheckoutPageURL)
}

func TestProductionEnvironmentSelectsProductionURL(t *testing.T) {
	t.Setenv("DB_BACKEND", "memory")
	t.Setenv("BANK_MUSCAT_ENVIRONMENT", "production")

	var cfg Config
	require.NoError(t, envconfig.Process("", &cfg))
	require.NoError(t, cfg.normalize())

	assert.NotContains(t, cfg.Gateway.BaseURL, "test")
}

func TestFirestoreBackendNeedsProject(t *testing.T) {
	t.Setenv("DB_BACKEND", "firestore")
	t.Setenv("FIRESTORE_PROJECT_ID", "")

	var cfg Config
	require.NoError(t, envconfig.Process("", &cfg))
	assert.Error(t, cfg.normalize())
}

func TestRedisCacheNeedsAddr(t *testing.T) {
	t.Setenv("DB_BACKEND", "memory")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_ADDR", "")

	var cfg Config
	require.NoError(t, envconfig.Process("", &cfg))
	assert.Error(t, cfg.normalize())
}
