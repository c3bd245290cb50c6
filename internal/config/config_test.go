package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := &Config{}
	require.NoError(t, env.Parse(cfg))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "development", cfg.Environment.Name)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, PricingCatalog, cfg.Checkout.Pricing)
	assert.Equal(t, time.Minute, cfg.Checkout.ReconcileInterval)
	assert.Equal(t, "sandbox", cfg.BrainTree.Environment)
	assert.Equal(t, "USD", cfg.BrainTree.Currency)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
}

func TestParse_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("BRAINTREE_MERCHANT_ID", "merchant")
	t.Setenv("BRAINTREE_ENVIRONMENT", "production")
	t.Setenv("CHECKOUT_PRICING", "cart")
	t.Setenv("CHECKOUT_RECONCILE_INTERVAL", "30s")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("DATABASE_DRIVER", "mysql")

	cfg := &Config{}
	require.NoError(t, env.Parse(cfg))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "merchant", cfg.BrainTree.MerchantID)
	assert.Equal(t, "production", cfg.BrainTree.Environment)
	assert.Equal(t, PricingCart, cfg.Checkout.Pricing)
	assert.Equal(t, 30*time.Second, cfg.Checkout.ReconcileInterval)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "mysql", cfg.Database.Driver)
}

func TestParse_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cfg := &Config{}
	assert.Error(t, env.Parse(cfg))
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Database:  Database{Driver: "sqlite"},
			Checkout:  Checkout{Pricing: PricingCatalog},
			BrainTree: Braintree{Environment: "sandbox"},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"driver", func(c *Config) { c.Database.Driver = "postgres" }},
		{"pricing", func(c *Config) { c.Checkout.Pricing = "free" }},
		{"braintree environment", func(c *Config) { c.BrainTree.Environment = "live" }},
		{"reconcile interval", func(c *Config) { c.Checkout.ReconcileInterval = -time.Second }},
	}

	require.NoError(t, base().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
