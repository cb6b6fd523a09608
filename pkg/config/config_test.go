package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, EnvDevelopment, cfg.Server.Environment)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessExpiry)
}

func TestLoad_PricingDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5.0, cfg.Pricing.CommissionRatePct)
	assert.Equal(t, 3.0, cfg.Pricing.ServiceFeeRatePct)
	assert.Equal(t, 25.0, cfg.Pricing.ServiceFeeMin)
	assert.Equal(t, 500.0, cfg.Pricing.ServiceFeeMax)
	assert.Equal(t, 15.0, cfg.Pricing.TransportFeeBase)
	assert.Equal(t, 0.5, cfg.Pricing.TransportFeePerItem)
	assert.Equal(t, 180, cfg.Pricing.ExpiringSoonDays)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("RXRETURN_SERVER_PORT", "9090")
	t.Setenv("RXRETURN_DATABASE_HOST", "db.internal")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("from individual fields", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "rxreturn",
			Password: "secret",
			Database: "rxreturn",
			SSLMode:  "disable",
		}
		assert.Equal(t,
			"host=localhost port=5432 user=rxreturn password=secret dbname=rxreturn sslmode=disable",
			cfg.DSN())
	})

	t.Run("url takes precedence", func(t *testing.T) {
		cfg := DatabaseConfig{
			URL:  "postgres://app:pw@db.example.com:5433/returns?sslmode=require",
			Host: "ignored",
		}
		assert.Equal(t,
			"host=db.example.com port=5433 user=app password=pw dbname=returns sslmode=require",
			cfg.DSN())
	})

	t.Run("postgresql scheme accepted", func(t *testing.T) {
		cfg := DatabaseConfig{URL: "postgresql://u:p@h/db"}
		assert.Equal(t, "host=h port=5432 user=u password=p dbname=db sslmode=disable", cfg.DSN())
	})
}

func TestDatabaseConfig_Validate(t *testing.T) {
	t.Run("development allows localhost", func(t *testing.T) {
		cfg := DatabaseConfig{Host: "localhost"}
		assert.NoError(t, cfg.Validate(EnvDevelopment))
	})

	t.Run("production rejects localhost", func(t *testing.T) {
		cfg := DatabaseConfig{Host: "localhost"}
		assert.Error(t, cfg.Validate(EnvProduction))
	})

	t.Run("production rejects empty host", func(t *testing.T) {
		cfg := DatabaseConfig{}
		assert.Error(t, cfg.Validate(EnvProduction))
	})

	t.Run("production accepts url", func(t *testing.T) {
		cfg := DatabaseConfig{URL: "postgres://u:p@db.prod:5432/rx"}
		assert.NoError(t, cfg.Validate(EnvProduction))
	})
}

func TestLoadWithValidation_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("RXRETURN_SERVER_ENVIRONMENT", "production")
	t.Setenv("RXRETURN_DATABASE_HOST", "db.prod.internal")
	t.Setenv("RXRETURN_RABBITMQ_URL", "amqp://rx:pw@mq.prod.internal:5672/")

	_, err := LoadWithValidation()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RXRETURN_JWT_SECRET")
}
