package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
)

func TestLoad_DevelopmentDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, StorageDriverMemory, cfg.StorageDriver)
	assert.Equal(t, MediaDriverLocal, cfg.MediaDriver)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.NotEmpty(t, cfg.Gateway.WebhookSecret)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:3001"}, cfg.AllowedOrigins)
	assert.Equal(t, 15*time.Second, cfg.Gateway.Timeout)
	assert.Equal(t, []string{"admin"}, cfg.Pricing.ExemptRoles)
}

func TestLoad_Pricing(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("CURRENCY", "USD")
	t.Setenv("PRICE_PLAYER_LISTING", "12.5")
	t.Setenv("PRICE_PROMOTION_URGENT_PER_DAY", "0")
	t.Setenv("DEFAULT_UNLOCK_COST", "3")
	t.Setenv("PAYMENT_EXEMPT_ROLES", "admin, moderator ,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "USD", cfg.Pricing.Currency)
	assert.Equal(t, 12.5, cfg.Pricing.PlayerListing)
	assert.Equal(t, 0.0, cfg.Pricing.PromotionPerDay[valueobject.PromotionTypeUrgent])
	assert.Equal(t, 3.0, cfg.Pricing.DefaultUnlockCost)
	assert.Equal(t, []string{"admin", "moderator"}, cfg.Pricing.ExemptRoles)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "unknown storage driver",
			env:  map[string]string{"APP_ENV": "test", "STORAGE_DRIVER": "mongo"},
		},
		{
			name: "unknown media driver",
			env:  map[string]string{"APP_ENV": "test", "MEDIA_DRIVER": "ftp"},
		},
		{
			name: "s3 without bucket",
			env:  map[string]string{"APP_ENV": "test", "MEDIA_DRIVER": "s3", "S3_BUCKET": ""},
		},
		{
			name: "production short jwt secret",
			env: map[string]string{
				"APP_ENV":                "production",
				"JWT_SECRET":             "short",
				"PAYMENT_WEBHOOK_SECRET": "0123456789abcdef0123456789abcdef",
				"PAYMENT_GATEWAY_URL":    "https://gw.example",
				"CORS_ALLOWED_ORIGINS":   "https://app.example",
			},
		},
		{
			name: "production without gateway",
			env: map[string]string{
				"APP_ENV":                "production",
				"JWT_SECRET":             "0123456789abcdef0123456789abcdef",
				"PAYMENT_WEBHOOK_SECRET": "0123456789abcdef0123456789abcdef",
				"PAYMENT_GATEWAY_URL":    "",
				"CORS_ALLOWED_ORIGINS":   "https://app.example",
			},
		},
		{
			name: "production without cors",
			env: map[string]string{
				"APP_ENV":                "production",
				"JWT_SECRET":             "0123456789abcdef0123456789abcdef",
				"PAYMENT_WEBHOOK_SECRET": "0123456789abcdef0123456789abcdef",
				"PAYMENT_GATEWAY_URL":    "https://gw.example",
				"CORS_ALLOWED_ORIGINS":   "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRESQL_HOST", "db")
	t.Setenv("POSTGRESQL_PORT", "6432")
	t.Setenv("POSTGRESQL_USER", "market")
	t.Setenv("POSTGRESQL_PASSWORD", "p@ss")
	t.Setenv("POSTGRESQL_DBNAME", "sportmarket")

	assert.Equal(t, "postgres://market:p%40ss@db:6432/sportmarket?sslmode=disable", getDatabaseURL())

	t.Setenv("DATABASE_URL", "postgres://override")
	assert.Equal(t, "postgres://override", getDatabaseURL())
}
