// AngelaMos | 2026
// config_test.go

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/visitpro")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("PORT", "5050")
	t.Setenv("SESSION_TTL_SECONDS", "3600")
	t.Setenv("CORS_ORIGIN", "https://app.example.com,https://admin.example.com")
	t.Setenv("STRIPE_PRICE_GROWTH_YEARLY", "price_growth_y")
	t.Setenv("FIREBASE_PRIVATE_KEY", `"-----BEGIN KEY-----\nabc\n-----END KEY-----"`)

	c, err := load("")
	require.NoError(t, err)

	assert.Equal(t, 5050, c.Server.Port)
	assert.Equal(t, time.Hour, c.Session.TTL())
	assert.Equal(t,
		[]string{"https://app.example.com", "https://admin.example.com"},
		c.CORS.AllowedOrigins,
	)
	assert.Equal(t, "price_growth_y", c.Stripe.Prices.GrowthYearly)
	assert.Equal(t, 14, c.Stripe.TrialPeriodDays)
	assert.Equal(t, 465, c.Mail.Port)
	assert.Equal(t, "http://localhost:3000", c.App.PublicURL)
	assert.Equal(t,
		"-----BEGIN KEY-----\nabc\n-----END KEY-----",
		c.Firebase.NormalizedPrivateKey(),
	)
	assert.False(t, c.Mail.Configured())
	assert.False(t, c.Stripe.Configured())
}

func TestLoadRequiresDatabase(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	_, err := load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestValidateRejectsWildcardWithCredentials(t *testing.T) {
	c := &Config{
		Database: DatabaseConfig{URL: "postgres://x"},
		Redis:    RedisConfig{URL: "redis://x"},
		Session:  SessionConfig{TTLSeconds: 10},
		CORS: CORSConfig{
			AllowedOrigins:   []string{"*"},
			AllowCredentials: true,
		},
		Server: ServerConfig{ReadTimeout: time.Second, WriteTimeout: time.Second},
	}

	assert.Error(t, validate(c))
}

func TestEnvValueSplitsListKeys(t *testing.T) {
	key, value := envValue("CORS_ORIGIN", " https://a.example.com , ,https://b.example.com")
	assert.Equal(t, "cors.allowed_origins", key)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, value)

	key, value = envValue("PORT", "8080")
	assert.Equal(t, "server.port", key)
	assert.Equal(t, "8080", value)

	key, _ = envValue("UNRELATED_VAR", "x")
	assert.Empty(t, key)
}
