package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("SessionTTL converts hours to duration", func(t *testing.T) {
		cfg := &Config{SessionTTLHours: 8}
		assert.Equal(t, 8*time.Hour, cfg.SessionTTL())
	})

	t.Run("BillingEnabled reflects stripe key presence", func(t *testing.T) {
		assert.False(t, (&Config{}).BillingEnabled())
		assert.True(t, (&Config{StripeSecretKey: "sk_test_123"}).BillingEnabled())
	})
}

func TestServerTimeouts(t *testing.T) {
	t.Run("write timeout is finite and outlasts the request timeout", func(t *testing.T) {
		assert.Greater(t, ServerWriteTimeout, time.Duration(0))
		assert.Greater(t, ServerWriteTimeout, ServerRequestTimeout)
	})
}

func TestValidate(t *testing.T) {
	t.Run("accepts dev config without secret", func(t *testing.T) {
		cfg := &Config{SessionTTLHours: 8}
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("rejects non-positive session TTL", func(t *testing.T) {
		cfg := &Config{SessionTTLHours: 0}
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("rejects short secret in production", func(t *testing.T) {
		cfg := &Config{SessionTTLHours: 8, SessionSecret: "short"}
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("rejects known weak secret in production", func(t *testing.T) {
		cfg := &Config{SessionTTLHours: 8, SessionSecret: "change-me"}
		assert.Error(t, cfg.Validate(true))
	})

	t.Run("accepts strong secret in production", func(t *testing.T) {
		cfg := &Config{SessionTTLHours: 8, SessionSecret: "0123456789abcdef0123456789abcdef"}
		assert.NoError(t, cfg.Validate(true))
	})
}

func TestLoad(t *testing.T) {
	originalEnv := map[string]string{
		"PORT":                    os.Getenv("PORT"),
		"DATABASE_URL":            os.Getenv("DATABASE_URL"),
		"REDIS_URL":               os.Getenv("REDIS_URL"),
		"ADMIN_SESSION_SECRET":    os.Getenv("ADMIN_SESSION_SECRET"),
		"ADMIN_SESSION_TTL_HOURS": os.Getenv("ADMIN_SESSION_TTL_HOURS"),
		"STRIPE_SECRET_KEY":       os.Getenv("STRIPE_SECRET_KEY"),
		"LOG_LEVEL":               os.Getenv("LOG_LEVEL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("loads config with defaults", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Unsetenv("PORT")
		os.Unsetenv("ADMIN_SESSION_TTL_HOURS")
		os.Unsetenv("STRIPE_SECRET_KEY")
		os.Unsetenv("LOG_LEVEL")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
		assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
		assert.Equal(t, 8, cfg.SessionTTLHours)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.False(t, cfg.BillingEnabled())
	})

	t.Run("loads custom values", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("PORT", "3000")
		os.Setenv("ADMIN_SESSION_TTL_HOURS", "24")
		os.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Port)
		assert.Equal(t, 24, cfg.SessionTTLHours)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("fails without required DATABASE_URL", func(t *testing.T) {
		os.Unsetenv("DATABASE_URL")
		os.Setenv("REDIS_URL", "redis://localhost:6379")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("fails without required REDIS_URL", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Unsetenv("REDIS_URL")

		_, err := Load()
		assert.Error(t, err)
	})
}
