package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port            int    `env:"PORT" envDefault:"8080"`
	DatabaseURL     string `env:"DATABASE_URL,required"`
	RedisURL        string `env:"REDIS_URL,required"`
	SessionSecret   string `env:"ADMIN_SESSION_SECRET"`
	SessionTTLHours int    `env:"ADMIN_SESSION_TTL_HOURS" envDefault:"8"`
	StripeSecretKey string `env:"STRIPE_SECRET_KEY"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

// BillingEnabled reports whether real payments are configured. The demo
// credit-grant endpoint is disabled when this is true.
func (c *Config) BillingEnabled() bool {
	return c.StripeSecretKey != ""
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	if c.SessionTTLHours <= 0 {
		return fmt.Errorf("ADMIN_SESSION_TTL_HOURS must be positive")
	}

	if isProduction {
		if err := validateSecret("ADMIN_SESSION_SECRET", c.SessionSecret); err != nil {
			return err
		}
		if !c.BillingEnabled() {
			log.Warn().Msg("STRIPE_SECRET_KEY is empty in production: demo credit grants are enabled")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
