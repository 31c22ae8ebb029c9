package configs

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v6"
)

const (
	IdempotencyStoreLocal = "local"
	IdempotencyStoreRedis = "redis"
)

type Config struct {
	// -- Server --

	Host string `env:"HOST"`
	Port int    `env:"PORT" envDefault:"3001"`
	// Deadline for a single request, enforced with http.TimeoutHandler
	ServerRequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" envDefault:"60s"`
	CorsAllowedOrigins   []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// -- Logging --

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// -- Surfaces --

	DisableGraphQL bool `env:"DISABLE_GRAPHQL" envDefault:"false"`
	GraphiQL       bool `env:"GRAPHIQL" envDefault:"false"`
	DisableMetrics bool `env:"DISABLE_METRICS" envDefault:"false"`

	// -- Idempotency middleware --

	DisableIdempotencyMiddleware      bool          `env:"DISABLE_IDEMPOTENCY_MIDDLEWARE" envDefault:"false"`
	IdempotencyMiddlewareDatabaseType string        `env:"IDEMPOTENCY_MIDDLEWARE_DATABASE_TYPE" envDefault:"local"`
	IdempotencyKeyExpiry              time.Duration `env:"IDEMPOTENCY_KEY_EXPIRY" envDefault:"1h"`

	// -- Redis --

	RedisURL                    string `env:"REDIS_URL"`
	SettingsUpdatedRedisChannel string `env:"SETTINGS_UPDATED_REDIS_CHANNEL"`

	// -- Update notifications --

	SettingsUpdatedWebhookURL         string        `env:"SETTINGS_UPDATED_WEBHOOK_URL"`
	SettingsUpdatedWebhookTimeout     time.Duration `env:"SETTINGS_UPDATED_WEBHOOK_TIMEOUT" envDefault:"10s"`
	SettingsUpdatedWebhookMaxAttempts int           `env:"SETTINGS_UPDATED_WEBHOOK_MAX_ATTEMPTS" envDefault:"5"`

	// Max POST requests per second, 0 disables throttling
	SettingsMaxWriteRate int `env:"SETTINGS_MAX_WRITE_RATE" envDefault:"0"`
}

// Parse parses environment variables into a validated Config.
func Parse() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *Config) validate() error {
	switch cfg.IdempotencyMiddlewareDatabaseType {
	case IdempotencyStoreLocal, IdempotencyStoreRedis:
	default:
		return fmt.Errorf("unsupported idempotency middleware database type '%s'", cfg.IdempotencyMiddlewareDatabaseType)
	}

	if !cfg.DisableIdempotencyMiddleware && cfg.IdempotencyKeyExpiry <= 0 {
		return fmt.Errorf("idempotency key expiry must be positive")
	}

	if cfg.RedisURL == "" {
		if !cfg.DisableIdempotencyMiddleware && cfg.IdempotencyMiddlewareDatabaseType == IdempotencyStoreRedis {
			return fmt.Errorf("idempotency middleware db set to redis but REDIS_URL is empty")
		}
		if cfg.SettingsUpdatedRedisChannel != "" {
			return fmt.Errorf("settings updated redis channel set but REDIS_URL is empty")
		}
	}

	if cfg.SettingsUpdatedWebhookURL != "" {
		u, err := url.ParseRequestURI(cfg.SettingsUpdatedWebhookURL)
		if err != nil {
			return fmt.Errorf("invalid settings updated webhook url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("settings updated webhook url must be http or https, got '%s'", u.Scheme)
		}
		if cfg.SettingsUpdatedWebhookMaxAttempts < 1 {
			return fmt.Errorf("settings updated webhook max attempts must be at least 1")
		}
	}

	if cfg.SettingsMaxWriteRate < 0 {
		return fmt.Errorf("settings max write rate can not be negative")
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Port)
	}

	return nil
}

// Addr is the listen address for http.Server.
func (cfg *Config) Addr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}
