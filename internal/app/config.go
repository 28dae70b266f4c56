package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (SHOP_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (SHOP_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisURL     string `usage:"Redis connection URL for session state (SHOP_REDIS_URL or REDIS_URL)" flag:"redis-url"`
	ImageBaseURL string `default:"" usage:"Base URL for product images (e.g. https://cdn.example.com/images)" flag:"image-base-url"`
	Session      SessionConfig
	Payment      PaymentConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// SessionConfig controls the shopper session cookie.
type SessionConfig struct {
	CookieName string        `default:"storefront_session" usage:"Session cookie name" flag:"session-cookie"`
	Secure     bool          `default:"false" usage:"Mark the session cookie Secure (enable behind TLS)" flag:"session-secure"`
	TTL        time.Duration `default:"720h" usage:"Session state TTL in the store" flag:"session-ttl"`
}

// PaymentConfig points at the payment collaborator service.
type PaymentConfig struct {
	BaseURL   string        `usage:"Payment backend base URL (SHOP_PAYMENT_BASE_URL)" flag:"payment-base-url"`
	SecretKey string        `usage:"Payment backend bearer token (SHOP_PAYMENT_SECRET_KEY)" flag:"payment-secret-key"`
	Timeout   time.Duration `default:"15s" usage:"Payment backend request timeout" flag:"payment-timeout"`
}

// RateLimitConfig controls the per-session sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `usage:"Allowed CORS origins (storefront web deployments)"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (session cookie)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SHOP",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set SHOP_DATABASE_URL or DATABASE_URL")
	}
	if cfg.Payment.BaseURL == "" {
		return nil, errors.New("payment backend URL is required: set SHOP_PAYMENT_BASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and PORT
// to the application's SHOP_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if c.RedisURL == "" {
		if v := os.Getenv("REDIS_URL"); v != "" {
			c.RedisURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
