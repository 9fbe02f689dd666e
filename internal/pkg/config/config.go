package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
	ServerAddr        string        `env:"SERVER_ADDR" envDefault:":8080"`
	MetricsAddr       string        `env:"METRICS_ADDR" envDefault:":9091"`
	PostgresURL       string        `env:"POSTGRES_URL,required"`
	RedisURL          string        `env:"REDIS_URL"` // optional; empty disables the shop cache
	ShopCacheTTL      time.Duration `env:"SHOP_CACHE_TTL" envDefault:"5m"`
	ShopifyAPIVersion string        `env:"SHOPIFY_API_VERSION" envDefault:"2024-01"`
	ShopifyAPIKey     string        `env:"SHOPIFY_API_KEY"`
	ShopifyAPISecret  string        `env:"SHOPIFY_API_SECRET"`
	AppURL            string        `env:"APP_URL"`
	ShopifyTimeout    time.Duration `env:"SHOPIFY_HTTP_TIMEOUT" envDefault:"10s"`
	ShopifyRateRPS    float64       `env:"SHOPIFY_RATE_LIMIT_RPS" envDefault:"2"`
	ShopifyRateBurst  int           `env:"SHOPIFY_RATE_LIMIT_BURST" envDefault:"4"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
