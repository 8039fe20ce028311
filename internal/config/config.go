package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	HTTPAddr    string
	Debug       bool

	ERPTokenURL        string // ERP authentication endpoint (client-credentials)
	MarketplaceBaseURL string

	PollIntervalSeconds int // scheduler tick
	SettleDelaySeconds  int // wait between variation-header and item creation
	HTTPTimeoutSeconds  int // per-destination outbound timeout
	ShutdownTimeout     int // seconds

	// Refreshed tokens are treated as expired this long before the
	// provider's own expiry, so a run never starts with a token about to
	// lapse mid-pipeline.
	TokenEarlyExpirySeconds int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error in production)
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:                ":3333",
		PollIntervalSeconds:     5,
		SettleDelaySeconds:      30,
		HTTPTimeoutSeconds:      60,
		ShutdownTimeout:         30,
		TokenEarlyExpirySeconds: 3 * 60 * 60,
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	cfg.ERPTokenURL = os.Getenv("ERP_TOKEN_URL")
	if cfg.ERPTokenURL == "" {
		return nil, fmt.Errorf("ERP_TOKEN_URL is required")
	}

	cfg.MarketplaceBaseURL = os.Getenv("MARKETPLACE_BASE_URL")
	if cfg.MarketplaceBaseURL == "" {
		return nil, fmt.Errorf("MARKETPLACE_BASE_URL is required")
	}

	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.Debug = os.Getenv("DEBUG") == "true"

	var err error
	if cfg.PollIntervalSeconds, err = intEnv("POLL_INTERVAL_SECONDS", cfg.PollIntervalSeconds); err != nil {
		return nil, err
	}
	if cfg.SettleDelaySeconds, err = intEnv("SETTLE_DELAY_SECONDS", cfg.SettleDelaySeconds); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeoutSeconds, err = intEnv("HTTP_TIMEOUT_SECONDS", cfg.HTTPTimeoutSeconds); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = intEnv("SHUTDOWN_TIMEOUT_SECONDS", cfg.ShutdownTimeout); err != nil {
		return nil, err
	}
	if cfg.TokenEarlyExpirySeconds, err = intEnv("TOKEN_EARLY_EXPIRY_SECONDS", cfg.TokenEarlyExpirySeconds); err != nil {
		return nil, err
	}

	return cfg, nil
}

func intEnv(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, err)
	}
	return n, nil
}
