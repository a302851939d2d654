package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string
	Mode     string // "paper" or "live"

	// Underlying
	Symbol string

	// Market data
	MarketDataBaseURL string
	MarketDataAPIKey  string
	MarketDataTimeout time.Duration

	// Broker gateway
	BrokerBaseURL string
	BrokerTimeout time.Duration
	AccountID     string

	// Trading policy
	FillType       string
	DiscountFactor float64
	ScanMinEdge    float64
	PaperEquity    float64
	PollInterval   time.Duration

	// Equity breaker
	BreakerCheckInterval      time.Duration
	BreakerNotionalMultiplier float64
	BreakerHysteresisRatio    float64

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),
		Mode:     getEnvOrDefault("MODE", "paper"),

		// Underlying defaults
		Symbol: getEnvOrDefault("UNDERLYING_SYMBOL", "SPX"),

		// Market data defaults
		MarketDataBaseURL: getEnvOrDefault("MARKET_DATA_BASE_URL", "https://api.activetick.com/v1"),
		MarketDataAPIKey:  os.Getenv("MARKET_DATA_API_KEY"),
		MarketDataTimeout: getDurationOrDefault("MARKET_DATA_TIMEOUT", 15*time.Second),

		// Broker defaults: the Client Portal gateway runs locally.
		BrokerBaseURL: getEnvOrDefault("BROKER_BASE_URL", "http://localhost:5000/v1/api"),
		BrokerTimeout: getDurationOrDefault("BROKER_TIMEOUT", 15*time.Second),
		AccountID:     os.Getenv("ACCOUNT_ID"),

		// Trading policy defaults
		FillType:       getEnvOrDefault("FILL_TYPE", "1"),
		DiscountFactor: getFloat64OrDefault("ORDER_DISCOUNT_FACTOR", 0.9),
		ScanMinEdge:    getFloat64OrDefault("SCAN_MIN_EDGE", 0.0),
		PaperEquity:    getFloat64OrDefault("PAPER_EQUITY", 100000.0),
		PollInterval:   getDurationOrDefault("POLL_INTERVAL", 60*time.Second),

		// Equity breaker defaults
		BreakerCheckInterval:      getDurationOrDefault("BREAKER_CHECK_INTERVAL", 30*time.Second),
		BreakerNotionalMultiplier: getFloat64OrDefault("BREAKER_NOTIONAL_MULTIPLIER", 2.0),
		BreakerHysteresisRatio:    getFloat64OrDefault("BREAKER_HYSTERESIS_RATIO", 1.2),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "options_arb"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "options_arb123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "options_arb"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.Mode != "paper" && c.Mode != "live" {
		return fmt.Errorf("MODE must be 'paper' or 'live', got %q", c.Mode)
	}

	if c.Symbol == "" {
		return fmt.Errorf("UNDERLYING_SYMBOL cannot be empty")
	}

	if c.FillType != "1" && c.FillType != "2" && c.FillType != "3" {
		return fmt.Errorf("FILL_TYPE must be '1', '2' or '3', got %q", c.FillType)
	}

	if c.DiscountFactor <= 0 || c.DiscountFactor > 1.0 {
		return fmt.Errorf("ORDER_DISCOUNT_FACTOR must be in (0, 1], got %f", c.DiscountFactor)
	}

	if c.ScanMinEdge < 0 {
		return fmt.Errorf("SCAN_MIN_EDGE cannot be negative, got %f", c.ScanMinEdge)
	}

	if c.StorageMode != "postgres" && c.StorageMode != "console" {
		return fmt.Errorf("STORAGE_MODE must be 'postgres' or 'console', got %q", c.StorageMode)
	}

	if c.Mode == "live" {
		if c.AccountID == "" {
			return fmt.Errorf("ACCOUNT_ID is required in live mode")
		}
		if c.BrokerBaseURL == "" {
			return fmt.Errorf("BROKER_BASE_URL is required in live mode")
		}
	}

	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}
