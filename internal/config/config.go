package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port        string
	Environment string
	Debug       bool

	// Database
	DatabaseURL string

	// JWT
	JWTSecret string

	// Billing defaults (used when the account settings row is created lazily)
	InvoicePrefix       string
	ReceiptPrefix       string
	DefaultCurrency     string
	DefaultPaymentTerms string

	// Background Workers
	WorkerCount int

	// Overdue sweep interval in minutes (0 disables the sweep)
	OverdueSweepMinutes int

	// CORS
	AllowedOrigins []string

	// Sentry
	SentryDSN string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Environment:         getEnv("ENVIRONMENT", "development"),
		Debug:               getEnvAsBool("DEBUG", false),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		InvoicePrefix:       getEnv("INVOICE_PREFIX", "INV"),
		ReceiptPrefix:       getEnv("RECEIPT_PREFIX", "RCP"),
		DefaultCurrency:     getEnv("DEFAULT_CURRENCY", "USD"),
		DefaultPaymentTerms: getEnv("DEFAULT_PAYMENT_TERMS", "net_30"),
		WorkerCount:         getEnvAsInt("WORKER_COUNT", 5),
		OverdueSweepMinutes: getEnvAsInt("OVERDUE_SWEEP_MINUTES", 60),
		AllowedOrigins:      getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		SentryDSN:           getEnv("SENTRY_DSN", ""),
	}

	// Validate required configuration
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" && cfg.Environment == "production" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	// Set default JWT secret for development
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-in-production"
	}

	return cfg, nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as integer
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool reads an environment variable as boolean
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice reads an environment variable as comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
