package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port            int
	Environment     string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	LogLevel        string
	MaxUploadBytes  int64

	// Database
	DatabaseURL         string
	DBMaxConnections    int
	DBConnectionTimeout time.Duration

	// Clerk Auth
	ClerkSecretKey string

	// S3
	S3Bucket    string
	S3Region    string
	AWSEndpoint string // For LocalStack in development

	// Statement parsing
	AmountFormat          string // "latam" or "english"
	PayrollTaxIDThreshold int64
	LookupConcurrency     int
	LookupTimeout         time.Duration
	AccountCacheTTL       time.Duration

	// Accounting policy
	BankAccountCode          string
	CustomersAccountCode     string
	SuppliersAccountCode     string
	RemunerationsAccountCode string
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Port:                     getEnvInt("PORT", 8080),
		Environment:              getEnv("ENVIRONMENT", "development"),
		ShutdownTimeout:          getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		AllowedOrigins:           getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		MaxUploadBytes:           int64(getEnvInt("MAX_UPLOAD_BYTES", 10*1024*1024)),
		DatabaseURL:              getEnv("DATABASE_URL", ""),
		DBMaxConnections:         getEnvInt("DB_MAX_CONNECTIONS", 25),
		DBConnectionTimeout:      getEnvDuration("DB_CONNECTION_TIMEOUT", 30*time.Second),
		ClerkSecretKey:           getEnv("CLERK_SECRET_KEY", ""),
		S3Bucket:                 getEnv("S3_BUCKET", ""),
		S3Region:                 getEnv("S3_REGION", "sa-east-1"),
		AWSEndpoint:              getEnv("AWS_ENDPOINT", ""),
		AmountFormat:             getEnv("AMOUNT_FORMAT", "latam"),
		PayrollTaxIDThreshold:    int64(getEnvInt("PAYROLL_TAX_ID_THRESHOLD", 40000000)),
		LookupConcurrency:        getEnvInt("LOOKUP_CONCURRENCY", 8),
		LookupTimeout:            getEnvDuration("LOOKUP_TIMEOUT", 3*time.Second),
		AccountCacheTTL:          getEnvDuration("ACCOUNT_CACHE_TTL", 5*time.Minute),
		BankAccountCode:          getEnv("BANK_ACCOUNT_CODE", "1101"),
		CustomersAccountCode:     getEnv("CUSTOMERS_ACCOUNT_CODE", "1201"),
		SuppliersAccountCode:     getEnv("SUPPLIERS_ACCOUNT_CODE", "2101"),
		RemunerationsAccountCode: getEnv("REMUNERATIONS_ACCOUNT_CODE", "2105"),
	}

	// Validate required fields
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.ClerkSecretKey == "" && cfg.Environment == "production" {
		return nil, fmt.Errorf("CLERK_SECRET_KEY is required in production")
	}
	if cfg.S3Bucket == "" && cfg.Environment == "production" {
		return nil, fmt.Errorf("S3_BUCKET is required in production")
	}
	if cfg.AmountFormat != "latam" && cfg.AmountFormat != "english" {
		return nil, fmt.Errorf("AMOUNT_FORMAT must be latam or english, got %q", cfg.AmountFormat)
	}
	if cfg.LookupConcurrency < 1 {
		cfg.LookupConcurrency = 1
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
