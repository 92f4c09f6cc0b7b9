package common

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Store   StoreConfig
	Server  ServerConfig
	Pricing PricingConfig
	Ingest  IngestConfig
	Export  ExportConfig
}

// StoreConfig holds record-store configuration
type StoreConfig struct {
	Driver           string // "postgres" or "sqlite"
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
	CacheTTL         time.Duration
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr string
}

// PricingConfig holds the linear pricing model constants. A load is
// billed as BaseRate (flat drayage fee) plus UnitRate per chassis day.
type PricingConfig struct {
	BaseRate        float64
	UnitRate        float64
	DefaultCustomer string
}

// IngestConfig holds upload and extraction configuration
type IngestConfig struct {
	MaxUploadBytes int64
	Pdftotext      string
}

// ExportConfig holds export configuration
type ExportConfig struct {
	SheetName string
}

// LoadConfig loads configuration from the environment, reading an
// optional .env file first.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Store: StoreConfig{
			Driver:           getEnv("STORE_DRIVER", "postgres"),
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
			CacheTTL:         getEnvAsDuration("CACHE_TTL", 60*time.Second),
		},
		Server: ServerConfig{
			HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		},
		Pricing: PricingConfig{
			BaseRate:        getEnvAsFloat64("BASE_RATE", 400),
			UnitRate:        getEnvAsFloat64("UNIT_RATE", 35),
			DefaultCustomer: getEnv("DEFAULT_CUSTOMER", "Covenant"),
		},
		Ingest: IngestConfig{
			MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 200<<20),
			Pdftotext:      getEnv("PDFTOTEXT", "pdftotext"),
		},
		Export: ExportConfig{
			SheetName: getEnv("EXPORT_SHEET", "RateCons"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Store.Driver != "postgres" && c.Store.Driver != "sqlite" {
		return NewAppError("CONFIG_ERROR", "STORE_DRIVER must be postgres or sqlite", ErrInvalidInput)
	}
	if c.Store.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Pricing.BaseRate < 0 || c.Pricing.UnitRate <= 0 {
		return NewAppError("CONFIG_ERROR", "BASE_RATE must be >= 0 and UNIT_RATE > 0", ErrInvalidInput)
	}
	return nil
}
