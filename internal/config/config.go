// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/diewo77/invoice-relay/internal/models"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	App      AppConfig
	Relay    RelayConfig
	Company  models.Company
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig selects the store backend. SQLite is the local default.
type DatabaseConfig struct {
	Driver   string // sqlite | postgres
	Path     string // sqlite file
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	Debug    bool
}

// RedisConfig enables the Redis draft slot when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev              bool
	Migrations       bool
	Lang             string
	AutosaveInterval time.Duration
	OutputDir        string
	PrintCommand     string
	DefaultTaxRate   decimal.Decimal
}

// RelayConfig holds transport settings shared by the webhook and email channels.
// Endpoints and ids are user settings kept in the settings store, not here.
type RelayConfig struct {
	Timeout     time.Duration
	EmailAPIURL string
}

// DefaultEmailAPIURL is the EmailJS send endpoint.
const DefaultEmailAPIURL = "https://api.emailjs.com/api/v1.0/email/send"

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 60),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "sqlite"),
			Path:     getEnv("DB_PATH", "invoices.db"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "invoices"),
			Password: getEnv("DB_PASSWORD", "invoices123"),
			DBName:   getEnv("DB_NAME", "invoices"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Debug:    getEnvBool("DB_DEBUG", false),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		App: AppConfig{
			Dev:              getEnvBool("DEV", false),
			Migrations:       getEnvBool("MIGRATIONS", false),
			Lang:             getEnv("APP_LANG", "fr"),
			AutosaveInterval: getEnvDuration("AUTOSAVE_INTERVAL", 60*time.Second),
			OutputDir:        getEnv("OUTPUT_DIR", "factures"),
			PrintCommand:     getEnv("PRINT_COMMAND", "lp"),
			DefaultTaxRate:   getEnvDecimal("DEFAULT_TAX_RATE", models.DefaultTaxRate),
		},
		Relay: RelayConfig{
			Timeout:     getEnvDuration("RELAY_TIMEOUT", 30*time.Second),
			EmailAPIURL: getEnv("EMAIL_API_URL", DefaultEmailAPIURL),
		},
		Company: models.Company{
			Name:       getEnv("COMPANY_NAME", ""),
			Email:      getEnv("COMPANY_EMAIL", ""),
			Phone:      getEnv("COMPANY_PHONE", ""),
			Website:    getEnv("COMPANY_WEBSITE", ""),
			Address:    getEnv("COMPANY_ADDRESS", ""),
			City:       getEnv("COMPANY_CITY", ""),
			PostalCode: getEnv("COMPANY_POSTAL_CODE", ""),
			SIRET:      getEnv("COMPANY_SIRET", ""),
			VATNumber:  getEnv("COMPANY_VAT_NUMBER", ""),
		},
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if dur, err := time.ParseDuration(value); err == nil && dur > 0 {
		return dur
	}
	if i, err := strconv.Atoi(value); err == nil && i > 0 {
		return time.Duration(i) * time.Second
	}
	return defaultValue
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil && !d.IsNegative() {
			return d
		}
	}
	return defaultValue
}
