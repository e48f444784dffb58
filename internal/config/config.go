package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	Gateway  GatewayConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// GatewayConfig holds GetMiPay aggregator credentials.
// Injected into the payment service at construction; nothing reads these
// globally.
type GatewayConfig struct {
	APIKey        string
	SecretKey     string
	BaseURL       string
	WebhookSecret string
	CallbackURL   string
	Timeout       time.Duration
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	config := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: loadDatabaseConfig(appMode),
		Gateway:  loadGatewayConfig(appMode),
	}

	AppConfig = config

	log.Printf("Configuration loaded [MODE: %s]", appMode)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	return DatabaseConfig{
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", "3306"),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "tontinepro"),
	}
}

// loadGatewayConfig loads GetMiPay config based on mode
func loadGatewayConfig(mode string) GatewayConfig {
	prefix := "DEV_"
	if mode == "prod" {
		prefix = "PROD_"
	}

	timeoutSecs, _ := strconv.Atoi(getEnv("GETMIPAY_TIMEOUT_SECONDS", "10"))

	return GatewayConfig{
		APIKey:        getEnv(prefix+"GETMIPAY_API_KEY", ""),
		SecretKey:     getEnv(prefix+"GETMIPAY_SECRET_KEY", ""),
		BaseURL:       getEnv(prefix+"GETMIPAY_API_URL", "https://api.getmipay.com"),
		WebhookSecret: getEnv(prefix+"GETMIPAY_WEBHOOK_SECRET", ""),
		CallbackURL:   getEnv("GETMIPAY_CALLBACK_URL", "https://tontinepro.app/callback/getmipay/"),
		Timeout:       time.Duration(timeoutSecs) * time.Second,
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		// Default production origins
		return "https://tontinepro.app"
	}
	return origins
}
