package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"freight-quote-service/internal/carriers"
	"freight-quote-service/internal/models"
	"freight-quote-service/internal/services"
)

// Config holds all configuration for the freight quote service
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	RedisURL string
	NATSURL  string
	LogLevel string
	Gateways GatewaysConfig
	Quoting  QuotingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// GatewaysConfig holds configuration for the rating networks
type GatewaysConfig struct {
	Freight carriers.GatewayConfig
	Reefer  carriers.GatewayConfig
}

// QuotingConfig holds batch pacing and the fallback pricing policy
type QuotingConfig struct {
	BatchInterval time.Duration
	DefaultPolicy models.PricingPolicy
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	rateTimeout := getEnvDuration("RATE_TIMEOUT", 30*time.Second)

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8088"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "freight_quotes"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		RedisURL: getEnv("REDIS_URL", ""),
		NATSURL:  getEnv("NATS_URL", ""),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Gateways: GatewaysConfig{
			Freight: carriers.GatewayConfig{
				ClientID:     getEnv("FREIGHT_CLIENT_ID", ""),
				ClientSecret: getEnv("FREIGHT_CLIENT_SECRET", ""),
				BaseURL:      getEnv("FREIGHT_BASE_URL", ""),
				TokenURL:     getEnv("FREIGHT_TOKEN_URL", ""),
				Scope:        getEnv("FREIGHT_SCOPE", ""),
				Enabled:      getEnvBool("FREIGHT_ENABLED", false),
				IsProduction: getEnvBool("FREIGHT_IS_PRODUCTION", false),
				Timeout:      rateTimeout,
			},
			Reefer: carriers.GatewayConfig{
				ClientID:     getEnv("REEFER_CLIENT_ID", ""),
				ClientSecret: getEnv("REEFER_CLIENT_SECRET", ""),
				BaseURL:      getEnv("REEFER_BASE_URL", ""),
				TokenURL:     getEnv("REEFER_TOKEN_URL", ""),
				Scope:        getEnv("REEFER_SCOPE", ""),
				Enabled:      getEnvBool("REEFER_ENABLED", false),
				IsProduction: getEnvBool("REEFER_IS_PRODUCTION", false),
				Timeout:      rateTimeout,
			},
		},
		Quoting: QuotingConfig{
			BatchInterval: getEnvDuration("BATCH_INTERVAL", services.DefaultBatchInterval),
			DefaultPolicy: models.PricingPolicy{
				MarkupType:    models.MarkupType(strings.ToLower(getEnv("DEFAULT_MARKUP_TYPE", string(models.MarkupPercentage)))),
				MarkupValue:   getEnvFloat("DEFAULT_MARKUP_VALUE", 15),
				MinimumProfit: getEnvFloat("DEFAULT_MIN_PROFIT", 50),
			},
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}

	// Gateway credentials are only required when the gateway is switched on
	if err := validateGateway("FREIGHT", c.Gateways.Freight); err != nil {
		return err
	}
	if err := validateGateway("REEFER", c.Gateways.Reefer); err != nil {
		return err
	}

	if !c.Quoting.DefaultPolicy.MarkupType.IsValid() {
		return fmt.Errorf("DEFAULT_MARKUP_TYPE must be %q or %q", models.MarkupPercentage, models.MarkupFixed)
	}
	if c.Quoting.DefaultPolicy.MarkupValue < 0 {
		return fmt.Errorf("DEFAULT_MARKUP_VALUE must not be negative")
	}
	if c.Quoting.BatchInterval < 0 {
		return fmt.Errorf("BATCH_INTERVAL must not be negative")
	}

	return nil
}

func validateGateway(prefix string, gateway carriers.GatewayConfig) error {
	if !gateway.Enabled {
		return nil
	}
	if gateway.ClientID == "" || gateway.ClientSecret == "" {
		return fmt.Errorf("%s_CLIENT_ID and %s_CLIENT_SECRET are required when %s_ENABLED=true", prefix, prefix, prefix)
	}
	if gateway.BaseURL == "" {
		return fmt.Errorf("%s_BASE_URL is required when %s_ENABLED=true", prefix, prefix)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an integer environment variable or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

// getEnvFloat gets a float environment variable or returns a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("750ms") or whole seconds ("30")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}
