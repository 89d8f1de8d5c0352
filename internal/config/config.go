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
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// JWT configuration
	JWT JWTConfig

	// Pricing configuration
	Pricing PricingConfig

	// Background monitor configuration
	Monitor MonitorConfig

	// Abuse/fraud detection configuration
	Detection DetectionConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
	AdminUserID string // recipient of admin alerts
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// PricingConfig holds surge pricing configuration
type PricingConfig struct {
	HarvestSurge        float64
	SowingSurge         float64
	HighDemandSurge     float64
	HighDemandCount     int
	ModerateDemandSurge float64
	ModerateDemandCount int
}

// MonitorConfig holds background monitor configuration
type MonitorConfig struct {
	IntervalSeconds     int
	DelayGraceMinutes   int
	CompensationPercent float64
	PendingHoldHours    int
}

// DetectionConfig holds abuse and fraud detection thresholds
type DetectionConfig struct {
	RejectionThreshold    int
	RejectionWindowHours  int
	PaymentSpikeThreshold int
	PaymentSpikeWindowMin int
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			AdminUserID: getEnv("ADMIN_USER_ID", "admin"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
		},
		Pricing: PricingConfig{
			HarvestSurge:        getEnvAsFloat("PRICING_HARVEST_SURGE", 1.25),
			SowingSurge:         getEnvAsFloat("PRICING_SOWING_SURGE", 1.15),
			HighDemandSurge:     getEnvAsFloat("PRICING_HIGH_DEMAND_SURGE", 1.4),
			HighDemandCount:     getEnvAsInt("PRICING_HIGH_DEMAND_COUNT", 10),
			ModerateDemandSurge: getEnvAsFloat("PRICING_MODERATE_DEMAND_SURGE", 1.25),
			ModerateDemandCount: getEnvAsInt("PRICING_MODERATE_DEMAND_COUNT", 5),
		},
		Monitor: MonitorConfig{
			IntervalSeconds:     getEnvAsInt("MONITOR_INTERVAL_SECONDS", 60),
			DelayGraceMinutes:   getEnvAsInt("MONITOR_DELAY_GRACE_MINUTES", 20),
			CompensationPercent: getEnvAsFloat("MONITOR_COMPENSATION_PERCENT", 0.05),
			PendingHoldHours:    getEnvAsInt("MONITOR_PENDING_HOLD_HOURS", 24),
		},
		Detection: DetectionConfig{
			RejectionThreshold:    getEnvAsInt("DETECTION_REJECTION_THRESHOLD", 3),
			RejectionWindowHours:  getEnvAsInt("DETECTION_REJECTION_WINDOW_HOURS", 24),
			PaymentSpikeThreshold: getEnvAsInt("DETECTION_PAYMENT_SPIKE_THRESHOLD", 10),
			PaymentSpikeWindowMin: getEnvAsInt("DETECTION_PAYMENT_SPIKE_WINDOW_MINUTES", 10),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Monitor.IntervalSeconds <= 0 {
		return fmt.Errorf("MONITOR_INTERVAL_SECONDS must be positive")
	}

	if c.Monitor.CompensationPercent < 0 || c.Monitor.CompensationPercent > 1 {
		return fmt.Errorf("MONITOR_COMPENSATION_PERCENT must be between 0 and 1")
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid float value for %s, using default: %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	values := []string{}
	for _, v := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
