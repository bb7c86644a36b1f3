package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Region   RegionConfig
	Matching MatchingConfig
	Pricing  PricingConfig
	Travel   TravelConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// RegionConfig is the operating-region bounding box used for position
// validation. Defaults cover Egypt; override per deployment.
type RegionConfig struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// MatchingConfig holds provider search configuration.
type MatchingConfig struct {
	DefaultRadiusKm float64
	MaxRadiusKm     float64
	// RequireAreaMatch additionally filters candidates to providers whose
	// declared service areas cover the customer position.
	RequireAreaMatch bool
	// LocationMaxAge is the staleness window: a provider whose latest sample
	// is older than this no longer counts as online. Policy value.
	LocationMaxAge time.Duration
	CatalogTimeout time.Duration
}

// PricingConfig holds platform pricing configuration.
type PricingConfig struct {
	CommissionPct float64
	Currency      string
}

// TravelConfig holds travel-time estimation policy.
type TravelConfig struct {
	AvgSpeedKmh    float64
	BufferPerKmMin float64
	MaxBufferMin   float64
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "servio"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "servio-core"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Region: RegionConfig{
			MinLat: getFloatEnv("REGION_MIN_LAT", 22.0),
			MaxLat: getFloatEnv("REGION_MAX_LAT", 32.0),
			MinLon: getFloatEnv("REGION_MIN_LON", 25.0),
			MaxLon: getFloatEnv("REGION_MAX_LON", 35.0),
		},
		Matching: MatchingConfig{
			DefaultRadiusKm:  getFloatEnv("MATCH_DEFAULT_RADIUS_KM", 25.0),
			MaxRadiusKm:      getFloatEnv("MATCH_MAX_RADIUS_KM", 100.0),
			RequireAreaMatch: getBoolEnv("MATCH_REQUIRE_AREA", false),
			LocationMaxAge:   getDurationEnv("LOCATION_MAX_AGE", 5*time.Minute),
			CatalogTimeout:   getDurationEnv("CATALOG_TIMEOUT", 2*time.Second),
		},
		Pricing: PricingConfig{
			CommissionPct: getFloatEnv("PLATFORM_COMMISSION_PCT", 15.0),
			Currency:      getEnv("PLATFORM_CURRENCY", "EGP"),
		},
		Travel: TravelConfig{
			AvgSpeedKmh:    getFloatEnv("TRAVEL_AVG_SPEED_KMH", 30.0),
			BufferPerKmMin: getFloatEnv("TRAVEL_BUFFER_PER_KM_MIN", 2.0),
			MaxBufferMin:   getFloatEnv("TRAVEL_MAX_BUFFER_MIN", 15.0),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
