package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	NewRelic  NewRelicConfig
	Allocator AllocatorConfig
	Sweep     SweepConfig
	Ticket    TicketConfig
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

// AllocatorConfig holds the scheduling buffers used by vehicle allocation.
type AllocatorConfig struct {
	// Turnaround is the minimum dwell time a vehicle needs at a locality
	// between arriving and departing again.
	Turnaround time.Duration

	// SameLocationGap is the minimum gap before the vehicle's next
	// scheduled trip when that trip departs from the new trip's
	// destination.
	SameLocationGap time.Duration

	// RepositionGap is the minimum gap before the vehicle's next
	// scheduled trip when that trip departs from a different locality.
	RepositionGap time.Duration
}

// SweepConfig holds background sweep configuration.
type SweepConfig struct {
	Interval  time.Duration
	BatchSize int
}

// TicketConfig holds seat inventory configuration.
type TicketConfig struct {
	HoldTTL time.Duration
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
			DBName:   getEnv("DB_NAME", "fleet"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "fleet-service"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Allocator: AllocatorConfig{
			Turnaround:      getDurationEnv("ALLOCATOR_TURNAROUND", 30*time.Minute),
			SameLocationGap: getDurationEnv("ALLOCATOR_SAME_LOCATION_GAP", 2*time.Hour),
			RepositionGap:   getDurationEnv("ALLOCATOR_REPOSITION_GAP", 12*time.Hour),
		},
		Sweep: SweepConfig{
			Interval:  getDurationEnv("SWEEP_INTERVAL", time.Minute),
			BatchSize: getIntEnv("SWEEP_BATCH_SIZE", 500),
		},
		Ticket: TicketConfig{
			HoldTTL: getDurationEnv("TICKET_HOLD_TTL", 15*time.Minute),
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

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
