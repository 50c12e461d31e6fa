package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/christianpasc/auraclubmanager/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Sweep         SweepConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL         string
	MaxConns    int
	MinConns    int
	Timeout     time.Duration
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// RedisConfig holds the access cache configuration. Redis is optional;
// leave the URL empty to resolve permissions against PostgreSQL directly.
type RedisConfig struct {
	URL      string
	Password string
	DB       int
	CacheTTL time.Duration
}

// SweepConfig controls the scheduled overdue sweep
type SweepConfig struct {
	Enabled  bool
	Schedule string // cron expression
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("AURACLUB_HOST", "0.0.0.0"),
			Port:            getEnv("AURACLUB_PORT", "8080"),
			ReadTimeout:     getEnvDuration("AURACLUB_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("AURACLUB_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("AURACLUB_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("AURACLUB_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("AURACLUB_HEALTH_PORT", "9090"),
		},
		Database: DatabaseConfig{
			URL:         getEnv("AURACLUB_POSTGRES_URL", ""),
			MaxConns:    getEnvInt("AURACLUB_POSTGRES_MAX_CONNS", 25),
			MinConns:    getEnvInt("AURACLUB_POSTGRES_MIN_CONNS", 5),
			Timeout:     getEnvDuration("AURACLUB_POSTGRES_TIMEOUT", 10*time.Second),
			MaxLifetime: getEnvDuration("AURACLUB_POSTGRES_MAX_LIFETIME", 30*time.Minute),
			MaxIdleTime: getEnvDuration("AURACLUB_POSTGRES_MAX_IDLE_TIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:      getEnv("AURACLUB_REDIS_URL", ""),
			Password: getEnv("AURACLUB_REDIS_PASSWORD", ""),
			DB:       getEnvInt("AURACLUB_REDIS_DB", 0),
			CacheTTL: getEnvDuration("AURACLUB_ACCESS_CACHE_TTL", 5*time.Minute),
		},
		Sweep: SweepConfig{
			Enabled:  getEnvBool("AURACLUB_SWEEP_ENABLED", true),
			Schedule: getEnv("AURACLUB_SWEEP_SCHEDULE", "0 2 * * *"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       observability.ParseLevel(getEnv("AURACLUB_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("AURACLUB_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("postgres max connections must be at least min connections")
	}

	if c.Redis.URL != "" && c.Redis.CacheTTL <= 0 {
		return fmt.Errorf("access cache TTL must be positive when redis is configured")
	}

	if c.Sweep.Enabled && c.Sweep.Schedule == "" {
		return fmt.Errorf("sweep schedule is required when the sweep is enabled")
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
