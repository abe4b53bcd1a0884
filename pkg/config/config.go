package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Config holds all application configuration.
type Config struct {
	// Registry configuration (control database)
	Registry RegistryConfig

	// Pool configuration (per-tenant connection pools)
	Pool PoolConfig

	// RBAC configuration
	RBAC RBACConfig

	// Resolver configuration
	Resolver ResolverConfig

	// Logging
	LogLevel logrus.Level
}

// RegistryConfig holds control-database settings.
type RegistryConfig struct {
	// PostgresURL reaches the shared control database holding tenant
	// metadata, the identity directory, and persisted custom roles.
	PostgresURL string
}

// PoolConfig holds per-tenant connection pool settings.
type PoolConfig struct {
	PoolSize        int
	MaxOverflow     int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// JanitorSpec is the cron schedule for the liveness sweep; empty
	// disables the sweep.
	JanitorSpec  string
	ProbeTimeout time.Duration
}

// RBACConfig holds permission engine settings.
type RBACConfig struct {
	// RoleFile is an optional YAML file of operator-managed custom roles,
	// hot-reloaded on change.
	RoleFile string

	// PersistCustomRoles stores runtime-registered custom roles in the
	// control database so they survive restarts.
	PersistCustomRoles bool

	// RedisURL enables the cross-process permission cache when set.
	RedisURL string
	CacheTTL time.Duration
}

// ResolverConfig holds identity resolution settings.
type ResolverConfig struct {
	// Mode selects the resolver implementation: "scan" or "directory".
	Mode string

	// CacheSize bounds the scan resolver's identity memo cache.
	CacheSize int
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Registry: RegistryConfig{
			PostgresURL: getEnv("QUILL_REGISTRY_URL", ""),
		},
		Pool: PoolConfig{
			PoolSize:        getEnvInt("QUILL_POOL_SIZE", 5),
			MaxOverflow:     getEnvInt("QUILL_POOL_MAX_OVERFLOW", 10),
			ConnMaxLifetime: getEnvDuration("QUILL_POOL_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: getEnvDuration("QUILL_POOL_CONN_MAX_IDLE_TIME", 10*time.Minute),
			JanitorSpec:     getEnv("QUILL_POOL_JANITOR_SPEC", "@every 1m"),
			ProbeTimeout:    getEnvDuration("QUILL_POOL_PROBE_TIMEOUT", 5*time.Second),
		},
		RBAC: RBACConfig{
			RoleFile:           getEnv("QUILL_RBAC_ROLE_FILE", ""),
			PersistCustomRoles: getEnvBool("QUILL_RBAC_PERSIST_CUSTOM_ROLES", false),
			RedisURL:           getEnv("QUILL_RBAC_REDIS_URL", ""),
			CacheTTL:           getEnvDuration("QUILL_RBAC_CACHE_TTL", 5*time.Minute),
		},
		Resolver: ResolverConfig{
			Mode:      getEnv("QUILL_RESOLVER_MODE", "scan"),
			CacheSize: getEnvInt("QUILL_RESOLVER_CACHE_SIZE", 1024),
		},
		LogLevel: parseLogLevel(getEnv("QUILL_LOG_LEVEL", "info")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Registry.PostgresURL == "" {
		return fmt.Errorf("QUILL_REGISTRY_URL is required")
	}
	if c.Pool.PoolSize <= 0 {
		return fmt.Errorf("pool size must be positive")
	}
	if c.Pool.MaxOverflow < 0 {
		return fmt.Errorf("pool overflow must be non-negative")
	}
	switch c.Resolver.Mode {
	case "scan", "directory":
	default:
		return fmt.Errorf("invalid resolver mode: %s (must be scan or directory)", c.Resolver.Mode)
	}
	if c.RBAC.RedisURL != "" && c.RBAC.CacheTTL <= 0 {
		return fmt.Errorf("RBAC cache TTL must be positive when the Redis cache is enabled")
	}
	return nil
}

// parseLogLevel parses a log level string, defaulting to info.
func parseLogLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

// getEnv returns an environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
