package config

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("QUILL_REGISTRY_URL", "postgres://localhost:5432/quill")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Pool.PoolSize)
	assert.Equal(t, 10, cfg.Pool.MaxOverflow)
	assert.Equal(t, "@every 1m", cfg.Pool.JanitorSpec)
	assert.Equal(t, "scan", cfg.Resolver.Mode)
	assert.Equal(t, 1024, cfg.Resolver.CacheSize)
	assert.False(t, cfg.RBAC.PersistCustomRoles)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("QUILL_REGISTRY_URL", "postgres://localhost:5432/quill")
	t.Setenv("QUILL_POOL_SIZE", "8")
	t.Setenv("QUILL_POOL_CONN_MAX_LIFETIME", "30m")
	t.Setenv("QUILL_RESOLVER_MODE", "directory")
	t.Setenv("QUILL_RBAC_PERSIST_CUSTOM_ROLES", "true")
	t.Setenv("QUILL_LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Pool.PoolSize)
	assert.Equal(t, 30*time.Minute, cfg.Pool.ConnMaxLifetime)
	assert.Equal(t, "directory", cfg.Resolver.Mode)
	assert.True(t, cfg.RBAC.PersistCustomRoles)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)
}

func TestLoadConfig_MissingRegistryURL(t *testing.T) {
	t.Setenv("QUILL_REGISTRY_URL", "")
	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "bad resolver mode",
			mutate:  func(c *Config) { c.Resolver.Mode = "broadcast" },
			wantErr: "resolver mode",
		},
		{
			name:    "zero pool size",
			mutate:  func(c *Config) { c.Pool.PoolSize = 0 },
			wantErr: "pool size",
		},
		{
			name: "redis cache without TTL",
			mutate: func(c *Config) {
				c.RBAC.RedisURL = "redis://localhost:6379"
				c.RBAC.CacheTTL = 0
			},
			wantErr: "cache TTL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Registry: RegistryConfig{PostgresURL: "postgres://localhost:5432/quill"},
				Pool:     PoolConfig{PoolSize: 5},
				Resolver: ResolverConfig{Mode: "scan"},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.WarnLevel, parseLogLevel("warning"))
	assert.Equal(t, logrus.ErrorLevel, parseLogLevel("ERROR"))
	assert.Equal(t, logrus.InfoLevel, parseLogLevel("nonsense"))
}
