package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/streamhub")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5, cfg.DBConnectAttempts)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, 10*time.Minute, cfg.S3UploadTTL)
	assert.False(t, cfg.RateLimitEnabled)
	assert.False(t, cfg.StorageEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_RPS", "5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.RateLimitEnabled)
	assert.Equal(t, 5.0, cfg.RateLimitRPS)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{
			DatabaseURL:       "postgres://localhost/streamhub",
			JWTSecret:         "secret",
			TokenTTL:          time.Hour,
			DBConnectAttempts: 1,
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing database url", func(c *Config) { c.DatabaseURL = "" }},
		{"missing jwt secret", func(c *Config) { c.JWTSecret = "" }},
		{"non-positive token ttl", func(c *Config) { c.TokenTTL = 0 }},
		{"no connect attempts", func(c *Config) { c.DBConnectAttempts = 0 }},
		{"rate limit without rps", func(c *Config) { c.RateLimitEnabled = true; c.RateLimitBurst = 1 }},
		{"bucket without credentials", func(c *Config) { c.S3Bucket = "videos" }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
