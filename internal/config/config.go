package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// json or console
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	DatabaseURL       string        `envconfig:"DATABASE_URL"`
	DBConnectAttempts int           `envconfig:"DB_CONNECT_ATTEMPTS" default:"5"`
	DBConnectDelay    time.Duration `envconfig:"DB_CONNECT_DELAY" default:"500ms"`

	// Empty disables the token blacklist and the cross-instance relay.
	RedisURL string `envconfig:"REDIS_URL"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	TokenTTL  time.Duration `envconfig:"TOKEN_TTL" default:"168h"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`

	RateLimitEnabled bool    `envconfig:"RATE_LIMIT_ENABLED" default:"false"`
	RateLimitRPS     float64 `envconfig:"RATE_LIMIT_RPS" default:"20"`
	RateLimitBurst   int     `envconfig:"RATE_LIMIT_BURST" default:"40"`

	S3Bucket    string        `envconfig:"S3_BUCKET"`
	S3Region    string        `envconfig:"S3_REGION" default:"us-east-1"`
	S3Endpoint  string        `envconfig:"S3_ENDPOINT"`
	S3AccessKey string        `envconfig:"AWS_ACCESS_KEY_ID"`
	S3SecretKey string        `envconfig:"AWS_SECRET_ACCESS_KEY"`
	S3UploadTTL time.Duration `envconfig:"S3_UPLOAD_TTL" default:"10m"`
}

// Load reads .env.local (or .env) if present, then decodes the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env.local"); err != nil {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate checks required fields.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("config: TOKEN_TTL must be > 0")
	}
	if c.DBConnectAttempts <= 0 {
		return errors.New("config: DB_CONNECT_ATTEMPTS must be > 0")
	}
	if c.RateLimitEnabled {
		if c.RateLimitRPS <= 0 {
			return errors.New("config: RATE_LIMIT_RPS must be > 0 when rate limiting is enabled")
		}
		if c.RateLimitBurst <= 0 {
			return errors.New("config: RATE_LIMIT_BURST must be > 0 when rate limiting is enabled")
		}
	}
	if c.S3Bucket != "" && (c.S3AccessKey == "" || c.S3SecretKey == "") {
		return errors.New("config: AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY are required when S3_BUCKET is set")
	}
	return nil
}

// StorageEnabled reports whether presigned uploads can be issued.
func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}

func (c *Config) Addr() string {
	return ":" + c.Port
}
