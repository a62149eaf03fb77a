// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisURL is the Redis connection URL for the refresh token store
	// (e.g. redis://localhost:6379/0).
	RedisURL string `mapstructure:"REDIS_URL"`
	// JWTSecretKey is the HMAC signing key for access tokens. Required by
	// the server; the migrate and seed commands only need DATABASE_URL.
	JWTSecretKey string `mapstructure:"JWT_SECRET_KEY"`
	// SnowflakeMachineID identifies this instance for id generation (0-1023).
	SnowflakeMachineID int64 `mapstructure:"SNOWFLAKE_MACHINE_ID"`
	// KakaoClientID is the Kakao OAuth application client id.
	KakaoClientID string `mapstructure:"KAKAO_CLIENT_ID"`
	// KakaoClientSecret is the optional Kakao OAuth client secret.
	KakaoClientSecret string `mapstructure:"KAKAO_CLIENT_SECRET"`
	// KakaoRedirectURL is the redirect URI registered with the Kakao app.
	KakaoRedirectURL string `mapstructure:"KAKAO_REDIRECT_URL"`
	// OTLPEndpoint is the OTLP gRPC endpoint for trace export; tracing is
	// disabled when empty.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("JWT_SECRET_KEY", "")
	v.SetDefault("SNOWFLAKE_MACHINE_ID", 0)
	v.SetDefault("KAKAO_CLIENT_ID", "")
	v.SetDefault("KAKAO_CLIENT_SECRET", "")
	v.SetDefault("KAKAO_REDIRECT_URL", "")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.SnowflakeMachineID < 0 || cfg.SnowflakeMachineID > 1023 {
		return nil, errors.New("config: SNOWFLAKE_MACHINE_ID must be between 0 and 1023")
	}

	return &cfg, nil
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
