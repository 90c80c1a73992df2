// Package config loads runtime settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Addr                 string        `mapstructure:"ADDR"`
	Env                  string        `mapstructure:"ENV"`
	Store                string        `mapstructure:"STORE"`
	DatabaseURL          string        `mapstructure:"DATABASE_URL"`
	RedisURL             string        `mapstructure:"REDIS_URL"`
	RiskCacheTTL         time.Duration `mapstructure:"RISK_CACHE_TTL"`
	JWTSecret            string        `mapstructure:"JWT_SECRET"`
	JWTExpirationMinutes int           `mapstructure:"JWT_EXPIRATION_MINUTES"`
	CORSOrigins          []string      `mapstructure:"CORS_ORIGINS"`
	LogLevel             string        `mapstructure:"LOG_LEVEL"`
	LogFormat            string        `mapstructure:"LOG_FORMAT"`
	FrontendURL          string        `mapstructure:"FRONTEND_URL"`

	GeminiAPIKey  string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel   string `mapstructure:"GEMINI_MODEL"`
	GeminiBaseURL string `mapstructure:"GEMINI_BASE_URL"`

	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `mapstructure:"GOOGLE_REDIRECT_URL"`
	FitnessBaseURL     string `mapstructure:"FITNESS_BASE_URL"`

	OIDCIssuer       string `mapstructure:"OIDC_ISSUER"`
	OIDCClientID     string `mapstructure:"OIDC_CLIENT_ID"`
	OIDCClientSecret string `mapstructure:"OIDC_CLIENT_SECRET"`
	OIDCRedirectURL  string `mapstructure:"OIDC_REDIRECT_URL"`
}

var keys = []string{
	"ADDR", "ENV", "STORE", "DATABASE_URL", "REDIS_URL", "RISK_CACHE_TTL",
	"JWT_SECRET", "JWT_EXPIRATION_MINUTES", "CORS_ORIGINS", "LOG_LEVEL", "LOG_FORMAT",
	"FRONTEND_URL", "GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_BASE_URL",
	"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_REDIRECT_URL", "FITNESS_BASE_URL",
	"OIDC_ISSUER", "OIDC_CLIENT_ID", "OIDC_CLIENT_SECRET", "OIDC_REDIRECT_URL",
}

// Load reads the environment, falling back to envFile when it exists.
func Load(envFile string) (*Config, error) {
	v := viper.New()
	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
	}
	v.AutomaticEnv()

	v.SetDefault("ADDR", ":8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORE", StorePostgres)
	v.SetDefault("RISK_CACHE_TTL", "60s")
	v.SetDefault("JWT_EXPIRATION_MINUTES", 1440)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("GEMINI_MODEL", "gemini-pro")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// a missing .env is fine
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks required settings.
func (c *Config) Validate() error {
	switch c.Store {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when STORE=postgres")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown STORE %q", c.Store)
	}
	if c.JWTSecret == "" && c.IsProduction() {
		return errors.New("JWT_SECRET is required in production")
	}
	if c.JWTExpirationMinutes <= 0 {
		return errors.New("JWT_EXPIRATION_MINUTES must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// TokenTTL is the access token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpirationMinutes) * time.Minute
}

// ChatEnabled reports whether a Gemini key is configured.
func (c *Config) ChatEnabled() bool { return c.GeminiAPIKey != "" }

// FitnessEnabled reports whether Google OAuth credentials are configured.
func (c *Config) FitnessEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// SSOEnabled reports whether an OIDC provider is configured.
func (c *Config) SSOEnabled() bool {
	return c.OIDCIssuer != "" && c.OIDCClientID != ""
}
