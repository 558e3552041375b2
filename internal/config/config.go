// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/niolikon/taskboard/internal/auth"
	"github.com/niolikon/taskboard/internal/auth/keycloak"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Authentication modes.
const (
	AuthSystem   = "system"
	AuthKeycloak = "keycloak"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Storage: "postgres" or "memory"
	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	DatabaseURL   string `env:"DATABASE_URL"`
	DBMaxConns    int32  `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns    int32  `env:"DB_MIN_CONNS" envDefault:"2"`

	// Cache (Redis). Empty disables the principal cache and rate limiting.
	RedisURL      string `env:"REDIS_URL"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Authentication: "system" (self-issued JWTs) or "keycloak"
	AuthMode string         `env:"AUTH_MODE" envDefault:"system"`
	JWT      JWTConfig      `envPrefix:"JWT_"`
	Keycloak KeycloakConfig `envPrefix:"KEYCLOAK_"`

	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`

	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Comma-separated addresses or CIDRs of reverse proxies whose X-Forwarded-For
	// and X-Real-IP headers are trusted. Empty means the connection address is used.
	TrustedProxies string `env:"TRUSTED_PROXIES" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// JWTConfig configures self-issued tokens.
type JWTConfig struct {
	Secret    string        `env:"SECRET"`
	Issuer    string        `env:"ISSUER" envDefault:"taskboard"`
	Audience  string        `env:"AUDIENCE" envDefault:"taskboard-api"`
	Algorithm string        `env:"ALGORITHM" envDefault:"HS256"`
	TTL       time.Duration `env:"TTL" envDefault:"1h"`
}

// Options converts the settings for the auth package.
func (c JWTConfig) Options() auth.SystemOptions {
	return auth.SystemOptions{
		Secret:    c.Secret,
		Issuer:    c.Issuer,
		Audience:  c.Audience,
		Algorithm: c.Algorithm,
		TTL:       c.TTL,
	}
}

// KeycloakConfig configures the Keycloak realm and client.
type KeycloakConfig struct {
	RealmURI     string `env:"REALM_URI"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
}

// Options converts the settings for the keycloak package.
func (c KeycloakConfig) Options() keycloak.Config {
	return keycloak.Config{
		RealmURI:     c.RealmURI,
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
	}
}

// RateLimitConfig configures per-user rate limiting on the resource routes
// and per-IP limiting on the credential endpoints.
type RateLimitConfig struct {
	Enabled           bool `env:"ENABLED" envDefault:"true"`
	RequestsPerMinute int  `env:"RPM" envDefault:"120"`
	Burst             int  `env:"BURST" envDefault:"20"`
	AuthRPS           int  `env:"AUTH_RPS" envDefault:"5"`
	AuthBurst         int  `env:"AUTH_BURST" envDefault:"10"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))
	for _, origin := range origins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// GetTrustedProxies parses TrustedProxies. A bare address becomes a single-host prefix.
func (c *Config) GetTrustedProxies() ([]netip.Prefix, error) {
	var prefixes []netip.Prefix
	for _, entry := range strings.Split(c.TrustedProxies, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if strings.Contains(entry, "/") {
			prefix, err := netip.ParsePrefix(entry)
			if err != nil {
				return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", entry, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid TRUSTED_PROXIES entry %q: %w", entry, err)
		}
		prefixes = append(prefixes, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
	}
	return prefixes, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER=%s", StoragePostgres)
		}
		if c.DBMaxConns < 1 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("invalid pool size: min=%d max=%d", c.DBMinConns, c.DBMaxConns)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch c.AuthMode {
	case AuthSystem:
		if err := c.JWT.Options().Verified(); err != nil {
			return fmt.Errorf("JWT: %w", err)
		}
	case AuthKeycloak:
		if err := c.Keycloak.Options().Validate(); err != nil {
			return fmt.Errorf("KEYCLOAK: %w", err)
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}

	if _, err := c.GetTrustedProxies(); err != nil {
		return err
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.Burst < 1 {
			return fmt.Errorf("invalid rate limit: rpm=%d burst=%d", c.RateLimit.RequestsPerMinute, c.RateLimit.Burst)
		}
		if c.RateLimit.AuthRPS < 1 || c.RateLimit.AuthBurst < 1 {
			return fmt.Errorf("invalid auth rate limit: rps=%d burst=%d", c.RateLimit.AuthRPS, c.RateLimit.AuthBurst)
		}
	}

	return nil
}

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
