package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	CookieConfig
	ProviderConfig
	StorageConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetOtelEndpoint() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type TokenConfig interface {
	GetJWTSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRevokeAllOnReplay() bool
	GetRefreshPurgeInterval() time.Duration
}

type CookieConfig interface {
	GetCookieDomain() string
}

type ProviderConfig interface {
	GetIdentityProvider() string
	GetGitHubClientID() string
	GetGitHubClientSecret() string
	GetOIDCIssuerURL() string
	GetOIDCClientID() string
	GetOIDCClientSecret() string
	GetOIDCRedirectURL() string
	GetDefaultRedirect() string
}

type StorageConfig interface {
	GetDatabaseDriver() string
	GetDatabaseURL() string
	GetRedisURL() string
}

type mainConfig struct {
	EnvVars
	Cors
	Tokens
	Cookies
	Provider
	Storage
}

// New reads the configuration from the environment.
func New() (Config, error) {
	var c mainConfig
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("[config New] parse env: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("[config New] %w", err)
	}
	return c, nil
}

func (c mainConfig) validate() error {
	switch c.GetIdentityProvider() {
	case ProviderGitHub, ProviderOIDC:
	default:
		return fmt.Errorf("unsupported identity provider %q", c.GetIdentityProvider())
	}
	switch c.GetDatabaseDriver() {
	case DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unsupported database driver %q", c.GetDatabaseDriver())
	}
	return nil
}
