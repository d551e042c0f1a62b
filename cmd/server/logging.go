package main

import (
	"os"
	"time"

	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func setupLogger(c config.EnvConfig) {
	level, err := zerolog.ParseLevel(c.GetLogLevel())
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if c.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

const redacted = "[redacted]"

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return redacted
}

// logConfig dumps the effective configuration at debug level with secrets redacted.
func logConfig(c config.Config) {
	log.Debug().
		Str("env", c.GetEnv()).
		Str("port", c.GetPort()).
		Strs("allowed_redirects", c.GetAllowedOrigins()).
		Str("default_redirect", c.GetDefaultRedirect()).
		Str("cookie_domain", c.GetCookieDomain()).
		Str("identity_provider", c.GetIdentityProvider()).
		Str("github_client_id", c.GetGitHubClientID()).
		Str("github_client_secret", redact(c.GetGitHubClientSecret())).
		Str("oidc_issuer_url", c.GetOIDCIssuerURL()).
		Str("oidc_client_secret", redact(c.GetOIDCClientSecret())).
		Str("jwt_secret", redact(c.GetJWTSecret())).
		Str("database_driver", c.GetDatabaseDriver()).
		Str("database_url", redact(c.GetDatabaseURL())).
		Str("redis_url", redact(c.GetRedisURL())).
		Bool("revoke_all_on_replay", c.GetRevokeAllOnReplay()).
		Dur("refresh_purge_interval", c.GetRefreshPurgeInterval()).
		Str("otel_endpoint", c.GetOtelEndpoint()).
		Msg("configuration")
}
