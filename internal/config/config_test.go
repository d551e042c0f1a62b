package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, ":3000", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, config.ProviderGitHub, c.GetIdentityProvider())
	require.Equal(t, config.DriverSQLite, c.GetDatabaseDriver())
	require.Equal(t, 15*time.Minute, c.GetAccessTokenExpiry())
	require.Equal(t, 7*24*time.Hour, c.GetRefreshTokenExpiry())
	require.Equal(t, time.Hour, c.GetRefreshPurgeInterval())
	require.False(t, c.GetRevokeAllOnReplay())
	require.Empty(t, c.GetCookieDomain())
	require.Empty(t, c.GetAllowedOrigins())
}

func TestNewRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := config.New()
	require.Error(t, err)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_DRIVER", "mysql")

	_, err := config.New()
	require.ErrorContains(t, err, "mysql")
}

func TestNewReadsEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "8081")
	t.Setenv("ALLOWED_REDIRECTS", " https://app.example.com, ,https://admin.example.com ")
	t.Setenv("COOKIE_DOMAIN", ".example.com")
	t.Setenv("REFRESH_REPLAY_REVOKE_ALL", "true")
	t.Setenv("IDENTITY_PROVIDER", "oidc")
	t.Setenv("DATABASE_DRIVER", "memory")

	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, ":8081", c.GetPort())
	require.Equal(t, config.AllowedOrigins{"https://app.example.com", "https://admin.example.com"}, c.GetAllowedOrigins())
	require.Equal(t, ".example.com", c.GetCookieDomain())
	require.True(t, c.GetRevokeAllOnReplay())
	require.Equal(t, config.ProviderOIDC, c.GetIdentityProvider())
	require.Equal(t, config.DriverMemory, c.GetDatabaseDriver())
}

func TestAllowedOriginsIsAllowedRedirect(t *testing.T) {
	allowed := config.AllowedOrigins{"https://app.example.com", "http://localhost"}

	tests := []struct {
		target string
		want   bool
	}{
		{"https://app.example.com", true},
		{"https://app.example.com/dashboard?x=1", true},
		{"https://app.example.com:8443/", true},
		{"http://localhost:5173/callback", true},
		{"http://app.example.com", false},
		{"https://evil.example.com", false},
		{"https://app.example.com.evil.com", false},
		{"/relative/path", false},
		{"not a url", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			require.Equal(t, tt.want, allowed.IsAllowedRedirect(tt.target))
		})
	}
}
