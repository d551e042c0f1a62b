package config

import "time"

const (
	accessTokenExpiry  = 15 * time.Minute
	refreshTokenExpiry = 7 * 24 * time.Hour // 7 days
)

type Tokens struct {
	JWTSecret            string        `env:"JWT_SECRET,notEmpty"`
	RevokeAllOnReplay    bool          `env:"REFRESH_REPLAY_REVOKE_ALL" envDefault:"false"`
	RefreshPurgeInterval time.Duration `env:"REFRESH_PURGE_INTERVAL" envDefault:"1h"`
}

var _ TokenConfig = Tokens{}

func (t Tokens) GetJWTSecret() string {
	return t.JWTSecret
}

func (Tokens) GetAccessTokenExpiry() time.Duration {
	return accessTokenExpiry
}

func (Tokens) GetRefreshTokenExpiry() time.Duration {
	return refreshTokenExpiry
}

// GetRevokeAllOnReplay enables revoking every outstanding refresh token of a
// subject when one of its refresh tokens is replayed.
func (t Tokens) GetRevokeAllOnReplay() bool {
	return t.RevokeAllOnReplay
}

func (t Tokens) GetRefreshPurgeInterval() time.Duration {
	return t.RefreshPurgeInterval
}

type Cookies struct {
	Domain string `env:"COOKIE_DOMAIN"`
}

var _ CookieConfig = Cookies{}

// GetCookieDomain returns the shared cookie domain, empty for host-only cookies.
func (c Cookies) GetCookieDomain() string {
	return c.Domain
}
