package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Use distinguishes access tokens from refresh tokens signed with the same secret.
type Use string

const (
	UseAccess  Use = "access"
	UseRefresh Use = "refresh"
)

// AccessClaims are the claims of a short-lived access token.
type AccessClaims struct {
	Use Use `json:"token_use"`
	jwt.RegisteredClaims
}

// RefreshClaims are the claims of a single-use refresh token. The jti claim
// keys the persisted refresh record.
type RefreshClaims struct {
	Use Use `json:"token_use"`
	jwt.RegisteredClaims
}

// AccessCredential is a signed access token. It is never persisted.
type AccessCredential struct {
	Token     string
	Subject   string
	ExpiresAt time.Time
}

// RefreshCredential is a signed refresh token together with its unique ID.
type RefreshCredential struct {
	Token     string
	Subject   string
	ID        string
	ExpiresAt time.Time
}

// Pair is the credential pair minted on login and on every rotation.
type Pair struct {
	Access  AccessCredential
	Refresh RefreshCredential
}
