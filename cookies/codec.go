// Package cookies encodes credential pairs as secure cookies and reads them back.
package cookies

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-session-auth/token"
)

const (
	AccessCookieName  = "__Secure-access_token"
	RefreshCookieName = "__Secure-refresh_token"

	AccessCookiePath = "/"
	// RefreshCookiePath limits the refresh cookie to the rotation endpoint.
	RefreshCookiePath = "/api/v1/auth/refresh"
)

// Codec builds the cookie pair for a credential pair. The zero value has no domain.
type Codec struct {
	domain string
}

func NewCodec(domain string) *Codec {
	return &Codec{domain: domain}
}

// Encode returns the access and refresh cookies, each expiring with its credential.
func (c *Codec) Encode(pair *token.Pair) (access, refresh *http.Cookie) {
	access = c.cookie(AccessCookieName, AccessCookiePath, pair.Access.Token, pair.Access.ExpiresAt)
	refresh = c.cookie(RefreshCookieName, RefreshCookiePath, pair.Refresh.Token, pair.Refresh.ExpiresAt)
	return access, refresh
}

// Clear returns removal cookies matching Encode's attributes so browsers overwrite
// the originals.
func (c *Codec) Clear() (access, refresh *http.Cookie) {
	epoch := time.Unix(0, 0).UTC()
	access = c.cookie(AccessCookieName, AccessCookiePath, "", epoch)
	refresh = c.cookie(RefreshCookieName, RefreshCookiePath, "", epoch)
	return access, refresh
}

// Write sets both cookies on the response.
func Write(w http.ResponseWriter, access, refresh *http.Cookie) {
	http.SetCookie(w, access)
	http.SetCookie(w, refresh)
}

func (c *Codec) cookie(name, path, value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   c.domain,
		Expires:  expires.UTC(),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteNoneMode,
	}
}

// Decode extracts the named cookie value from a raw Cookie header. The second result
// is false when the cookie is absent or empty.
func Decode(cookieHeader, name string) (string, bool) {
	if cookieHeader == "" {
		return "", false
	}
	r := &http.Request{Header: http.Header{"Cookie": {cookieHeader}}}
	return FromRequest(r, name)
}

// FromRequest returns the named cookie value carried by r.
func FromRequest(r *http.Request, name string) (string, bool) {
	cookie, err := r.Cookie(name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
