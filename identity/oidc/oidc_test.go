package oidc_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-session-auth/identity/oidc"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	testIssuer   = "https://issuer.example.com"
	testClientID = "session-auth"
)

type testFixture struct {
	key      *rsa.PrivateKey
	idToken  string
	server   *httptest.Server
	provider *oidc.Provider
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	f := &testFixture{key: key}
	f.idToken = f.sign(t, jwt.MapClaims{
		"iss":                testIssuer,
		"aud":                testClientID,
		"sub":                "user-123",
		"preferred_username": "jdoe",
		"name":               "Jane Doe",
		"picture":            "https://img.example.com/jdoe.png",
		"iat":                time.Now().Unix(),
		"exp":                time.Now().Add(time.Hour).Unix(),
	})

	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     f.idToken,
		})
	}))
	t.Cleanup(f.server.Close)

	cfg := &oauth2.Config{
		ClientID:     testClientID,
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: f.server.URL + "/token", AuthStyle: oauth2.AuthStyleInParams},
	}
	keySet := &gooidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	f.provider = oidc.NewWithVerifier(cfg, gooidc.NewVerifier(testIssuer, keySet, &gooidc.Config{ClientID: testClientID}))
	return f
}

func (f *testFixture) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func TestExchangeAndFetchProfile(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	tok, err := f.provider.Exchange(ctx, "code")
	require.NoError(t, err)

	profile, err := f.provider.FetchProfile(ctx, tok)
	require.NoError(t, err)
	require.Equal(t, "user-123", profile.ID)
	require.Equal(t, "jdoe", profile.Username)
	require.Equal(t, "Jane Doe", profile.DisplayName)
	require.Equal(t, "https://img.example.com/jdoe.png", profile.AvatarURL)
}

func TestFetchProfileRejectsForeignAudience(t *testing.T) {
	f := setupTestFixture(t)
	f.idToken = f.sign(t, jwt.MapClaims{
		"iss": testIssuer,
		"aud": "someone-else",
		"sub": "user-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	tok, err := f.provider.Exchange(context.Background(), "code")
	require.NoError(t, err)

	_, err = f.provider.FetchProfile(context.Background(), tok)
	require.Equal(t, autherrors.KindUpstreamError, autherrors.KindOf(err))
}

func TestFetchProfileWithoutIDToken(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.provider.FetchProfile(context.Background(), &oauth2.Token{AccessToken: "at"})
	require.Equal(t, autherrors.KindUpstreamError, autherrors.KindOf(err))
}
