// Package oidc logs users in with any OpenID Connect issuer. The profile is read
// from the verified ID token returned by the code exchange.
package oidc

import (
	"context"
	"errors"
	"fmt"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-session-auth/identity"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"golang.org/x/oauth2"
)

const ProviderName = "oidc"

var _ identity.Provider = (*Provider)(nil)

type Provider struct {
	oauth2Config *oauth2.Config
	verifier     *gooidc.IDTokenVerifier
}

// New discovers the issuer's endpoints and signing keys.
func New(ctx context.Context, issuerURL, clientID, clientSecret, redirectURL string) (*Provider, error) {
	provider, err := gooidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("[oidc New] failed to create OIDC provider: %w", err)
	}

	cfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  redirectURL,
		Scopes:       []string{gooidc.ScopeOpenID, "profile"},
	}
	return NewWithVerifier(cfg, provider.Verifier(&gooidc.Config{ClientID: clientID})), nil
}

// NewWithVerifier builds a provider from an already configured client and verifier.
func NewWithVerifier(cfg *oauth2.Config, verifier *gooidc.IDTokenVerifier) *Provider {
	return &Provider{oauth2Config: cfg, verifier: verifier}
}

func (p *Provider) Name() string {
	return ProviderName
}

func (p *Provider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	result := identity.ClassifyExchange(p.oauth2Config.Exchange(ctx, code))
	if result.Outcome == identity.OutcomeToken {
		if _, ok := result.Token.Extra("id_token").(string); !ok {
			result = identity.ExchangeResult{
				Outcome:   identity.OutcomeDecodeFailure,
				DecodeErr: errors.New("response missing id_token"),
			}
		}
	}
	return result.Unwrap("oidc exchange")
}

type idTokenClaims struct {
	Subject           string `json:"sub"`
	PreferredUsername string `json:"preferred_username"`
	Name              string `json:"name"`
	Picture           string `json:"picture"`
}

func (p *Provider) FetchProfile(ctx context.Context, tok *oauth2.Token) (*identity.Profile, error) {
	const op = "oidc profile"

	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok {
		return nil, autherrors.E(autherrors.KindUpstreamError, op, errors.New("no id_token in token response"))
	}
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, autherrors.E(autherrors.KindUpstreamError, op, err)
	}

	var claims idTokenClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, autherrors.E(autherrors.KindUpstreamError, op, err)
	}

	username := claims.PreferredUsername
	if username == "" {
		username = claims.Subject
	}
	displayName := claims.Name
	if displayName == "" {
		displayName = username
	}
	return &identity.Profile{
		ID:          claims.Subject,
		Username:    username,
		DisplayName: displayName,
		AvatarURL:   claims.Picture,
	}, nil
}
