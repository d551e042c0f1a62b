// Package github logs users in with GitHub OAuth apps.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-session-auth/identity"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"golang.org/x/oauth2"
	githubendpoint "golang.org/x/oauth2/github"
)

const (
	ProviderName = "github"

	DefaultAPIBaseURL = "https://api.github.com"
)

var _ identity.Provider = (*Provider)(nil)

type Provider struct {
	oauth2Config *oauth2.Config
	apiBaseURL   string
	httpClient   *http.Client
}

type Option func(*Provider)

// WithEndpoint replaces the GitHub OAuth endpoint, e.g. for GitHub Enterprise.
func WithEndpoint(endpoint oauth2.Endpoint) Option {
	return func(p *Provider) {
		p.oauth2Config.Endpoint = endpoint
	}
}

func WithAPIBaseURL(baseURL string) Option {
	return func(p *Provider) {
		p.apiBaseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = client
	}
}

func New(clientID, clientSecret string, opts ...Option) *Provider {
	p := &Provider{
		oauth2Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     githubendpoint.Endpoint,
			Scopes:       []string{"read:user"},
		},
		apiBaseURL: DefaultAPIBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string {
	return ProviderName
}

func (p *Provider) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	return identity.ClassifyExchange(p.oauth2Config.Exchange(ctx, code)).Unwrap("github exchange")
}

type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// FetchProfile reads the authenticated user from the REST API.
func (p *Provider) FetchProfile(ctx context.Context, tok *oauth2.Token) (*identity.Profile, error) {
	const op = "github profile"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBaseURL+"/user", nil)
	if err != nil {
		return nil, autherrors.E(autherrors.KindUpstreamError, op, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "go-session-auth")

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	resp, err := p.oauth2Config.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, autherrors.E(autherrors.KindUpstreamError, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, autherrors.E(autherrors.KindUpstreamError, op, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var user githubUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, autherrors.E(autherrors.KindUpstreamError, op, fmt.Errorf("decode user: %w", err))
	}
	if user.ID == 0 || user.Login == "" {
		return nil, autherrors.E(autherrors.KindUpstreamError, op, fmt.Errorf("incomplete user %q", user.Login))
	}

	displayName := user.Name
	if displayName == "" {
		displayName = user.Login
	}
	return &identity.Profile{
		ID:          strconv.FormatInt(user.ID, 10),
		Username:    user.Login,
		DisplayName: displayName,
		AvatarURL:   user.AvatarURL,
	}, nil
}
