package config

const (
	ProviderGitHub = "github"
	ProviderOIDC   = "oidc"
)

type Provider struct {
	Name               string `env:"IDENTITY_PROVIDER" envDefault:"github"`
	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	OIDCIssuerURL      string `env:"OIDC_ISSUER_URL"`
	OIDCClientID       string `env:"OIDC_CLIENT_ID"`
	OIDCClientSecret   string `env:"OIDC_CLIENT_SECRET"`
	OIDCRedirectURL    string `env:"OIDC_REDIRECT_URL"`
	DefaultRedirect    string `env:"DEFAULT_REDIRECT_TO"`
}

var _ ProviderConfig = Provider{}

func (p Provider) GetIdentityProvider() string {
	return p.Name
}

func (p Provider) GetGitHubClientID() string {
	return p.GitHubClientID
}

func (p Provider) GetGitHubClientSecret() string {
	return p.GitHubClientSecret
}

func (p Provider) GetOIDCIssuerURL() string {
	return p.OIDCIssuerURL
}

func (p Provider) GetOIDCClientID() string {
	return p.OIDCClientID
}

func (p Provider) GetOIDCClientSecret() string {
	return p.OIDCClientSecret
}

func (p Provider) GetOIDCRedirectURL() string {
	return p.OIDCRedirectURL
}

// GetDefaultRedirect is the redirect target used when a login request names none.
func (p Provider) GetDefaultRedirect() string {
	return p.DefaultRedirect
}
