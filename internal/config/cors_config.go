package config

import (
	"net/url"
	"strings"
)

type Cors struct {
	AllowedRedirects []string `env:"ALLOWED_REDIRECTS" envSeparator:","`
}

var _ CorsConfig = Cors{}

// AllowedOrigins is the ordered allow-list of origins ("scheme://host") that may
// receive credentialed CORS responses and login redirects.
type AllowedOrigins []string

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	for _, allowed := range a {
		if allowed == origin {
			return true
		}
	}
	return false
}

// IsAllowedRedirect reports whether target's scheme://host exactly matches an
// allowed origin. The port and path of target are ignored.
func (a AllowedOrigins) IsAllowedRedirect(target string) bool {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return false
	}
	return a.IsAllowedOrigin(u.Scheme + "://" + u.Hostname())
}

func (a AllowedOrigins) String() string {
	return strings.Join(a, ", ")
}

func (c Cors) GetAllowedOrigins() AllowedOrigins {
	return AllowedOrigins(trimCSV(c.AllowedRedirects))
}

func (Cors) GetAllowedMethods() string {
	return "GET, POST"
}

func (Cors) GetAllowedHeaders() string {
	return "Accept, Content-Type"
}

// trimCSV removes empty entries from a string slice.
func trimCSV(values []string) []string {
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			result = append(result, v)
		}
	}
	return result
}
