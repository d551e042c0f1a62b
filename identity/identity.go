// Package identity describes the third-party identity provider a user logs in with.
// The provider turns a one-time authorization code into a provider access token and
// that token into a stable account profile.
package identity

import (
	"context"
	"errors"
	"fmt"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"golang.org/x/oauth2"
)

// Profile is the subset of the provider account the service keeps.
type Profile struct {
	ID          string
	Username    string
	DisplayName string
	AvatarURL   string
}

// Provider exchanges authorization codes and fetches account profiles.
type Provider interface {
	Name() string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	FetchProfile(ctx context.Context, tok *oauth2.Token) (*Profile, error)
}

// ProviderError is the structured error body returned by the provider's token endpoint.
type ProviderError struct {
	Code        string
	Description string
	URI         string
}

func (e *ProviderError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("provider error %q", e.Code)
	}
	return fmt.Sprintf("provider error %q: %s", e.Code, e.Description)
}

// Outcome tags an ExchangeResult.
type Outcome int

const (
	OutcomeToken Outcome = iota
	OutcomeProviderError
	OutcomeDecodeFailure
)

// ExchangeResult is the outcome of a code exchange: a token, a structured provider
// error, or a response that could not be understood.
type ExchangeResult struct {
	Outcome       Outcome
	Token         *oauth2.Token
	ProviderError *ProviderError
	DecodeErr     error
}

// ClassifyExchange sorts the result of oauth2.Config.Exchange into an ExchangeResult.
func ClassifyExchange(tok *oauth2.Token, err error) ExchangeResult {
	if err == nil {
		if tok == nil || tok.AccessToken == "" {
			return ExchangeResult{Outcome: OutcomeDecodeFailure, DecodeErr: errors.New("response missing access_token")}
		}
		return ExchangeResult{Outcome: OutcomeToken, Token: tok}
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode != "" {
		return ExchangeResult{
			Outcome: OutcomeProviderError,
			ProviderError: &ProviderError{
				Code:        retrieveErr.ErrorCode,
				Description: retrieveErr.ErrorDescription,
				URI:         retrieveErr.ErrorURI,
			},
		}
	}
	return ExchangeResult{Outcome: OutcomeDecodeFailure, DecodeErr: err}
}

// Unwrap returns the token, or the classified upstream error for op.
func (r ExchangeResult) Unwrap(op string) (*oauth2.Token, error) {
	switch r.Outcome {
	case OutcomeToken:
		return r.Token, nil
	case OutcomeProviderError:
		return nil, autherrors.E(autherrors.KindUpstreamError, op, r.ProviderError)
	}
	return nil, autherrors.E(autherrors.KindUpstreamError, op, r.DecodeErr)
}
