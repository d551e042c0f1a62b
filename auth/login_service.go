// Package auth runs the login flow: a provider authorization code is exchanged for
// the user's profile, the user is upserted, and a fresh credential pair is minted.
package auth

import (
	"context"
	"strings"

	"github.com/jrsteele09/go-session-auth/identity"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/rotation"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/jrsteele09/go-session-auth/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jrsteele09/go-session-auth/auth"

// RedirectPolicy decides whether the client may be sent to a target URL after login.
type RedirectPolicy interface {
	IsAllowedRedirect(target string) bool
}

type LoginRequest struct {
	Code       string `json:"code"`
	RedirectTo string `json:"redirect_to,omitempty"`
}

type LoginResult struct {
	Pair       *token.Pair
	User       *users.User
	RedirectTo string
}

// LoginService provides the provider login flow.
type LoginService struct {
	provider        identity.Provider
	users           users.Directory
	minter          *rotation.Validator
	redirects       RedirectPolicy
	defaultRedirect string
	logger          zerolog.Logger
	tracer          trace.Tracer
}

type LoginServiceOption func(*LoginService)

// WithDefaultRedirect sets the target used when a login request names none.
func WithDefaultRedirect(target string) LoginServiceOption {
	return func(ls *LoginService) {
		ls.defaultRedirect = target
	}
}

func WithLogger(logger zerolog.Logger) LoginServiceOption {
	return func(ls *LoginService) {
		ls.logger = logger
	}
}

func NewLoginService(provider identity.Provider, directory users.Directory, minter *rotation.Validator, redirects RedirectPolicy, opts ...LoginServiceOption) *LoginService {
	ls := &LoginService{
		provider:  provider,
		users:     directory,
		minter:    minter,
		redirects: redirects,
		logger:    log.Logger,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(ls)
	}
	return ls
}

func (ls *LoginService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	const op = "auth.Login"

	ctx, span := ls.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("auth.provider", ls.provider.Name())))
	defer span.End()

	result, err := ls.login(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, autherrors.KindOf(err).String())
		return nil, err
	}
	span.SetAttributes(attribute.String("auth.subject", result.User.ID))
	return result, nil
}

func (ls *LoginService) login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	const op = "auth.Login"

	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, autherrors.E(autherrors.KindInvalidRequest, op, autherrors.Wrapf(autherrors.ErrInvalidRequest, "missing code"))
	}

	redirectTo := strings.TrimSpace(req.RedirectTo)
	if redirectTo == "" {
		redirectTo = ls.defaultRedirect
	}
	if redirectTo != "" && !ls.redirects.IsAllowedRedirect(redirectTo) {
		ls.logger.Warn().Str("redirect_to", redirectTo).Msg("login redirect rejected")
		return nil, autherrors.E(autherrors.KindInvalidRequest, op, autherrors.ErrRedirectNotAllowed)
	}

	providerToken, err := ls.provider.Exchange(ctx, code)
	if err != nil {
		ls.logExchangeError(err)
		return nil, err
	}

	profile, err := ls.provider.FetchProfile(ctx, providerToken)
	if err != nil {
		ls.logger.Err(err).Str("provider", ls.provider.Name()).Msg("fetch profile failed")
		return nil, err
	}

	user := &users.User{
		ID:          profile.ID,
		Username:    profile.Username,
		DisplayName: profile.DisplayName,
		AvatarURL:   profile.AvatarURL,
	}
	if err := ls.users.Upsert(ctx, user); err != nil {
		ls.logger.Err(err).Str("user_id", user.ID).Msg("user upsert failed")
		return nil, err
	}

	pair, err := ls.minter.Mint(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	ls.logger.Info().Str("user_id", user.ID).Str("provider", ls.provider.Name()).Msg("user logged in")
	return &LoginResult{Pair: pair, User: user, RedirectTo: redirectTo}, nil
}

func (ls *LoginService) logExchangeError(err error) {
	event := ls.logger.Warn().Err(err).Str("provider", ls.provider.Name())
	var perr *identity.ProviderError
	if autherrors.As(err, &perr) {
		event = event.Str("error_code", perr.Code).Str("error_description", perr.Description).Str("error_uri", perr.URI)
	}
	event.Msg("code exchange failed")
}
