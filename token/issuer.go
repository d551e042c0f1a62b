package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/pkg/errors"
)

const (
	DefaultAccessTokenExpiry  = 15 * time.Minute
	DefaultRefreshTokenExpiry = 7 * 24 * time.Hour
)

// Issuer mints and verifies access/refresh credential pairs. It holds no
// mutable state and is safe for concurrent use.
type Issuer struct {
	signer             Signer
	issuer             string
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
	nowFunc            func() time.Time
}

type IssuerOption func(*Issuer)

func WithTokenExpiry(accessTokenExpiry, refreshTokenExpiry time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.accessTokenExpiry = accessTokenExpiry
		i.refreshTokenExpiry = refreshTokenExpiry
	}
}

func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

// WithIssuer sets the iss claim. Tokens are not checked against it on parse
// when it is empty.
func WithIssuer(issuer string) IssuerOption {
	return func(i *Issuer) {
		i.issuer = issuer
	}
}

func NewIssuer(signer Signer, options ...IssuerOption) *Issuer {
	i := &Issuer{signer: signer}
	for _, opt := range options {
		opt(i)
	}
	if i.accessTokenExpiry <= 0 {
		i.accessTokenExpiry = DefaultAccessTokenExpiry
	}
	if i.refreshTokenExpiry <= 0 {
		i.refreshTokenExpiry = DefaultRefreshTokenExpiry
	}
	if i.nowFunc == nil {
		i.nowFunc = time.Now
	}
	return i
}

// Issue mints a new access token and a refresh token with a fresh random jti.
func (i *Issuer) Issue(subject string) (*Pair, error) {
	const op = "token.Issue"

	if strings.TrimSpace(subject) == "" {
		return nil, autherrors.E(autherrors.KindSigningFailure, op, errors.New("empty subject"))
	}

	jti, err := uuid.NewRandom()
	if err != nil {
		return nil, autherrors.E(autherrors.KindSigningFailure, op, errors.Wrap(err, "uuid.NewRandom"))
	}

	now := i.nowFunc()
	accessExpiry := now.Add(i.accessTokenExpiry)
	refreshExpiry := now.Add(i.refreshTokenExpiry)

	accessToken, err := i.signer.Sign(AccessClaims{
		Use: UseAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpiry),
		},
	})
	if err != nil {
		return nil, autherrors.E(autherrors.KindSigningFailure, op, err)
	}

	refreshToken, err := i.signer.Sign(RefreshClaims{
		Use: UseRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   subject,
			ID:        jti.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExpiry),
		},
	})
	if err != nil {
		return nil, autherrors.E(autherrors.KindSigningFailure, op, err)
	}

	// The JWT exp claim has second precision; report what the token carries.
	return &Pair{
		Access: AccessCredential{
			Token:     accessToken,
			Subject:   subject,
			ExpiresAt: accessExpiry.Truncate(time.Second),
		},
		Refresh: RefreshCredential{
			Token:     refreshToken,
			Subject:   subject,
			ID:        jti.String(),
			ExpiresAt: refreshExpiry.Truncate(time.Second),
		},
	}, nil
}

// ParseAccess verifies the signature and expiry of an access token.
func (i *Issuer) ParseAccess(raw string) (*AccessClaims, error) {
	const op = "token.ParseAccess"

	claims := &AccessClaims{}
	if err := i.parse(raw, claims); err != nil {
		return nil, classify(op, err)
	}
	if claims.Use != UseAccess || claims.Subject == "" {
		return nil, autherrors.E(autherrors.KindMalformedToken, op, errors.New("not an access token"))
	}
	return claims, nil
}

// ParseRefresh verifies the signature and expiry of a refresh token. It does not
// consult the refresh store.
func (i *Issuer) ParseRefresh(raw string) (*RefreshClaims, error) {
	const op = "token.ParseRefresh"

	claims := &RefreshClaims{}
	if err := i.parse(raw, claims); err != nil {
		return nil, classify(op, err)
	}
	if err := checkRefreshClaims(claims); err != nil {
		return nil, autherrors.E(autherrors.KindMalformedToken, op, err)
	}
	return claims, nil
}

// RefreshID decodes the claims of a refresh token without checking its signature
// or expiry. A jti is unguessable, so knowing one already implies holding the token.
// It is meant for revocation on logout, never for rotation.
func (i *Issuer) RefreshID(raw string) (*RefreshClaims, error) {
	const op = "token.RefreshID"

	claims := &RefreshClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, autherrors.E(autherrors.KindMalformedToken, op, err)
	}
	if err := checkRefreshClaims(claims); err != nil {
		return nil, autherrors.E(autherrors.KindMalformedToken, op, err)
	}
	return claims, nil
}

func (i *Issuer) parse(raw string, claims jwt.Claims) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("empty token")
	}
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{i.signer.GetSigningMethod().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.nowFunc),
	}
	if i.issuer != "" {
		options = append(options, jwt.WithIssuer(i.issuer))
	}
	token, err := jwt.ParseWithClaims(raw, claims, i.signer.GetVerificationKey, options...)
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}

func checkRefreshClaims(claims *RefreshClaims) error {
	if claims.Use != UseRefresh {
		return errors.New("not a refresh token")
	}
	if claims.ID == "" || claims.Subject == "" {
		return errors.New("refresh token missing jti or sub claim")
	}
	return nil
}

func classify(op string, err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return autherrors.E(autherrors.KindExpiredToken, op, err)
	}
	return autherrors.E(autherrors.KindMalformedToken, op, err)
}
