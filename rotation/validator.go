// Package rotation implements the refresh protocol: a refresh token is exchanged
// exactly once for a new credential pair, and a second presentation of the same
// token is reported as a replay.
package rotation

import (
	"context"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/jrsteele09/go-session-auth/token/refresh"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jrsteele09/go-session-auth/rotation"

// EventReplay tags the log line written when a consumed or unknown refresh token
// is presented, so it can be alerted on apart from ordinary expiry.
const EventReplay = "refresh_replay"

// Validator mints, rotates and revokes credential pairs against a refresh Store.
type Validator struct {
	issuer  *token.Issuer
	store   refresh.Store
	logger  zerolog.Logger
	tracer  trace.Tracer
	cascade bool
}

type Option func(*Validator)

// WithCascadeRevocation makes a detected replay also revoke every other live
// refresh record of the same subject.
func WithCascadeRevocation(enabled bool) Option {
	return func(v *Validator) {
		v.cascade = enabled
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(v *Validator) {
		v.tracer = tracer
	}
}

func NewValidator(issuer *token.Issuer, store refresh.Store, opts ...Option) *Validator {
	v := &Validator{
		issuer: issuer,
		store:  store,
		logger: log.Logger,
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Mint issues a new pair for subject and persists its refresh record. Used on login.
func (v *Validator) Mint(ctx context.Context, subject string) (*token.Pair, error) {
	ctx, span := v.tracer.Start(ctx, "rotation.Mint")
	defer span.End()

	pair, err := v.mint(ctx, subject)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return pair, nil
}

// Rotate exchanges a presented refresh token for a new pair.
//
// The token is verified first, so malformed and expired tokens are rejected without
// touching the store. A verified token is then consumed; if no live record existed
// the token was already used (or never persisted) and the call fails with
// KindReplayedToken. Only after a successful consume is a new pair issued and its
// record persisted.
func (v *Validator) Rotate(ctx context.Context, raw string) (*token.Pair, error) {
	const op = "rotation.Rotate"

	ctx, span := v.tracer.Start(ctx, op)
	defer span.End()

	if raw == "" {
		err := autherrors.E(autherrors.KindMissingCredential, op, nil)
		recordError(span, err)
		return nil, err
	}

	claims, err := v.issuer.ParseRefresh(raw)
	if err != nil {
		v.logger.Debug().Err(err).Str("kind", autherrors.KindOf(err).String()).Msg("refresh token rejected")
		recordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("auth.subject", claims.Subject))

	consumed, err := v.store.Consume(ctx, claims.ID)
	if err != nil {
		v.logger.Err(err).Str("jti", claims.ID).Msg("refresh consume failed")
		recordError(span, err)
		return nil, err
	}
	if !consumed {
		err := autherrors.E(autherrors.KindReplayedToken, op, nil)
		v.onReplay(ctx, claims)
		recordError(span, err)
		return nil, err
	}

	pair, err := v.mint(ctx, claims.Subject)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	return pair, nil
}

// Revoke consumes the record behind a refresh token on logout. It never fails: an
// undecodable or already consumed token leaves nothing to revoke. Signature and
// expiry are not checked, so a stale token still has its record removed.
func (v *Validator) Revoke(ctx context.Context, raw string) {
	ctx, span := v.tracer.Start(ctx, "rotation.Revoke")
	defer span.End()

	if raw == "" {
		return
	}
	claims, err := v.issuer.RefreshID(raw)
	if err != nil {
		v.logger.Debug().Err(err).Msg("logout with unusable refresh token")
		return
	}
	if _, err := v.store.Consume(ctx, claims.ID); err != nil {
		v.logger.Err(err).Str("jti", claims.ID).Msg("logout consume failed")
		recordError(span, err)
	}
}

func (v *Validator) mint(ctx context.Context, subject string) (*token.Pair, error) {
	pair, err := v.issuer.Issue(subject)
	if err != nil {
		v.logger.Err(err).Msg("issue credential pair")
		return nil, err
	}
	rec := &refresh.Record{
		JTI:       pair.Refresh.ID,
		Subject:   pair.Refresh.Subject,
		ExpiresAt: pair.Refresh.ExpiresAt,
	}
	if err := v.store.Persist(ctx, rec); err != nil {
		v.logger.Err(err).Str("jti", rec.JTI).Msg("refresh persist failed")
		return nil, err
	}
	return pair, nil
}

func (v *Validator) onReplay(ctx context.Context, claims *token.RefreshClaims) {
	event := v.logger.Warn().
		Str("event", EventReplay).
		Str("jti", claims.ID).
		Str("subject", claims.Subject)
	if !v.cascade {
		event.Msg("refresh token replayed")
		return
	}

	revoked, err := v.store.RevokeSubject(ctx, claims.Subject)
	if err != nil {
		event.AnErr("revoke_error", err).Msg("refresh token replayed")
		return
	}
	event.Int64("revoked", revoked).Msg("refresh token replayed; subject sessions revoked")
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, autherrors.KindOf(err).String())
}
