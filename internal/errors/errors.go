package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure of the session credential service.
// Kinds are mapped to transport status codes only by the HTTP server.
type Kind int

const (
	KindUnknown Kind = iota

	// Credential errors: the caller must re-authenticate with the identity provider
	KindMissingCredential
	KindMalformedToken
	KindExpiredToken
	KindReplayedToken

	// Infrastructure errors: the caller may retry the whole request
	KindStoreUnavailable
	KindSigningFailure
	KindUpstreamError

	// Request errors
	KindInvalidRequest
)

var kindCodes = map[Kind]string{
	KindUnknown:           "internal_error",
	KindMissingCredential: "missing_credential",
	KindMalformedToken:    "malformed_token",
	KindExpiredToken:      "expired_token",
	KindReplayedToken:     "replayed_token",
	KindStoreUnavailable:  "store_unavailable",
	KindSigningFailure:    "signing_failure",
	KindUpstreamError:     "upstream_error",
	KindInvalidRequest:    "invalid_request",
}

// String returns the snake_case code of the kind, used in error responses and logs.
func (k Kind) String() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return kindCodes[KindUnknown]
}

// IsCredential reports whether the kind describes a rejected credential.
func (k Kind) IsCredential() bool {
	switch k {
	case KindMissingCredential, KindMalformedToken, KindExpiredToken, KindReplayedToken:
		return true
	}
	return false
}

// Common error values
var (
	ErrMissingCredential  = errors.New("missing credential")
	ErrMalformedToken     = errors.New("malformed token")
	ErrExpiredToken       = errors.New("token expired")
	ErrReplayedToken      = errors.New("refresh token already used or never issued")
	ErrStoreUnavailable   = errors.New("token store unavailable")
	ErrSigningFailure     = errors.New("token signing failed")
	ErrUpstream           = errors.New("identity provider error")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrRedirectNotAllowed = errors.New("redirect target not allowed")
)

// Error carries a Kind, the operation that failed and the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds a classified error. A nil err is replaced by the sentinel for the kind.
func E(kind Kind, op string, err error) error {
	if err == nil {
		err = sentinel(kind)
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func sentinel(kind Kind) error {
	switch kind {
	case KindMissingCredential:
		return ErrMissingCredential
	case KindMalformedToken:
		return ErrMalformedToken
	case KindExpiredToken:
		return ErrExpiredToken
	case KindReplayedToken:
		return ErrReplayedToken
	case KindStoreUnavailable:
		return ErrStoreUnavailable
	case KindSigningFailure:
		return ErrSigningFailure
	case KindUpstreamError:
		return ErrUpstream
	case KindInvalidRequest:
		return ErrInvalidRequest
	}
	return errors.New("internal error")
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
