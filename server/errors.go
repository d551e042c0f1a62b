package server

import (
	"encoding/json"
	"net/http"

	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/rs/zerolog/hlog"
)

// statusFor maps an error kind to its HTTP status. This is the only place kinds
// meet status codes.
func statusFor(kind autherrors.Kind) int {
	switch {
	case kind.IsCredential():
		return http.StatusUnauthorized
	case kind == autherrors.KindInvalidRequest:
		return http.StatusBadRequest
	case kind == autherrors.KindUpstreamError:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError writes {"error": "<kind>"} with the mapped status. Causes stay in the log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := autherrors.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Err(err).Str("kind", kind.String()).Msg("request failed")
	}
	writeErrorCode(w, status, kind.String())
}

func writeErrorCode(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
