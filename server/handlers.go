package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/cookies"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/rs/zerolog/hlog"
)

type loginResponse struct {
	RedirectTo string `json:"redirect_to,omitempty"`
}

type meResponse struct {
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
}

type clientConfigResponse struct {
	AllowedRedirectOrigins []string `json:"allowed_redirect_origins"`
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.services.Readiness != nil {
			if err := s.services.Readiness(r); err != nil {
				hlog.FromRequest(r).Err(err).Msg("health check failed")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// PreflightHandler ends an OPTIONS request once CorsMiddleware has set its headers.
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// LoginHandler exchanges a provider authorization code for a session cookie pair.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, autherrors.E(autherrors.KindInvalidRequest, "server.Login", err))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), s.loginTimeout)
		defer cancel()

		result, err := s.services.Login.Login(ctx, req)
		if err != nil {
			writeError(w, r, err)
			return
		}

		access, refresh := s.services.Cookies.Encode(result.Pair)
		cookies.Write(w, access, refresh)
		writeJSON(w, http.StatusOK, loginResponse{RedirectTo: result.RedirectTo})
	}
}

// RefreshHandler rotates the refresh cookie into a new cookie pair.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, _ := cookies.FromRequest(r, cookies.RefreshCookieName)

		ctx, cancel := context.WithTimeout(r.Context(), s.storeTimeout)
		defer cancel()

		pair, err := s.services.Rotation.Rotate(ctx, raw)
		if err != nil {
			writeError(w, r, err)
			return
		}

		access, refresh := s.services.Cookies.Encode(pair)
		cookies.Write(w, access, refresh)
		w.WriteHeader(http.StatusOK)
	}
}

// LogoutHandler revokes the presented refresh token, if any, and always clears
// both cookies.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if raw, ok := cookies.FromRequest(r, cookies.RefreshCookieName); ok {
			ctx, cancel := context.WithTimeout(r.Context(), s.storeTimeout)
			s.services.Rotation.Revoke(ctx, raw)
			cancel()
		}

		access, refresh := s.services.Cookies.Clear()
		cookies.Write(w, access, refresh)
		w.WriteHeader(http.StatusOK)
	}
}

// MeHandler reports the subject of a valid access cookie.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := cookies.FromRequest(r, cookies.AccessCookieName)
		if !ok {
			writeError(w, r, autherrors.E(autherrors.KindMissingCredential, "server.Me", nil))
			return
		}
		claims, err := s.services.Issuer.ParseAccess(raw)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, meResponse{UserID: claims.Subject, AccessToken: raw})
	}
}

// ClientConfigHandler exposes the redirect origins a frontend may ask to return to.
func (s *Server) ClientConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origins := []string(s.config.GetAllowedOrigins())
		if origins == nil {
			origins = []string{}
		}
		writeJSON(w, http.StatusOK, clientConfigResponse{AllowedRedirectOrigins: origins})
	}
}
