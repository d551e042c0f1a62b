package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/cookies"
	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/jrsteele09/go-session-auth/rotation"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultStoreTimeout = 5 * time.Second
	defaultLoginTimeout = 15 * time.Second
	maxBodyBytes        = 1 << 20
)

// Config is the part of the service configuration the HTTP layer reads.
type Config interface {
	config.EnvConfig
	config.CorsConfig
}

// Services are the collaborators the handlers delegate to.
type Services struct {
	Login     *auth.LoginService
	Rotation  *rotation.Validator
	Issuer    *token.Issuer
	Cookies   *cookies.Codec
	Readiness func(r *http.Request) error
}

type Server struct {
	env      string
	mux      *http.ServeMux
	routes   []string
	config   Config
	services Services
	logger   zerolog.Logger

	storeTimeout time.Duration
	loginTimeout time.Duration
}

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStoreTimeout bounds each refresh and logout request's store calls.
func WithStoreTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.storeTimeout = d
		}
	}
}

func New(cfg Config, services Services, opts ...Option) *Server {
	s := &Server{
		env:          cfg.GetEnv(),
		mux:          http.NewServeMux(),
		config:       cfg,
		services:     services,
		logger:       log.Logger,
		storeTimeout: defaultStoreTimeout,
		loginTimeout: defaultLoginTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes returns the registered route patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		s.logger.Debug().Msgf("[%-7s] %s", colourMethod(method), path)
	}
}
