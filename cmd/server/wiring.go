package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-session-auth/auth"
	"github.com/jrsteele09/go-session-auth/cookies"
	"github.com/jrsteele09/go-session-auth/identity"
	"github.com/jrsteele09/go-session-auth/identity/github"
	"github.com/jrsteele09/go-session-auth/identity/oidc"
	"github.com/jrsteele09/go-session-auth/internal/config"
	"github.com/jrsteele09/go-session-auth/internal/database"
	"github.com/jrsteele09/go-session-auth/rotation"
	"github.com/jrsteele09/go-session-auth/server"
	"github.com/jrsteele09/go-session-auth/token"
	"github.com/jrsteele09/go-session-auth/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-session-auth/token/refresh/repofake"
	"github.com/jrsteele09/go-session-auth/users"
	fakeuserrepo "github.com/jrsteele09/go-session-auth/users/repofake"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// App is the assembled service.
type App struct {
	Handler      http.Handler
	RefreshStore refresh.Store
	closers      []func() error
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Msg("close resource")
		}
	}
}

// storage holds the backends selected by the storage configuration.
type storage struct {
	users   users.Directory
	refresh refresh.Store
	checks  []func(ctx context.Context) error
	closers []func() error
}

func buildApp(ctx context.Context, c config.Config) (*App, error) {
	store, err := buildStorage(ctx, c)
	if err != nil {
		return nil, err
	}
	app := &App{RefreshStore: store.refresh, closers: store.closers}

	provider, err := buildProvider(ctx, c)
	if err != nil {
		app.Close()
		return nil, err
	}

	issuer := token.NewIssuer(token.NewHMACSigner(c.GetJWTSecret()),
		token.WithTokenExpiry(c.GetAccessTokenExpiry(), c.GetRefreshTokenExpiry()),
	)
	validator := rotation.NewValidator(issuer, store.refresh,
		rotation.WithCascadeRevocation(c.GetRevokeAllOnReplay()),
	)
	login := auth.NewLoginService(provider, store.users, validator, c.GetAllowedOrigins(),
		auth.WithDefaultRedirect(c.GetDefaultRedirect()),
	)

	app.Handler = server.New(c, server.Services{
		Login:     login,
		Rotation:  validator,
		Issuer:    issuer,
		Cookies:   cookies.NewCodec(c.GetCookieDomain()),
		Readiness: store.ready,
	})
	return app, nil
}

func (s *storage) ready(r *http.Request) error {
	for _, check := range s.checks {
		if err := check(r.Context()); err != nil {
			return err
		}
	}
	return nil
}

func buildStorage(ctx context.Context, c config.StorageConfig) (*storage, error) {
	s := &storage{}

	switch c.GetDatabaseDriver() {
	case config.DriverMemory:
		log.Warn().Msg("using in-memory storage: sessions are lost on restart")
		s.users = fakeuserrepo.NewFakeUserDirectory()
		s.refresh = refreshrepofake.NewFakeRefreshStore()
	case config.DriverPostgres, config.DriverSQLite:
		db, err := database.Open(ctx, c.GetDatabaseDriver(), c.GetDatabaseURL())
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		s.checks = append(s.checks, db.PingContext)
		s.users, s.refresh = sqlBackends(c.GetDatabaseDriver(), db)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.GetDatabaseDriver())
	}

	if c.GetRedisURL() == "" {
		return s, nil
	}
	opts, err := redis.ParseURL(c.GetRedisURL())
	if err != nil {
		s.close()
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		s.close()
		return nil, errors.Join(refresh.ErrRedisUnavailable, err)
	}
	s.closers = append(s.closers, rdb.Close)
	s.checks = append(s.checks, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	s.refresh = refresh.NewRedisStore(rdb)
	return s, nil
}

func sqlBackends(driver string, db *sql.DB) (users.Directory, refresh.Store) {
	if driver == config.DriverPostgres {
		return users.NewPostgresDirectory(db), refresh.NewPostgresStore(db)
	}
	return users.NewSQLiteDirectory(db), refresh.NewSQLiteStore(db)
}

func (s *storage) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

func buildProvider(ctx context.Context, c config.ProviderConfig) (identity.Provider, error) {
	switch c.GetIdentityProvider() {
	case config.ProviderGitHub:
		if c.GetGitHubClientID() == "" || c.GetGitHubClientSecret() == "" {
			return nil, errors.New("GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET are required")
		}
		return github.New(c.GetGitHubClientID(), c.GetGitHubClientSecret()), nil
	case config.ProviderOIDC:
		return oidc.New(ctx, c.GetOIDCIssuerURL(), c.GetOIDCClientID(), c.GetOIDCClientSecret(), c.GetOIDCRedirectURL())
	}
	return nil, fmt.Errorf("unsupported identity provider %q", c.GetIdentityProvider())
}
