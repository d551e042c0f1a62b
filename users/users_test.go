package users_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jrsteele09/go-session-auth/internal/database"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
	"github.com/jrsteele09/go-session-auth/users"
	fakeuserrepo "github.com/jrsteele09/go-session-auth/users/repofake"
	"github.com/stretchr/testify/require"
)

func directories(t *testing.T) map[string]users.Directory {
	t.Helper()
	db, err := database.Open(context.Background(), database.DialectSQLite, "file:"+t.TempDir()+"/users.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return map[string]users.Directory{
		"memory": fakeuserrepo.NewFakeUserDirectory(),
		"sqlite": users.NewSQLiteDirectory(db),
	}
}

func TestUpsertKeepsDisplayName(t *testing.T) {
	for name, dir := range directories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, dir.Upsert(ctx, &users.User{ID: "42", Username: "octocat", DisplayName: "octocat", AvatarURL: "https://a/1"}))
			require.NoError(t, dir.Upsert(ctx, &users.User{ID: "42", Username: "octo-renamed", DisplayName: "octo-renamed", AvatarURL: "https://a/2"}))

			got, err := dir.GetByID(ctx, "42")
			require.NoError(t, err)
			require.Equal(t, "octo-renamed", got.Username)
			require.Equal(t, "octocat", got.DisplayName)
			require.Equal(t, "https://a/2", got.AvatarURL)
			require.False(t, got.UpdatedAt.Before(got.CreatedAt))
		})
	}
}

func TestGetByIDNotFound(t *testing.T) {
	for name, dir := range directories(t) {
		t.Run(name, func(t *testing.T) {
			_, err := dir.GetByID(context.Background(), "missing")
			require.ErrorIs(t, err, users.ErrUserNotFound)
		})
	}
}

func TestUpsertWithoutAvatar(t *testing.T) {
	for name, dir := range directories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, dir.Upsert(ctx, &users.User{ID: "1", Username: "a", DisplayName: "a"}))
			got, err := dir.GetByID(ctx, "1")
			require.NoError(t, err)
			require.Empty(t, got.AvatarURL)
		})
	}
}

func TestPostgresUpsert(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	original := users.NowTimeFunc
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	users.NowTimeFunc = func() time.Time { return now }
	defer func() { users.NowTimeFunc = original }()

	q := `(?s)^\s*INSERT\s+INTO\s+users\b.*ON\s+CONFLICT\s*\(id\)\s*DO\s+UPDATE\s+SET\s+username\s*=\s*EXCLUDED\.username,\s*avatar_url\s*=\s*EXCLUDED\.avatar_url,\s*updated_at\s*=\s*EXCLUDED\.updated_at\s*$`
	mock.ExpectExec(q).
		WithArgs("42", "octocat", "The Octocat", "https://a/1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	dir := users.NewPostgresDirectory(db)
	err = dir.Upsert(context.Background(), &users.User{ID: "42", Username: "octocat", DisplayName: "The Octocat", AvatarURL: "https://a/1"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpsertDBError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT\s+INTO\s+users`).WillReturnError(errors.New("db down"))

	err = users.NewPostgresDirectory(db).Upsert(context.Background(), &users.User{ID: "42", Username: "octocat"})
	require.Equal(t, autherrors.KindStoreUnavailable, autherrors.KindOf(err))
	require.ErrorContains(t, err, "db error: db down")
}

func TestPostgresGetByID(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "username", "display_name", "avatar_url", "created_at", "updated_at"}).
		AddRow("42", "octocat", "The Octocat", "", created, created)
	mock.ExpectQuery(`(?s)SELECT\s+id,\s*username.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1`).
		WithArgs("42").
		WillReturnRows(rows)

	got, err := users.NewPostgresDirectory(db).GetByID(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, "The Octocat", got.DisplayName)
	require.Equal(t, created, got.CreatedAt)
}
