package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-session-auth/internal/database"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
)

var (
	_ Directory = (*PostgresDirectory)(nil)
	_ Directory = (*SQLiteDirectory)(nil)
)

// PostgresDirectory stores users in PostgreSQL.
type PostgresDirectory struct {
	db database.DBTX
}

func NewPostgresDirectory(db database.DBTX) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

func (d *PostgresDirectory) Upsert(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, username, display_name, avatar_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			avatar_url = EXCLUDED.avatar_url,
			updated_at = EXCLUDED.updated_at
	`
	now := NowTimeFunc().UTC()
	if _, err := d.db.ExecContext(ctx, query, user.ID, user.Username, user.DisplayName, nullable(user.AvatarURL), now); err != nil {
		return dbError("users upsert", err)
	}
	return nil
}

func (d *PostgresDirectory) GetByID(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, username, display_name, COALESCE(avatar_url, ''), created_at, updated_at
		FROM users
		WHERE id = $1
	`
	user := &User{}
	err := d.db.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Username, &user.DisplayName, &user.AvatarURL, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, dbError("users get", err)
	}
	return user, nil
}

// SQLiteDirectory stores users in SQLite with Unix millisecond timestamps.
type SQLiteDirectory struct {
	db database.DBTX
}

func NewSQLiteDirectory(db database.DBTX) *SQLiteDirectory {
	return &SQLiteDirectory{db: db}
}

func (d *SQLiteDirectory) Upsert(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, username, display_name, avatar_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			avatar_url = excluded.avatar_url,
			updated_at = excluded.updated_at
	`
	now := NowTimeFunc().UnixMilli()
	if _, err := d.db.ExecContext(ctx, query, user.ID, user.Username, user.DisplayName, nullable(user.AvatarURL), now, now); err != nil {
		return dbError("users upsert", err)
	}
	return nil
}

func (d *SQLiteDirectory) GetByID(ctx context.Context, id string) (*User, error) {
	query := `
		SELECT id, username, display_name, COALESCE(avatar_url, ''), created_at, updated_at
		FROM users
		WHERE id = ?
	`
	user := &User{}
	var createdAt, updatedAt int64
	err := d.db.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Username, &user.DisplayName, &user.AvatarURL, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, dbError("users get", err)
	}
	user.CreatedAt = time.UnixMilli(createdAt).UTC()
	user.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return user, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func dbError(op string, err error) error {
	return autherrors.E(autherrors.KindStoreUnavailable, op, fmt.Errorf("db error: %w", err))
}
