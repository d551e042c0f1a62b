package refresh

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-session-auth/internal/database"
	autherrors "github.com/jrsteele09/go-session-auth/internal/errors"
)

var _ Store = (*PostgresStore)(nil)

// PostgresStore keeps refresh records in the refresh_tokens table of a PostgreSQL
// database opened through the pgx stdlib driver.
type PostgresStore struct {
	db database.DBTX
}

func NewPostgresStore(db database.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Persist(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO refresh_tokens (jti, subject, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (jti) DO UPDATE SET subject = EXCLUDED.subject, expires_at = EXCLUDED.expires_at
	`
	if _, err := s.db.ExecContext(ctx, query, rec.JTI, rec.Subject, rec.ExpiresAt.UTC()); err != nil {
		return storeError("refresh persist", err)
	}
	return nil
}

// Consume deletes the row in a single statement, so concurrent callers race on the
// row lock and only one of them gets it back.
func (s *PostgresStore) Consume(ctx context.Context, jti string) (bool, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE jti = $1
		RETURNING expires_at
	`
	var expiresAt time.Time
	if err := s.db.QueryRowContext(ctx, query, jti).Scan(&expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, storeError("refresh consume", err)
	}
	return NowTimeFunc().Before(expiresAt), nil
}

func (s *PostgresStore) RevokeSubject(ctx context.Context, subject string) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE subject = $1
	`
	res, err := s.db.ExecContext(ctx, query, subject)
	if err != nil {
		return 0, storeError("refresh revoke subject", err)
	}
	return rowsAffected("refresh revoke subject", res)
}

func (s *PostgresStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at <= $1
	`
	res, err := s.db.ExecContext(ctx, query, now.UTC())
	if err != nil {
		return 0, storeError("refresh purge", err)
	}
	return rowsAffected("refresh purge", res)
}

func rowsAffected(op string, res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeError(op, err)
	}
	return n, nil
}

func storeError(op string, err error) error {
	return autherrors.E(autherrors.KindStoreUnavailable, op, fmt.Errorf("db error: %w", err))
}
