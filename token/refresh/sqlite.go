package refresh

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jrsteele09/go-session-auth/internal/database"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore keeps refresh records in SQLite. Expiry is stored as Unix milliseconds.
type SQLiteStore struct {
	db database.DBTX
}

func NewSQLiteStore(db database.DBTX) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Persist(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO refresh_tokens (jti, subject, expires_at)
		VALUES (?, ?, ?)
		ON CONFLICT (jti) DO UPDATE SET subject = excluded.subject, expires_at = excluded.expires_at
	`
	if _, err := s.db.ExecContext(ctx, query, rec.JTI, rec.Subject, rec.ExpiresAt.UnixMilli()); err != nil {
		return storeError("refresh persist", err)
	}
	return nil
}

func (s *SQLiteStore) Consume(ctx context.Context, jti string) (bool, error) {
	query := `DELETE FROM refresh_tokens WHERE jti = ? RETURNING expires_at`

	var expiresAt int64
	if err := s.db.QueryRowContext(ctx, query, jti).Scan(&expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, storeError("refresh consume", err)
	}
	return NowTimeFunc().Before(time.UnixMilli(expiresAt)), nil
}

func (s *SQLiteStore) RevokeSubject(ctx context.Context, subject string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE subject = ?`, subject)
	if err != nil {
		return 0, storeError("refresh revoke subject", err)
	}
	return rowsAffected("refresh revoke subject", res)
}

func (s *SQLiteStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, storeError("refresh purge", err)
	}
	return rowsAffected("refresh purge", res)
}
