// Package database opens the SQL database backing the user directory and the
// refresh token store, and applies the embedded goose migrations.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jrsteele09/go-session-auth/internal/database/migrations"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects to the database for dialect and runs the migrations.
func Open(ctx context.Context, dialect, dsn string) (*sql.DB, error) {
	driverName, err := driverFor(dialect)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("[database Open] empty DSN for %s", dialect)
	}
	if dialect == DialectSQLite && !strings.Contains(dsn, "?") {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("[database Open] open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// one writer at a time avoids SQLITE_BUSY on concurrent deletes
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("[database Open] ping %s: %w", dialect, err)
	}
	if err := Migrate(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the embedded migrations for dialect. Each call builds its own
// goose provider, so concurrent migrations of different databases do not share state.
func Migrate(ctx context.Context, db *sql.DB, dialect string) error {
	gooseDialect := goose.DialectPostgres
	if dialect == DialectSQLite {
		gooseDialect = goose.DialectSQLite3
	}

	sub, err := fs.Sub(migrations.FS, dialect)
	if err != nil {
		return fmt.Errorf("[database Migrate] migrations for %s: %w", dialect, err)
	}
	provider, err := goose.NewProvider(gooseDialect, db, sub, goose.WithDisableGlobalRegistry(true))
	if err != nil {
		return fmt.Errorf("[database Migrate] provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("[database Migrate] up: %w", err)
	}
	return nil
}

func driverFor(dialect string) (string, error) {
	switch dialect {
	case DialectPostgres:
		return "pgx", nil
	case DialectSQLite:
		return "sqlite", nil
	}
	return "", fmt.Errorf("[database Open] unsupported dialect %q", dialect)
}
