package credential

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/vadimbarashkov/url-shortener-client/pkg/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLite is a Backend that keeps values in the credentials table of a SQLite database.
type SQLite struct {
	db *sqlx.DB
}

func NewSQLite(db *sqlx.DB) *SQLite {
	return &SQLite{db: db}
}

// Migrate creates the credentials table if it does not exist.
func Migrate(db *sqlx.DB) error {
	return sqlite.RunMigrations(db, migrations, "migrations")
}

func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	const op = "credential.SQLite.Get"
	const query = `SELECT value FROM credentials WHERE key = ?`

	var value string

	if err := s.db.GetContext(ctx, &value, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("%s: failed to get row from credentials table: %w", op, err)
	}

	return value, true, nil
}

func (s *SQLite) Set(ctx context.Context, key, value string) error {
	const op = "credential.SQLite.Set"
	const query = `INSERT INTO credentials(key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("%s: failed to upsert into credentials table: %w", op, err)
	}

	return nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	const op = "credential.SQLite.Delete"
	const query = `DELETE FROM credentials WHERE key = ?`

	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("%s: failed to delete from credentials table: %w", op, err)
	}

	return nil
}
