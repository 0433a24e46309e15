package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// Memory opens a private in-memory database that lives as long as its connection.
const Memory = ":memory:"

const (
	defaultBusyTimeout     = 5 * time.Second
	defaultConnMaxIdleTime = 5 * time.Minute
	defaultMaxOpenConns    = 1
)

type Option func(*sqlx.DB)

func WithConnMaxIdleTime(d time.Duration) Option {
	return func(db *sqlx.DB) {
		db.SetConnMaxIdleTime(d)
	}
}

func WithMaxOpenConns(n int) Option {
	return func(db *sqlx.DB) {
		db.SetMaxOpenConns(n)
	}
}

// DSN builds a modernc.org/sqlite data source name for the database file at path.
func DSN(path string) string {
	if path == Memory {
		return fmt.Sprintf("file::memory:?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
			defaultBusyTimeout.Milliseconds())
	}

	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)",
		path, defaultBusyTimeout.Milliseconds())
}

// New opens the database file at path, creating its parent directory if needed.
// With Memory the single connection is never recycled, so the data survives
// until the database is closed.
func New(ctx context.Context, path string, opts ...Option) (*sqlx.DB, error) {
	const op = "sqlite.New"

	if path != Memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("%s: failed to create database directory: %w", op, err)
		}
	}

	db, err := sqlx.ConnectContext(ctx, driverName, DSN(path))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}

	db.SetMaxOpenConns(defaultMaxOpenConns)
	if path == Memory {
		db.SetConnMaxIdleTime(0)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetConnMaxIdleTime(defaultConnMaxIdleTime)
	}

	for _, opt := range opts {
		opt(db)
	}

	return db, nil
}
