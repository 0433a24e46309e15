// Package storage implements the devserver repository on SQLite.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"

	sqlite3 "modernc.org/sqlite/lib"

	"github.com/vadimbarashkov/url-shortener-client/internal/devserver"
	pkgsqlite "github.com/vadimbarashkov/url-shortener-client/pkg/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate creates the users, api_keys and links tables.
func Migrate(db *sqlx.DB) error {
	return pkgsqlite.RunMigrations(db, migrations, "migrations")
}

func isUniqueViolationError(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

type userRecord struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r *userRecord) ToUser() *devserver.User {
	return &devserver.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

type apiKeyRecord struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Key       string    `db:"key"`
	CreatedAt time.Time `db:"created_at"`
}

func (r *apiKeyRecord) ToAPIKey() *devserver.APIKey {
	return &devserver.APIKey{
		ID:        r.ID,
		UserID:    r.UserID,
		Key:       r.Key,
		CreatedAt: r.CreatedAt,
	}
}

type linkRecord struct {
	ID          int64      `db:"id"`
	APIKeyID    *int64     `db:"api_key_id"`
	APIKey      string     `db:"api_key"`
	ShortCode   string     `db:"short_code"`
	LongURL     string     `db:"long_url"`
	ClickCount  int64      `db:"click_count"`
	LastClicked *time.Time `db:"last_clicked"`
	CreatedAt   time.Time  `db:"created_at"`
}

func (r *linkRecord) ToLink() *devserver.Link {
	return &devserver.Link{
		ID:          r.ID,
		APIKeyID:    r.APIKeyID,
		APIKey:      r.APIKey,
		ShortCode:   r.ShortCode,
		LongURL:     r.LongURL,
		ClickCount:  r.ClickCount,
		LastClicked: r.LastClicked,
		CreatedAt:   r.CreatedAt,
	}
}

func getLink(ctx context.Context, q sqlx.QueryerContext, shortCode string) (*devserver.Link, error) {
	rec := new(linkRecord)
	query := `SELECT l.id, l.api_key_id, COALESCE(k.key, '') AS api_key, l.short_code, l.long_url,
			l.click_count, l.last_clicked, l.created_at
		FROM links l
		LEFT JOIN api_keys k ON k.id = l.api_key_id
		WHERE l.short_code = ?`

	if err := sqlx.GetContext(ctx, q, rec, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, devserver.ErrLinkNotFound
		}

		return nil, fmt.Errorf("failed to get link record: %w", err)
	}

	return rec.ToLink(), nil
}

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) CreateUser(ctx context.Context, email, passwordHash string) (*devserver.User, error) {
	const op = "devserver.storage.Repository.CreateUser"

	query := `INSERT INTO users(email, password_hash) VALUES (?, ?)`

	res, err := r.db.ExecContext(ctx, query, email, passwordHash)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, devserver.ErrUserExists)
		}

		return nil, fmt.Errorf("%s: failed to create user record: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get inserted id: %w", op, err)
	}

	user, err := r.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*devserver.User, error) {
	const op = "devserver.storage.Repository.GetUserByEmail"

	rec := new(userRecord)
	query := `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`

	if err := r.db.GetContext(ctx, rec, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, devserver.ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get user record: %w", op, err)
	}

	return rec.ToUser(), nil
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*devserver.User, error) {
	const op = "devserver.storage.Repository.GetUserByID"

	rec := new(userRecord)
	query := `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`

	if err := r.db.GetContext(ctx, rec, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, devserver.ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get user record: %w", op, err)
	}

	return rec.ToUser(), nil
}

func (r *Repository) CreateAPIKey(ctx context.Context, userID int64, key string) (*devserver.APIKey, error) {
	const op = "devserver.storage.Repository.CreateAPIKey"

	query := `INSERT INTO api_keys(user_id, key) VALUES (?, ?)`

	if _, err := r.db.ExecContext(ctx, query, userID, key); err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, devserver.ErrAPIKeyExists)
		}

		return nil, fmt.Errorf("%s: failed to create api key record: %w", op, err)
	}

	k, err := r.GetAPIKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return k, nil
}

func (r *Repository) GetFirstAPIKey(ctx context.Context, userID int64) (*devserver.APIKey, error) {
	const op = "devserver.storage.Repository.GetFirstAPIKey"

	rec := new(apiKeyRecord)
	query := `SELECT id, user_id, key, created_at FROM api_keys
		WHERE user_id = ?
		ORDER BY id
		LIMIT 1`

	if err := r.db.GetContext(ctx, rec, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, devserver.ErrAPIKeyNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get api key record: %w", op, err)
	}

	return rec.ToAPIKey(), nil
}

func (r *Repository) GetAPIKey(ctx context.Context, key string) (*devserver.APIKey, error) {
	const op = "devserver.storage.Repository.GetAPIKey"

	rec := new(apiKeyRecord)
	query := `SELECT id, user_id, key, created_at FROM api_keys WHERE key = ?`

	if err := r.db.GetContext(ctx, rec, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, devserver.ErrAPIKeyNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get api key record: %w", op, err)
	}

	return rec.ToAPIKey(), nil
}

func (r *Repository) CreateLink(ctx context.Context, apiKeyID *int64, shortCode, longURL string) (*devserver.Link, error) {
	const op = "devserver.storage.Repository.CreateLink"

	query := `INSERT INTO links(api_key_id, short_code, long_url) VALUES (?, ?, ?)`

	if _, err := r.db.ExecContext(ctx, query, apiKeyID, shortCode, longURL); err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, devserver.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to create link record: %w", op, err)
	}

	link, err := getLink(ctx, r.db, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return link, nil
}

func (r *Repository) ResolveLink(ctx context.Context, shortCode string) (*devserver.Link, error) {
	const op = "devserver.storage.Repository.ResolveLink"

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}
	defer tx.Rollback()

	query := `UPDATE links
		SET click_count = click_count + 1, last_clicked = CURRENT_TIMESTAMP
		WHERE short_code = ? AND deleted_at IS NULL`

	res, err := tx.ExecContext(ctx, query, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to update link record: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}

	if n == 0 {
		return nil, fmt.Errorf("%s: %w", op, devserver.ErrLinkNotFound)
	}

	link, err := getLink(ctx, tx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	return link, nil
}

func (r *Repository) ListLinksByUser(ctx context.Context, userID int64) ([]devserver.Link, error) {
	const op = "devserver.storage.Repository.ListLinksByUser"

	var recs []linkRecord
	query := `SELECT l.id, l.api_key_id, k.key AS api_key, l.short_code, l.long_url,
			l.click_count, l.last_clicked, l.created_at
		FROM links l
		JOIN api_keys k ON k.id = l.api_key_id
		WHERE k.user_id = ? AND l.deleted_at IS NULL
		ORDER BY l.id DESC`

	if err := r.db.SelectContext(ctx, &recs, query, userID); err != nil {
		return nil, fmt.Errorf("%s: failed to select link records: %w", op, err)
	}

	links := make([]devserver.Link, 0, len(recs))
	for i := range recs {
		links = append(links, *recs[i].ToLink())
	}

	return links, nil
}

func (r *Repository) DeleteLink(ctx context.Context, userID int64, shortCode string) error {
	const op = "devserver.storage.Repository.DeleteLink"

	query := `UPDATE links
		SET deleted_at = CURRENT_TIMESTAMP
		WHERE short_code = ? AND deleted_at IS NULL
			AND api_key_id IN (SELECT id FROM api_keys WHERE user_id = ?)`

	res, err := r.db.ExecContext(ctx, query, shortCode, userID)
	if err != nil {
		return fmt.Errorf("%s: failed to delete link record: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", op, err)
	}

	if n == 0 {
		return fmt.Errorf("%s: %w", op, devserver.ErrLinkNotFound)
	}

	return nil
}
