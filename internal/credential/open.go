package credential

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vadimbarashkov/url-shortener-client/internal/config"
	"github.com/vadimbarashkov/url-shortener-client/pkg/sqlite"
)

// Open builds the Store selected by cfg. The returned close function releases
// backend resources and is never nil.
func Open(ctx context.Context, cfg config.Storage, logger *slog.Logger) (*Store, func() error, error) {
	const op = "credential.Open"

	noop := func() error { return nil }

	switch cfg.Driver {
	case config.StorageMemory:
		return NewStore(NewMemory(), logger), noop, nil
	case config.StorageFile:
		return NewStore(NewFile(cfg.Path), logger), noop, nil
	case config.StorageSQLite:
		db, err := sqlite.New(ctx, cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}

		if err := Migrate(db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}

		return NewStore(NewSQLite(db), logger), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("%s: unknown storage driver %q", op, cfg.Driver)
	}
}
