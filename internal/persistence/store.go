package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	sqlitestore "github.com/spec-kit/helpdesk-service/internal/repository/sqlite"
)

// Store is the opened persistence backend.
type Store struct {
	Driver string
	Repos  *repository.Repositories
	close  func()
}

// Close releases the backend. Safe to call on a nil Store.
func (s *Store) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}

// OpenStore connects the configured driver, applies the schema and
// returns repositories over it.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if cfg.Postgres.RunMigrations {
			if err := RunMigrations(ctx, pg.Pool, logger); err != nil {
				pg.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		return &Store{Driver: cfg.Store.Driver, Repos: repository.NewPostgresRepositories(pg.Pool), close: pg.Close}, nil
	case config.StoreDriverSQLite:
		db, err := OpenSQLite(ctx, cfg.SQLite, logger)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return &Store{Driver: cfg.Store.Driver, Repos: sqlitestore.NewRepositories(db), close: func() { CloseSQLite(db) }}, nil
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
}
