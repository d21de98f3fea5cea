package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	sqlitestore "github.com/spec-kit/helpdesk-service/internal/repository/sqlite"
)

// NewStore returns repositories over a fresh SQLite database.
func NewStore(t testing.TB) *repository.Repositories {
	t.Helper()
	repos, _ := NewStoreWithDB(t)
	return repos
}

// NewStoreWithDB is NewStore that also exposes the gorm handle.
func NewStoreWithDB(t testing.TB) (*repository.Repositories, *gorm.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "helpdesk.db")
	db, err := persistence.OpenSQLite(context.Background(), config.SQLiteConfig{Path: path}, zap.NewNop())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { persistence.CloseSQLite(db) })
	return sqlitestore.NewRepositories(db), db
}

// SeedUser inserts an account and returns it.
func SeedUser(t testing.TB, repos *repository.Repositories, email string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{
		Email:        email,
		PasswordHash: "not-a-real-hash",
		Role:         role,
		Name:         email,
		CreatedAt:    time.Now().UTC(),
	}
	if err := repos.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return user
}
