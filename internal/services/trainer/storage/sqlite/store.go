// Package sqlite provides the SQLite backend for local runs and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/cardtrainer/internal/platform/storage/sqlmigrate"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage/sqlite/migrations"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage/sqlstore"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect stores timestamps as integer milliseconds and uses "?" placeholders.
var Dialect = sqlstore.Dialect{
	Name:              "sqlite",
	Placeholder:       func(int) string { return "?" },
	EncodeTime:        sqlstore.EncodeMillis,
	IsUniqueViolation: isUniqueViolation,
}

// Store implements trainer persistence over SQLite.
type Store struct {
	*sqlstore.Store
}

// Open opens a SQLite store at path and applies bundled migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := sqlmigrate.ApplyMigrations(ctx, sqlDB, sqlmigrate.SQLite, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	inner, err := sqlstore.New(sqlDB, Dialect)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return &Store{Store: inner}, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
