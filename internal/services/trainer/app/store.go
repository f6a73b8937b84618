package server

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage/postgres"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage/sqlite"
)

// DefaultDBPath is the SQLite file used when no database is configured.
var DefaultDBPath = filepath.Join("data", "cardtrainer.db")

// OpenStore selects the backend: a postgres:// or postgresql:// URL opens
// Postgres, anything else opens SQLite at dbPath. Both apply migrations.
func OpenStore(ctx context.Context, databaseURL, dbPath string) (storage.Store, error) {
	if databaseURL = strings.TrimSpace(databaseURL); postgres.IsURL(databaseURL) {
		store, err := postgres.Open(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	if dbPath = strings.TrimSpace(dbPath); dbPath == "" {
		dbPath = DefaultDBPath
	}
	store, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Backend names the storage backend OpenStore would select.
func Backend(databaseURL string) string {
	if postgres.IsURL(strings.TrimSpace(databaseURL)) {
		return "postgres"
	}
	return "sqlite"
}
