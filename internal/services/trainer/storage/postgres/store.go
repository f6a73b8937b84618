// Package postgres provides the PostgreSQL backend used in production.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/louisbranch/cardtrainer/internal/platform/storage/sqlmigrate"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage/postgres/migrations"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage/sqlstore"
)

const (
	connMaxLifetime = 30 * time.Minute
	maxIdleConns    = 10
	maxOpenConns    = 25

	uniqueViolation = "23505"
)

// Dialect uses "$n" placeholders and native timestamptz values.
var Dialect = sqlstore.Dialect{
	Name:              "postgres",
	Placeholder:       func(n int) string { return "$" + strconv.Itoa(n) },
	EncodeTime:        sqlstore.EncodeNative,
	IsUniqueViolation: isUniqueViolation,
}

// Store implements trainer persistence over PostgreSQL.
type Store struct {
	*sqlstore.Store
}

// IsURL reports whether databaseURL selects this backend.
func IsURL(databaseURL string) bool {
	value := strings.ToLower(strings.TrimSpace(databaseURL))
	return strings.HasPrefix(value, "postgres://") || strings.HasPrefix(value, "postgresql://")
}

// Open connects through the pgx stdlib driver and applies bundled migrations.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("database url is required")
	}

	sqlDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping postgres db: %w", err)
	}

	store, err := New(ctx, sqlDB)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return store, nil
}

// New migrates an already-open database and wraps it.
func New(ctx context.Context, sqlDB *sql.DB) (*Store, error) {
	if err := sqlmigrate.ApplyMigrations(ctx, sqlDB, sqlmigrate.Postgres, migrations.FS, ""); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	inner, err := sqlstore.New(sqlDB, Dialect)
	if err != nil {
		return nil, err
	}
	return &Store{Store: inner}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
