// Package sqlstore implements the trainer storage contracts over database/sql.
//
// The SQLite and Postgres backends share these queries and differ only in
// their Dialect: placeholder syntax, timestamp encoding, and how unique
// violations are reported.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage/filter"
)

var _ storage.Store = (*Store)(nil)

// Dialect describes backend-specific SQL behavior.
type Dialect struct {
	Name        string
	Placeholder filter.Placeholder
	// EncodeTime converts a timestamp into the column's storage value.
	EncodeTime func(time.Time) any
	// IsUniqueViolation reports whether err is a unique constraint failure.
	IsUniqueViolation func(error) bool
}

// Store implements storage.Store for a Dialect.
type Store struct {
	sqlDB   *sql.DB
	dialect Dialect
}

// New wraps an open database. Migrations are the caller's concern.
func New(sqlDB *sql.DB, dialect Dialect) (*Store, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	if dialect.Placeholder == nil || dialect.EncodeTime == nil || dialect.IsUniqueViolation == nil {
		return nil, fmt.Errorf("sql dialect %q is incomplete", dialect.Name)
	}
	return &Store{sqlDB: sqlDB, dialect: dialect}, nil
}

// DB returns the raw database handle.
func (s *Store) DB() *sql.DB {
	if s == nil {
		return nil
	}
	return s.sqlDB
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.sqlDB.PingContext(ctx)
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// bind rewrites "?" markers into the dialect's placeholders.
func (s *Store) bind(query string) string {
	if s.dialect.Placeholder(1) == "?" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(s.dialect.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) encodeTime(t time.Time) any {
	return s.dialect.EncodeTime(t.UTC())
}

// dbTime scans either integer milliseconds or a native timestamp.
type dbTime struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner.
func (t *dbTime) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
	case int64:
		t.Time, t.Valid = time.UnixMilli(v).UTC(), true
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
	default:
		return fmt.Errorf("unsupported time value %T", value)
	}
	return nil
}

// EncodeMillis stores timestamps as integer milliseconds.
func EncodeMillis(t time.Time) any {
	return t.UTC().UnixMilli()
}

// EncodeNative passes timestamps through to the driver.
func EncodeNative(t time.Time) any {
	return t.UTC()
}

func nullString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullInt(value *int) any {
	if value == nil {
		return nil
	}
	return int64(*value)
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func intPtr(value sql.NullInt64) *int {
	if !value.Valid {
		return nil
	}
	v := int(value.Int64)
	return &v
}
