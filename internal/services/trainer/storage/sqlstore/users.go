package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/user"
)

const userColumns = `id, email, password_hash, first_name, last_name, profile_image_url, permission, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (user.User, error) {
	var (
		u                  user.User
		first, last, image sql.NullString
		permission         int64
		createdAt          dbTime
		updatedAt          dbTime
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &first, &last, &image, &permission, &createdAt, &updatedAt); err != nil {
		return user.User{}, err
	}
	u.FirstName = stringPtr(first)
	u.LastName = stringPtr(last)
	u.ProfileImageURL = stringPtr(image)
	u.Permission = user.Permission(permission)
	u.CreatedAt = createdAt.Time
	u.UpdatedAt = updatedAt.Time
	return u, nil
}

// PutUser inserts a new account. A duplicate email yields storage.ErrEmailTaken.
func (s *Store) PutUser(ctx context.Context, u user.User) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("email is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, s.bind(`
INSERT INTO users (`+userColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		u.ID, user.NormalizeEmail(u.Email), u.PasswordHash,
		nullString(u.FirstName), nullString(u.LastName), nullString(u.ProfileImageURL),
		int64(u.Permission), s.encodeTime(u.CreatedAt), s.encodeTime(u.UpdatedAt),
	)
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return storage.ErrEmailTaken
		}
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// GetUser fetches a user record by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (user.User, error) {
	if err := s.ready(ctx); err != nil {
		return user.User{}, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return user.User{}, fmt.Errorf("user id is required")
	}
	return s.getUser(ctx, "id", userID)
}

// GetUserByEmail fetches a user record by normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	if err := s.ready(ctx); err != nil {
		return user.User{}, err
	}
	email = user.NormalizeEmail(email)
	if email == "" {
		return user.User{}, fmt.Errorf("email is required")
	}
	return s.getUser(ctx, "email", email)
}

func (s *Store) getUser(ctx context.Context, column, value string) (user.User, error) {
	row := s.sqlDB.QueryRowContext(ctx, s.bind(`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`), value)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, storage.ErrNotFound
		}
		return user.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UpdateUser overwrites the mutable fields of an existing account.
func (s *Store) UpdateUser(ctx context.Context, u user.User) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("user id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, s.bind(`
UPDATE users
SET email = ?, password_hash = ?, first_name = ?, last_name = ?, profile_image_url = ?, permission = ?, updated_at = ?
WHERE id = ?`),
		user.NormalizeEmail(u.Email), u.PasswordHash,
		nullString(u.FirstName), nullString(u.LastName), nullString(u.ProfileImageURL),
		int64(u.Permission), s.encodeTime(u.UpdatedAt), u.ID,
	)
	if err != nil {
		if s.dialect.IsUniqueViolation(err) {
			return storage.ErrEmailTaken
		}
		return fmt.Errorf("update user: %w", err)
	}
	return requireAffected(result, "update user")
}

// ListUsers returns a page of users ordered by id.
func (s *Store) ListUsers(ctx context.Context, pageSize int, pageToken string) (storage.UserPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.UserPage{}, err
	}
	if pageSize <= 0 {
		return storage.UserPage{}, fmt.Errorf("page size must be greater than zero")
	}

	var (
		rows *sql.Rows
		err  error
	)
	if pageToken == "" {
		rows, err = s.sqlDB.QueryContext(ctx, s.bind(`SELECT `+userColumns+` FROM users ORDER BY id LIMIT ?`), pageSize+1)
	} else {
		rows, err = s.sqlDB.QueryContext(ctx, s.bind(`SELECT `+userColumns+` FROM users WHERE id > ? ORDER BY id LIMIT ?`), pageToken, pageSize+1)
	}
	if err != nil {
		return storage.UserPage{}, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	page := storage.UserPage{Users: make([]user.User, 0, pageSize)}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return storage.UserPage{}, fmt.Errorf("scan user: %w", err)
		}
		if len(page.Users) == pageSize {
			page.NextPageToken = page.Users[pageSize-1].ID
			break
		}
		page.Users = append(page.Users, u)
	}
	if err := rows.Err(); err != nil {
		return storage.UserPage{}, fmt.Errorf("list users: %w", err)
	}
	return page, nil
}

// SetUserPermission changes a user's permission level and returns the
// updated record.
func (s *Store) SetUserPermission(ctx context.Context, userID string, permission user.Permission, updatedAt time.Time) (user.User, error) {
	if err := s.ready(ctx); err != nil {
		return user.User{}, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return user.User{}, fmt.Errorf("user id is required")
	}
	if !permission.Valid() {
		return user.User{}, fmt.Errorf("unknown permission %d", permission)
	}

	result, err := s.sqlDB.ExecContext(ctx, s.bind(`UPDATE users SET permission = ?, updated_at = ? WHERE id = ?`),
		int64(permission), s.encodeTime(updatedAt), userID)
	if err != nil {
		return user.User{}, fmt.Errorf("set user permission: %w", err)
	}
	if err := requireAffected(result, "set user permission"); err != nil {
		return user.User{}, err
	}
	return s.getUser(ctx, "id", userID)
}

func requireAffected(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
