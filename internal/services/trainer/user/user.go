// Package user models trainer accounts and their credentials.
package user

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
	"github.com/louisbranch/cardtrainer/internal/platform/id"
	"golang.org/x/crypto/bcrypt"
)

// Permission is an account's access level.
type Permission int

const (
	// PermissionNormal is granted to every new account.
	PermissionNormal Permission = 1
	// PermissionAdmin unlocks catalog writes and user administration.
	PermissionAdmin Permission = 10
)

// Valid reports whether p is a known level.
func (p Permission) Valid() bool {
	return p == PermissionNormal || p == PermissionAdmin
}

// BcryptCost is the work factor used for password hashes.
const BcryptCost = 10

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// User is an account record. PasswordHash is never serialized.
type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	FirstName       *string    `json:"firstName"`
	LastName        *string    `json:"lastName"`
	ProfileImageURL *string    `json:"profileImageUrl"`
	Permission      Permission `json:"permission"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// IsAdmin reports whether the user holds admin permission.
func (u User) IsAdmin() bool {
	return u.Permission == PermissionAdmin
}

// RegisterInput is the payload accepted by registration.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate reports every invalid registration field.
func (in RegisterInput) Validate() error {
	var merr *multierror.Error
	email := NormalizeEmail(in.Email)
	if email == "" {
		merr = multierror.Append(merr, apperrors.Field("email", "email is required"))
	} else if !validEmail(email) {
		merr = multierror.Append(merr, apperrors.Field("email", "email is not a valid address"))
	}
	if len(in.Password) < MinPasswordLength {
		merr = multierror.Append(merr, apperrors.Field("password", fmt.Sprintf("password must be at least %d characters", MinPasswordLength)))
	}
	return apperrors.Invalid(apperrors.CodeInvalidRegistration, "invalid registration", merr)
}

// Register validates input, hashes the password, and builds a normal user.
func Register(input RegisterInput, now func() time.Time, idGenerator func() (string, error)) (User, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}
	if err := input.Validate(); err != nil {
		return User{}, err
	}
	hash, err := HashPassword(input.Password)
	if err != nil {
		return User{}, err
	}
	userID, err := idGenerator()
	if err != nil {
		return User{}, fmt.Errorf("generate user id: %w", err)
	}
	createdAt := now().UTC()
	return User{
		ID:           userID,
		Email:        NormalizeEmail(input.Email),
		PasswordHash: hash,
		FirstName:    optional(input.FirstName),
		LastName:     optional(input.LastName),
		Permission:   PermissionNormal,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}, nil
}

// HashPassword returns the bcrypt hash of password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the user's stored hash.
func (u User) CheckPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// ProfilePatch updates the editable profile fields. Nil fields are left
// untouched; a blank string clears the field.
type ProfilePatch struct {
	FirstName       *string `json:"firstName"`
	LastName        *string `json:"lastName"`
	ProfileImageURL *string `json:"profileImageUrl"`
}

// ApplyProfile validates patch and returns the updated user.
func ApplyProfile(u User, patch ProfilePatch, now func() time.Time) (User, error) {
	if now == nil {
		now = time.Now
	}
	var merr *multierror.Error
	if patch.ProfileImageURL != nil {
		raw := strings.TrimSpace(*patch.ProfileImageURL)
		if raw != "" {
			parsed, err := url.Parse(raw)
			if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
				merr = multierror.Append(merr, apperrors.Field("profileImageUrl", "profileImageUrl must be an absolute http(s) URL"))
			}
		}
	}
	if err := apperrors.Invalid(apperrors.CodeInvalidProfile, "invalid profile", merr); err != nil {
		return User{}, err
	}
	if patch.FirstName != nil {
		u.FirstName = optional(*patch.FirstName)
	}
	if patch.LastName != nil {
		u.LastName = optional(*patch.LastName)
	}
	if patch.ProfileImageURL != nil {
		u.ProfileImageURL = optional(*patch.ProfileImageURL)
	}
	u.UpdatedAt = now().UTC()
	return u, nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
