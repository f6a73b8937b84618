package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/user"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = apperrors.New(apperrors.CodeInvalidCredentials, "invalid email or password")
	// ErrEmailTaken is returned when registering an email already in use.
	ErrEmailTaken = apperrors.New(apperrors.CodeEmailTaken, "user already exists")
)

// dummyHash keeps unknown-email logins as slow as wrong-password ones.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("cardtrainer-dummy-password"), user.BcryptCost)

// Accounts registers and authenticates users.
type Accounts struct {
	users       storage.UserStore
	now         func() time.Time
	idGenerator func() (string, error)
}

// NewAccounts builds an account service over users. A nil clock or id
// generator selects the defaults.
func NewAccounts(users storage.UserStore, now func() time.Time, idGenerator func() (string, error)) *Accounts {
	if now == nil {
		now = time.Now
	}
	return &Accounts{users: users, now: now, idGenerator: idGenerator}
}

// Register creates a normal user.
func (a *Accounts) Register(ctx context.Context, input user.RegisterInput) (user.User, error) {
	if err := input.Validate(); err != nil {
		return user.User{}, err
	}
	if _, err := a.users.GetUserByEmail(ctx, input.Email); err == nil {
		return user.User{}, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return user.User{}, fmt.Errorf("check email: %w", err)
	}

	u, err := user.Register(input, a.now, a.idGenerator)
	if err != nil {
		return user.User{}, err
	}
	if err := a.users.PutUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			return user.User{}, ErrEmailTaken
		}
		return user.User{}, err
	}
	return u, nil
}

// Login verifies email and password.
func (a *Accounts) Login(ctx context.Context, email, password string) (user.User, error) {
	email = user.NormalizeEmail(email)
	if email == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return user.User{}, ErrInvalidCredentials
	}
	u, err := a.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return user.User{}, ErrInvalidCredentials
		}
		return user.User{}, err
	}
	if !u.CheckPassword(password) {
		return user.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// EnsureAdmin makes sure an admin account exists for email. A missing
// account is created with password; an existing one is promoted and keeps
// its password. It reports whether anything changed.
func (a *Accounts) EnsureAdmin(ctx context.Context, email, password string) (user.User, bool, error) {
	existing, err := a.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.IsAdmin() {
			return existing, false, nil
		}
		promoted, err := a.users.SetUserPermission(ctx, existing.ID, user.PermissionAdmin, a.now().UTC())
		if err != nil {
			return user.User{}, false, fmt.Errorf("promote admin: %w", err)
		}
		return promoted, true, nil
	case !errors.Is(err, storage.ErrNotFound):
		return user.User{}, false, fmt.Errorf("look up admin: %w", err)
	}

	u, err := user.Register(user.RegisterInput{Email: email, Password: password}, a.now, a.idGenerator)
	if err != nil {
		return user.User{}, false, err
	}
	u.Permission = user.PermissionAdmin
	if err := a.users.PutUser(ctx, u); err != nil {
		return user.User{}, false, fmt.Errorf("create admin: %w", err)
	}
	return u, true, nil
}
