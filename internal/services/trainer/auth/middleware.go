package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
	"github.com/louisbranch/cardtrainer/internal/platform/logging"
	"github.com/louisbranch/cardtrainer/internal/platform/requestctx"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/user"
	"go.uber.org/zap"
)

// ErrAdminRequired is returned when a non-admin reaches an admin route.
var ErrAdminRequired = apperrors.New(apperrors.CodeForbidden, "admin access required")

type userKey struct{}

// WithUser stores the authenticated user on ctx.
func WithUser(ctx context.Context, u user.User) context.Context {
	ctx = context.WithValue(ctx, userKey{}, u)
	return requestctx.WithUserID(ctx, u.ID)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (user.User, bool) {
	if ctx == nil {
		return user.User{}, false
	}
	u, ok := ctx.Value(userKey{}).(user.User)
	return u, ok
}

// ErrorWriter renders an error response.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Authenticator resolves request credentials into a user.
type Authenticator struct {
	sessions *Sessions
	tokens   *Tokens
	users    storage.UserStore
	writeErr ErrorWriter
	logger   *zap.Logger
}

// NewAuthenticator builds the middleware. tokens may be nil to disable
// bearer authentication.
func NewAuthenticator(sessions *Sessions, tokens *Tokens, users storage.UserStore, writeErr ErrorWriter, logger *zap.Logger) *Authenticator {
	if writeErr == nil {
		writeErr = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), apperrors.GetCode(err).HTTPStatus())
		}
	}
	return &Authenticator{sessions: sessions, tokens: tokens, users: users, writeErr: writeErr, logger: logging.OrNop(logger)}
}

// Authenticate resolves the request's bearer token or session cookie. The
// bearer header wins when both are present.
func (a *Authenticator) Authenticate(r *http.Request) (user.User, error) {
	var (
		userID string
		err    error
	)
	if token, ok := bearerToken(r); ok {
		if a.tokens == nil {
			return user.User{}, ErrUnauthenticated
		}
		userID, err = a.tokens.Verify(token)
	} else if token, ok := ReadCookie(r); ok {
		userID, err = a.sessions.Lookup(r.Context(), token)
	} else {
		return user.User{}, ErrUnauthenticated
	}
	if err != nil {
		return user.User{}, err
	}

	u, err := a.users.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return user.User{}, ErrUnauthenticated
		}
		return user.User{}, err
	}
	return u, nil
}

// Middleware attaches the authenticated user to the request context when
// credentials are valid. Anonymous requests pass through untouched.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := a.Authenticate(r)
		if err != nil {
			if !errors.Is(err, ErrUnauthenticated) {
				a.logger.Warn("authenticate request", zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// RequireUser rejects requests without an authenticated user.
func (a *Authenticator) RequireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			a.writeErr(w, r, ErrUnauthenticated)
			return
		}
		next(w, r)
	}
}

// RequireAdmin rejects requests from anyone but admins.
func (a *Authenticator) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok {
			a.writeErr(w, r, ErrUnauthenticated)
			return
		}
		if !u.IsAdmin() {
			a.writeErr(w, r, ErrAdminRequired)
			return
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	if r == nil {
		return "", false
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, TokenType) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
