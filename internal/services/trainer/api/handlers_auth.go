package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
	"github.com/louisbranch/cardtrainer/internal/platform/i18n"
	"github.com/louisbranch/cardtrainer/internal/platform/requestctx"
	"github.com/louisbranch/cardtrainer/internal/platform/timeouts"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/auth"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/user"
	"go.uber.org/zap"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Message string    `json:"message"`
	User    user.User `json:"user"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Store)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var input user.RegisterInput
	if err := decodeJSON(w, r, &input, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.accounts.Register(r.Context(), input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.startSession(w, r, u); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, authResponse{Message: localize(r, "auth.register_ok"), User: u})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input loginRequest
	if err := decodeJSON(w, r, &input, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.accounts.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.startSession(w, r, u); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, authResponse{Message: localize(r, "auth.login_ok"), User: u})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token, ok := auth.ReadCookie(r); ok {
		if err := s.sessions.Destroy(r.Context(), token); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, r, err)
			return
		}
	}
	s.cookies.Clear(w)
	s.writeJSON(w, http.StatusOK, messageBody{Message: localize(r, "auth.logout_ok")})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	s.writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	current, _ := auth.UserFromContext(r.Context())
	var patch user.ProfilePatch
	if err := decodeJSON(w, r, &patch, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := user.ApplyProfile(current, patch, s.now)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.UpdateUser(r.Context(), updated); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleMintToken(w http.ResponseWriter, r *http.Request) {
	if s.tokens == nil {
		s.writeError(w, r, apperrors.New(apperrors.CodeNotFound, "bearer tokens are disabled"))
		return
	}
	u, _ := auth.UserFromContext(r.Context())
	token, expiresAt, err := s.tokens.Mint(u.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, tokenResponse{Token: token, TokenType: auth.TokenType, ExpiresAt: expiresAt})
}

// startSession replaces any existing login with a fresh session cookie.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, u user.User) error {
	if previous, ok := auth.ReadCookie(r); ok {
		if err := s.sessions.Destroy(r.Context(), previous); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("destroy previous session", zap.Error(err))
		}
	}
	token, expiresAt, err := s.sessions.Create(r.Context(), u.ID)
	if err != nil {
		return err
	}
	s.cookies.Write(w, token, expiresAt)
	return nil
}

func localize(r *http.Request, key string) string {
	return i18n.Sprintf(requestctx.LocaleFromContext(r.Context()), key)
}
