package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
	"github.com/louisbranch/cardtrainer/internal/platform/id"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/user"
)

const (
	defaultUserPageSize = 50
	maxUserPageSize     = 200
)

var errUserNotFound = apperrors.New(apperrors.CodeUserNotFound, "user not found")

type userPageResponse struct {
	Users         []user.User `json:"users"`
	NextPageToken string      `json:"nextPageToken,omitempty"`
}

type permissionRequest struct {
	Permission user.Permission `json:"permission"`
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	pageSize := defaultUserPageSize
	if raw := strings.TrimSpace(query.Get("pageSize")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 1 {
			s.writeError(w, r, apperrors.Wrap(apperrors.CodeInvalidRequest, "invalid page size",
				apperrors.Field("pageSize", "pageSize must be a positive integer")))
			return
		}
		pageSize = min(value, maxUserPageSize)
	}
	pageToken := strings.TrimSpace(query.Get("pageToken"))
	if pageToken != "" && !id.Valid(pageToken) {
		s.writeError(w, r, apperrors.Wrap(apperrors.CodeInvalidRequest, "invalid page token",
			apperrors.Field("pageToken", "pageToken is malformed")))
		return
	}
	page, err := s.store.ListUsers(r.Context(), pageSize, pageToken)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	users := page.Users
	if users == nil {
		users = []user.User{}
	}
	s.writeJSON(w, http.StatusOK, userPageResponse{Users: users, NextPageToken: page.NextPageToken})
}

func (s *Server) handleSetPermission(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if !id.Valid(userID) {
		s.writeError(w, r, errUserNotFound)
		return
	}
	var input permissionRequest
	if err := decodeJSON(w, r, &input, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if !input.Permission.Valid() {
		s.writeError(w, r, apperrors.Wrap(apperrors.CodeInvalidRequest, "invalid permission",
			apperrors.Field("permission", "permission must be 1 or 10")))
		return
	}
	updated, err := s.store.SetUserPermission(r.Context(), userID, input.Permission, s.now().UTC())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = errUserNotFound
		}
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}
