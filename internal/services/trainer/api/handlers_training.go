package api

import (
	"net/http"

	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/auth"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/training"
)

func (s *Server) handleCreateTrainingSession(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	var input training.CreateInput
	if err := decodeJSON(w, r, &input, false); err != nil {
		s.writeError(w, r, apperrors.Wrap(apperrors.CodeInvalidSessionData, "decode training session", err))
		return
	}
	session, err := training.New(u.ID, input, s.now, s.newID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.PutTrainingSession(r.Context(), session); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListTrainingSessions(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	sessions, err := s.store.ListTrainingSessions(r.Context(), u.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []training.Session{}
	}
	s.writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	mode, err := training.ParseMode(r.PathValue("mode"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entries, err := s.store.TopScores(r.Context(), mode, training.ParseLimit(r.URL.Query().Get("limit")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []training.LeaderboardEntry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}
