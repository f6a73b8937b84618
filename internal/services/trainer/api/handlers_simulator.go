package api

import (
	"net/http"

	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
	"github.com/louisbranch/cardtrainer/internal/platform/requestctx"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/auth"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/simulator"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/training"
)

type guessRequest struct {
	Guess *int `json:"guess"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	var input simulator.SettingsInput
	if err := decodeJSON(w, r, &input, true); err != nil {
		s.writeError(w, r, apperrors.Wrap(apperrors.CodeInvalidSettings, "decode simulator settings", err))
		return
	}
	settings, err := input.Resolve()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	catalog, err := s.store.ListCards(r.Context(), "")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	view, err := s.games.Create(u.ID, settings, catalog, requestctx.LocaleFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	view, err := s.games.Get(u.ID, r.PathValue("id"), requestctx.LocaleFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleNextRound(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	view, err := s.games.NextRound(u.ID, r.PathValue("id"), requestctx.LocaleFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	var input guessRequest
	if err := decodeJSON(w, r, &input, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if input.Guess == nil {
		s.writeError(w, r, apperrors.Wrap(apperrors.CodeInvalidRequest, "guess is required",
			apperrors.Field("guess", "guess is required")))
		return
	}
	view, err := s.games.Guess(u.ID, r.PathValue("id"), *input.Guess, requestctx.LocaleFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleFinishGame(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.UserFromContext(r.Context())
	var saved training.Session
	err := s.games.Finish(u.ID, r.PathValue("id"), func(input training.CreateInput) error {
		session, err := training.New(u.ID, input, s.now, s.newID)
		if err != nil {
			return err
		}
		if err := s.store.PutTrainingSession(r.Context(), session); err != nil {
			return err
		}
		saved = session
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, saved)
}
