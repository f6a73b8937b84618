package api

import (
	"errors"
	"net/http"

	apperrors "github.com/louisbranch/cardtrainer/internal/platform/errors"
	"github.com/louisbranch/cardtrainer/internal/platform/id"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/card"
	"github.com/louisbranch/cardtrainer/internal/services/trainer/storage"
)

var errCardNotFound = apperrors.New(apperrors.CodeCardNotFound, "card not found")

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.store.ListCards(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	c, err := s.loadCard(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleCreateCard(w http.ResponseWriter, r *http.Request) {
	var input card.CreateInput
	if err := decodeJSON(w, r, &input, false); err != nil {
		s.writeError(w, r, apperrors.Wrap(apperrors.CodeInvalidCardData, "decode card", err))
		return
	}
	c, err := card.New(input, s.now, s.newID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.PutCard(r.Context(), c); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCard(w http.ResponseWriter, r *http.Request) {
	var patch card.Patch
	if err := decodeJSON(w, r, &patch, false); err != nil {
		s.writeError(w, r, apperrors.Wrap(apperrors.CodeInvalidCardData, "decode card", err))
		return
	}
	current, err := s.loadCard(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	updated, err := card.Apply(current, patch, s.now)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.UpdateCard(r.Context(), updated); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = errCardNotFound
		}
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	cardID := r.PathValue("id")
	if id.Valid(cardID) {
		if err := s.store.DeleteCard(r.Context(), cardID); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// loadCard fetches the card named by the {id} path value. Ids that are not
// UUIDs cannot exist and are reported as missing without a query.
func (s *Server) loadCard(r *http.Request) (card.Card, error) {
	cardID := r.PathValue("id")
	if !id.Valid(cardID) {
		return card.Card{}, errCardNotFound
	}
	c, err := s.store.GetCard(r.Context(), cardID)
	if errors.Is(err, storage.ErrNotFound) {
		return card.Card{}, errCardNotFound
	}
	return c, err
}
