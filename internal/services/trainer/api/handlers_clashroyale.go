package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/louisbranch/cardtrainer/internal/services/trainer/clashroyale"
	"go.uber.org/zap"
)

// proxyTag serves an upstream lookup keyed by the {tag} path value.
func (s *Server) proxyTag(fetch func(context.Context, string) (json.RawMessage, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := fetch(r.Context(), r.PathValue("tag"))
		s.writeProxied(w, r, body, err)
	}
}

func (s *Server) handleSearchClans(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	body, err := s.clashRoyale.SearchClans(r.Context(), clashroyale.ClanSearch{
		Name:       query.Get("name"),
		LocationID: query.Get("locationId"),
		MinMembers: query.Get("minMembers"),
		MaxMembers: query.Get("maxMembers"),
		MinScore:   query.Get("minScore"),
	})
	s.writeProxied(w, r, body, err)
}

func (s *Server) handleSearchTournaments(w http.ResponseWriter, r *http.Request) {
	body, err := s.clashRoyale.SearchTournaments(r.Context(), r.URL.Query().Get("name"))
	s.writeProxied(w, r, body, err)
}

func (s *Server) handleClashRoyaleCards(w http.ResponseWriter, r *http.Request) {
	body, err := s.clashRoyale.Cards(r.Context())
	s.writeProxied(w, r, body, err)
}

func (s *Server) writeProxied(w http.ResponseWriter, r *http.Request, body json.RawMessage, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := WriteRawJSON(w, http.StatusOK, body); err != nil {
		s.logger.Debug("write proxied response", zap.Error(err))
	}
}
