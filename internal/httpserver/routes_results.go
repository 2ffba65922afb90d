// internal/httpserver/routes_results.go
//
// Finished-game history.
//   - GET    /results       → every summary in insertion order (?player= filters)
//   - DELETE /results/{id}  → remove one summary (signed in)
//   - DELETE /results       → remove all summaries (signed in)

package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/edit0rsky/NumberGame/internal/record"
)

func (s *Server) mountResults(r chi.Router) {
	r.Route("/results", func(r chi.Router) {
		r.Get("/", s.handleListResults)
		r.With(s.requireAuth()).Delete("/", s.handleClearResults)
		r.With(s.requireAuth()).Delete("/{id}", s.handleRemoveResult)
	})
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	all, err := s.results.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list results")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	player := r.URL.Query().Get("player")
	out := make([]record.Summary, 0, len(all))
	for _, sum := range all {
		if player == "" || sum.Player == player {
			out = append(out, sum)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRemoveResult(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id")
		return
	}
	switch err := s.results.Remove(r.Context(), id); {
	case errors.Is(err, record.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case err != nil:
		log.Error().Err(err).Msg("remove result")
		writeError(w, http.StatusInternalServerError, "db_error")
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func (s *Server) handleClearResults(w http.ResponseWriter, r *http.Request) {
	if err := s.results.Clear(r.Context()); err != nil {
		log.Error().Err(err).Msg("clear results")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
