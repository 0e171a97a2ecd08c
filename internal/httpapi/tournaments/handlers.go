// Package tournaments serves read-only tournament data on gated routes.
package tournaments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/tourneyhub/tourney-server/internal/storage"
)

// RegisterRoutes mounts tournament routes beneath /v1/tournaments. All of
// them sit behind the bearer gate.
func RegisterRoutes(router chi.Router, store storage.TournamentStore, logger zerolog.Logger) {
	h := &Handler{store: store, logger: logger.With().Str("component", "tournament_handlers").Logger()}
	router.Route("/v1/tournaments", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{tournamentID}", h.Get)
		r.Get("/{tournamentID}/stages", h.Stages)
	})
}

// Handler serves tournament read endpoints.
type Handler struct {
	store  storage.TournamentStore
	logger zerolog.Logger
}

// List returns all tournaments.
// GET /v1/tournaments
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.store.ListTournaments(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("error listing tournaments")
		http.Error(w, "error listing tournaments", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tournaments)
}

// Get returns one tournament by id.
// GET /v1/tournaments/{tournamentID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	tournament, err := h.store.GetTournament(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "tournament not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Int32("tournament_id", id).Msg("error loading tournament")
		http.Error(w, "error loading tournament", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tournament)
}

// Stages returns a tournament's stages in order.
// GET /v1/tournaments/{tournamentID}/stages
func (h *Handler) Stages(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	stages, err := h.store.ListStages(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "tournament not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Int32("tournament_id", id).Msg("error listing stages")
		http.Error(w, "error listing stages", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stages)
}

func parseID(w http.ResponseWriter, r *http.Request) (int32, bool) {
	raw := chi.URLParam(r, "tournamentID")
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		http.Error(w, "invalid tournament id", http.StatusBadRequest)
		return 0, false
	}
	return int32(id), true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
