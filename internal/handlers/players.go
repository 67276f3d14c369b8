package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

const (
	defaultSearchLimit = 50
	maxGamesLimit      = 100
)

// SearchPlayers handles GET /api/v1/players?search=
// @Summary Search Players
// @Tags Players
// @Produce json
// @Param search query string false "Name or team substring"
// @Success 200 {array} models.Player
// @Router /players [get]
func (h *Handler) SearchPlayers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("search")

	players, err := h.store.SearchPlayers(r.Context(), query, defaultSearchLimit)
	if err != nil {
		h.logger.Errorw("Failed to search players", "error", err, "query", query)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to search players")
		return
	}

	h.jsonResponse(w, http.StatusOK, players)
}

// PlayerGames handles GET /api/v1/players/{id}/games
// Returns the player's recent game log, newest first.
// @Summary Get Player Game Log
// @Tags Players
// @Produce json
// @Param id path int true "Player ID"
// @Param limit query int false "Max games (default 20, cap 100)"
// @Success 200 {array} models.GameStatRecord
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /players/{id}/games [get]
func (h *Handler) PlayerGames(w http.ResponseWriter, r *http.Request) {
	playerID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid player id")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.errorResponse(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}
	if limit > maxGamesLimit {
		limit = maxGamesLimit
	}

	rows, err := h.store.RowsForPlayer(r.Context(), playerID, limit)
	if err != nil {
		h.logger.Errorw("Failed to load game log", "error", err, "playerID", playerID)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to load game log")
		return
	}

	// Store order is oldest-first; the game log reads newest-first.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	h.jsonResponse(w, http.StatusOK, rows)
}
