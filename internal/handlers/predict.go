package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hoopmetrics/projection-api/internal/models"
)

// Predict handles POST /api/v1/predict
// @Summary Project a player's stat line for an upcoming game
// @Tags Predictions
// @Accept json
// @Produce json
// @Param body body models.PredictionRequest true "Prediction Request"
// @Success 200 {object} models.PredictionResponse
// @Failure 400 {object} map[string]string "Bad Request"
// @Failure 404 {object} map[string]string "Player Not Found"
// @Failure 503 {object} map[string]string "Model Unavailable"
// @Router /predict [post]
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req models.PredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	resp, err := h.projector.Predict(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			h.errorResponse(w, http.StatusNotFound, "Player not found")
		case errors.Is(err, models.ErrInsufficientData):
			h.errorResponse(w, http.StatusBadRequest, "No game history for player")
		case errors.Is(err, models.ErrValidation):
			h.errorResponse(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, models.ErrModelUnavailable):
			h.errorResponse(w, http.StatusServiceUnavailable, "No trained model is available yet")
		default:
			h.logger.Errorw("Prediction failed", "error", err, "player", req.Player)
			h.errorResponse(w, http.StatusInternalServerError, "Failed to generate prediction")
		}
		return
	}

	h.jsonResponse(w, http.StatusOK, resp)
}
