package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/hoopmetrics/projection-api/internal/clean"
	"github.com/hoopmetrics/projection-api/internal/models"
)

// IngestRows handles POST /api/v1/ingest/rows
// @Summary Ingest Game Stat Rows
// @Description Accepts newline-separated JSON rows from the stat feed
// @Tags Ingestion
// @Accept json
// @Produce json
// @Param body body []models.RawRow true "Rows"
// @Success 200 {object} models.IngestResponse
// @Failure 413 {object} map[string]string "Body Too Large"
// @Router /ingest/rows [post]
func (h *Handler) IngestRows(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	defer r.Body.Close()

	var (
		received  int
		malformed int
		rows      []clean.Canonical
	)
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		received++

		var raw models.RawRow
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			h.logger.Warnw("Failed to unmarshal row in batch", "error", err)
			malformed++
			continue
		}

		canonical, err := h.cleaner.Normalize(raw)
		if err != nil {
			h.logger.Warnw("Dropping unusable row", "error", err, "player", raw.FirstName+" "+raw.LastName)
			malformed++
			continue
		}
		rows = append(rows, *canonical)
	}

	result, err := h.ingestor.IngestBatch(r.Context(), rows)
	if err != nil {
		h.logger.Errorw("Ingest batch failed", "error", err, "rows", len(rows))
		h.errorResponse(w, http.StatusInternalServerError, "Failed to ingest rows")
		return
	}

	// Archive only the committed rows; stale rows the high-water mark
	// dropped must not be re-exported on every repost.
	if h.archiver != nil && len(result.Records) > 0 {
		h.archiver.EnqueueBatch(result.Names, result.Records)
	}

	evicted, err := h.retention.Enforce(r.Context())
	if err != nil {
		h.logger.Errorw("Retention enforcement failed", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to enforce retention cap")
		return
	}

	h.jsonResponse(w, http.StatusOK, models.IngestResponse{
		Received:  received,
		Malformed: malformed,
		Inserted:  result.Inserted,
		Dropped:   result.Dropped,
		Evicted:   evicted,
		Trades:    len(result.Trades),
	})
}
