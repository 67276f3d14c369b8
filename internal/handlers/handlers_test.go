package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hoopmetrics/projection-api/internal/clean"
	"github.com/hoopmetrics/projection-api/internal/ingest"
	"github.com/hoopmetrics/projection-api/internal/models"
	"github.com/hoopmetrics/projection-api/internal/store"
)

type stubProjector struct {
	resp *models.PredictionResponse
	err  error
}

func (s *stubProjector) Predict(ctx context.Context, req models.PredictionRequest) (*models.PredictionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func newTestHandler(t *testing.T, st store.Store, proj Projector) *Handler {
	t.Helper()
	logger := zap.NewNop()
	return New(Config{
		Store:     st,
		Cleaner:   clean.New(clean.DefaultAliases),
		Ingestor:  ingest.NewIngestor(st, logger),
		Retention: ingest.NewRetentionManager(st, 15000, logger),
		Projector: proj,
		Logger:    logger,
	})
}

func testRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/api/v1/predict", h.Predict)
	r.Post("/api/v1/ingest/rows", h.IngestRows)
	r.Get("/api/v1/players", h.SearchPlayers)
	r.Get("/api/v1/players/{id}/games", h.PlayerGames)
	r.Get("/health", h.Health)
	return r
}

func TestPredictEndpoint(t *testing.T) {
	proj := &stubProjector{resp: &models.PredictionResponse{
		Player:      "LeBron James",
		Opponent:    "Boston Celtics",
		GameDate:    "2025-04-01",
		Predictions: map[string]float64{"points": 27.4},
	}}
	h := newTestHandler(t, store.NewMemory(), proj)
	router := testRouter(h)

	body := `{"player":"LeBron James","opponent":"Boston Celtics"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp models.PredictionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Predictions["points"] != 27.4 {
		t.Errorf("expected points 27.4, got %v", resp.Predictions["points"])
	}
}

func TestPredictEndpointValidation(t *testing.T) {
	h := newTestHandler(t, store.NewMemory(), &stubProjector{})
	router := testRouter(h)

	cases := []struct {
		name string
		body string
	}{
		{"missing player", `{"opponent":"Boston Celtics"}`},
		{"missing opponent", `{"player":"LeBron James"}`},
		{"bad home", `{"player":"LeBron James","opponent":"Boston Celtics","home":2}`},
		{"bad date", `{"player":"LeBron James","opponent":"Boston Celtics","game_date":"tomorrow"}`},
		{"invalid json", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(tc.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestPredictEndpointErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"unknown player", models.ErrNotFound, http.StatusNotFound},
		{"no history", models.ErrInsufficientData, http.StatusBadRequest},
		{"no model", models.ErrModelUnavailable, http.StatusServiceUnavailable},
		{"internal", fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(t, store.NewMemory(), &stubProjector{err: tc.err})
			router := testRouter(h)
			body := `{"player":"LeBron James","opponent":"Boston Celtics"}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func ingestLine(name, team, opponent, date, points string) string {
	parts := strings.SplitN(name, " ", 2)
	row := map[string]string{
		"gameDateTimeEst":  date,
		"firstName":        parts[0],
		"lastName":         parts[1],
		"playerteamCity":   strings.TrimSuffix(team, " "+lastWord(team)),
		"playerteamName":   lastWord(team),
		"opponentteamCity": strings.TrimSuffix(opponent, " "+lastWord(opponent)),
		"opponentteamName": lastWord(opponent),
		"win":              "1",
		"home":             "1",
		"numMinutes":       "32:30",
		"points":           points,
	}
	b, _ := json.Marshal(row)
	return string(b)
}

func lastWord(s string) string {
	fields := strings.Fields(s)
	return fields[len(fields)-1]
}

func TestIngestRowsEndpoint(t *testing.T) {
	st := store.NewMemory()
	h := newTestHandler(t, st, &stubProjector{})
	router := testRouter(h)

	var buf bytes.Buffer
	buf.WriteString(ingestLine("LeBron James", "Los Angeles Lakers", "Boston Celtics", "2025-04-01 19:30:00", "27") + "\n")
	buf.WriteString("{not json}\n")
	buf.WriteString(ingestLine("Jayson Tatum", "Boston Celtics", "Los Angeles Lakers", "2025-04-01 19:30:00", "31") + "\n")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/rows", &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp models.IngestResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Received != 3 || resp.Malformed != 1 || resp.Inserted != 2 {
		t.Errorf("unexpected counts: %+v", resp)
	}

	count, err := st.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 stored rows, got %d", count)
	}
}

type recordingArchive struct {
	names []string
	recs  []models.GameStatRecord
}

func (a *recordingArchive) EnqueueBatch(playerNames []string, recs []models.GameStatRecord) {
	a.names = append(a.names, playerNames...)
	a.recs = append(a.recs, recs...)
}

func TestIngestRowsArchivesOnlyCommittedRows(t *testing.T) {
	st := store.NewMemory()
	archive := &recordingArchive{}
	logger := zap.NewNop()
	h := New(Config{
		Store:     st,
		Cleaner:   clean.New(clean.DefaultAliases),
		Ingestor:  ingest.NewIngestor(st, logger),
		Retention: ingest.NewRetentionManager(st, 15000, logger),
		Projector: &stubProjector{},
		Archiver:  archive,
		Logger:    logger,
	})
	router := testRouter(h)

	body := ingestLine("LeBron James", "Los Angeles Lakers", "Boston Celtics", "2025-04-01 19:30:00", "27") + "\n"

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/rows", strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(archive.recs) != 1 || archive.recs[0].PlayerID == 0 {
		t.Fatalf("first post archived %d rows (resolved ids required), want 1", len(archive.recs))
	}

	// Reposting the same line drops it at the high-water mark; the archive
	// must not see it again.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/ingest/rows", strings.NewReader(body))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp models.IngestResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Dropped != 1 {
		t.Errorf("repost dropped %d, want 1", resp.Dropped)
	}
	if len(archive.recs) != 1 {
		t.Errorf("repost re-archived rows: %d total, want 1", len(archive.recs))
	}
}

func TestSearchPlayersEndpoint(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	if _, err := st.CreatePlayer(ctx, "LeBron James", "Los Angeles Lakers"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.CreatePlayer(ctx, "Jayson Tatum", "Boston Celtics"); err != nil {
		t.Fatal(err)
	}

	h := newTestHandler(t, st, &stubProjector{})
	router := testRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/players?search=james", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var players []models.Player
	if err := json.NewDecoder(w.Body).Decode(&players); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(players) != 1 || players[0].Name != "LeBron James" {
		t.Errorf("unexpected result: %+v", players)
	}
}

func TestPlayerGamesEndpointNewestFirst(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()
	p, err := st.CreatePlayer(ctx, "LeBron James", "Los Angeles Lakers")
	if err != nil {
		t.Fatal(err)
	}
	var recs []models.GameStatRecord
	for i := 0; i < 3; i++ {
		recs = append(recs, models.GameStatRecord{
			PlayerID: p.ID,
			Team:     p.Team,
			Opponent: "Boston Celtics",
			GameDate: time.Date(2025, 4, 1+i, 0, 0, 0, 0, time.UTC),
		})
	}
	if _, err := st.AppendBatch(ctx, recs); err != nil {
		t.Fatal(err)
	}

	h := newTestHandler(t, st, &stubProjector{})
	router := testRouter(h)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/players/%d/games?limit=2", p.ID), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var rows []models.GameStatRecord
	if err := json.NewDecoder(w.Body).Decode(&rows); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !rows[0].GameDate.After(rows[1].GameDate) {
		t.Errorf("expected newest first, got %v then %v", rows[0].GameDate, rows[1].GameDate)
	}

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/players/%d/games?limit=0", p.ID), nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for limit=0, got %d", w.Code)
	}
}
