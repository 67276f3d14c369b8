package predict

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/hoopmetrics/projection-api/internal/clean"
	"github.com/hoopmetrics/projection-api/internal/features"
	"github.com/hoopmetrics/projection-api/internal/models"
	"github.com/hoopmetrics/projection-api/internal/store"
)

// DefaultHistoryWindow is how many recent records feed a reconstruction.
const DefaultHistoryWindow = 50

var predictionsServed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "projection_predictions_total",
	Help: "Prediction requests by outcome",
}, []string{"outcome"})

// Reconstructor builds the synthetic next-game row for a prediction
// request and runs it through the same feature engine the trainer uses.
// Read-only: the synthetic row never touches the store.
type Reconstructor struct {
	store         store.Store
	engine        *features.Engine
	model         *Handle
	historyWindow int
	logger        *zap.SugaredLogger
}

func NewReconstructor(st store.Store, engine *features.Engine, model *Handle, historyWindow int, logger *zap.Logger) *Reconstructor {
	if historyWindow <= 0 {
		historyWindow = DefaultHistoryWindow
	}
	return &Reconstructor{
		store:         st,
		engine:        engine,
		model:         model,
		historyWindow: historyWindow,
		logger:        logger.Sugar(),
	}
}

// Predict resolves the player, reconstructs the synthetic row and returns
// the model's stat line keyed by StatNames.
func (r *Reconstructor) Predict(ctx context.Context, req models.PredictionRequest) (*models.PredictionResponse, error) {
	player, err := r.store.PlayerByName(ctx, req.Player)
	if err != nil {
		predictionsServed.WithLabelValues("not_found").Inc()
		return nil, err
	}

	history, err := r.store.RowsForPlayer(ctx, player.ID, r.historyWindow)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	if len(history) == 0 {
		predictionsServed.WithLabelValues("no_history").Inc()
		return nil, fmt.Errorf("no game stats for player %q: %w", player.Name, models.ErrInsufficientData)
	}

	gameDate, err := r.targetDate(req.GameDate, history)
	if err != nil {
		predictionsServed.WithLabelValues("bad_request").Inc()
		return nil, err
	}

	home := 1
	if req.Home != nil {
		home = *req.Home
	}

	// Synthetic next-game row: requested opponent/home/date, every stat
	// null. Appended after the real history so the engine derives its
	// rest days and trailing windows from the same priors training saw.
	synthetic := models.GameStatRecord{
		PlayerID: player.ID,
		GameDate: gameDate,
		Opponent: req.Opponent,
		Home:     home,
	}
	combined := append(append([]models.GameStatRecord{}, history...), synthetic)

	rows := r.engine.Compute(combined)
	row := rows[len(rows)-1]
	if !row.GameDate.Equal(gameDate) {
		return nil, fmt.Errorf("%w: synthetic row missing from feature output", models.ErrPipeline)
	}

	model, err := r.model.Get(ctx)
	if err != nil {
		predictionsServed.WithLabelValues("model_unavailable").Inc()
		return nil, err
	}

	stats := model.Predict(row.Vector())
	predictions := make(map[string]float64, models.NumStats)
	for i, name := range models.StatNames {
		predictions[name] = stats[i]
	}

	predictionsServed.WithLabelValues("ok").Inc()
	r.logger.Debugw("Prediction served",
		"player", player.Name,
		"opponent", req.Opponent,
		"gameDate", gameDate.Format("2006-01-02"),
	)

	return &models.PredictionResponse{
		Player:      player.Name,
		Opponent:    req.Opponent,
		GameDate:    gameDate.Format("2006-01-02"),
		Predictions: predictions,
	}, nil
}

// targetDate picks the requested date or the player's last game plus one.
// A requested date at or before the last recorded game is rejected: the
// synthetic row sits after the full history, so a backdated date would
// produce negative rest days and windows containing later games.
func (r *Reconstructor) targetDate(requested string, history []models.GameStatRecord) (time.Time, error) {
	last := history[len(history)-1].GameDate
	if requested == "" {
		return last.AddDate(0, 0, 1), nil
	}
	date, err := clean.ParseDate(requested)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: game_date %q", models.ErrValidation, requested)
	}
	if !date.After(last) {
		return time.Time{}, fmt.Errorf("%w: game_date %q is not after the player's last recorded game (%s)",
			models.ErrValidation, requested, last.Format("2006-01-02"))
	}
	return date, nil
}
