// Package features derives model inputs from game stat history. The
// engine is the single code path for both training-table construction and
// inference-time reconstruction; any behavior change here changes the
// model contract.
package features

import (
	"github.com/hoopmetrics/projection-api/internal/models"
)

const (
	// DefaultRollingWindow is the trailing window for per-stat means.
	DefaultRollingWindow = 5
	// DefaultPlayedRateWindow is the trailing window for the played rate.
	DefaultPlayedRateWindow = 10
)

// Engine computes engineered feature rows. Pure: same history in, same
// rows out, no store access, no clock.
type Engine struct {
	rollingWindow    int
	playedRateWindow int
}

func NewEngine(rollingWindow, playedRateWindow int) *Engine {
	if rollingWindow <= 0 {
		rollingWindow = DefaultRollingWindow
	}
	if playedRateWindow <= 0 {
		playedRateWindow = DefaultPlayedRateWindow
	}
	return &Engine{rollingWindow: rollingWindow, playedRateWindow: playedRateWindow}
}

// Compute returns one FeatureRow per input record, in input order.
// History must be ordered oldest-first; records of different players may
// interleave, priors are tracked per player. The current record never
// contributes to its own windows.
func (e *Engine) Compute(history []models.GameStatRecord) []models.FeatureRow {
	rows := make([]models.FeatureRow, 0, len(history))
	priors := make(map[int64][]*models.GameStatRecord)

	for i := range history {
		rec := &history[i]
		prev := priors[rec.PlayerID]

		row := models.FeatureRow{
			PlayerID:     rec.PlayerID,
			GameDate:     rec.GameDate,
			OpponentCode: EncodeTeam(rec.Opponent),
			Home:         rec.Home,
		}

		if n := len(prev); n > 0 {
			days := rec.GameDate.Sub(prev[n-1].GameDate).Hours() / 24
			row.RestDays = &days
			row.RollingMeans = rollingMeans(tail(prev, e.rollingWindow))
			row.PlayedRateLast10 = playedRate(tail(prev, e.playedRateWindow))
		}

		rows = append(rows, row)
		priors[rec.PlayerID] = append(prev, rec)
	}

	return rows
}

// tail returns the up-to-n most recent priors, oldest-first.
func tail(recs []*models.GameStatRecord, n int) []*models.GameStatRecord {
	if len(recs) <= n {
		return recs
	}
	return recs[len(recs)-n:]
}

// rollingMeans averages each stat over the window, skipping nulls. A stat
// that is null across the whole window stays null rather than becoming
// zero; an absent game is not a zero-point game.
func rollingMeans(window []*models.GameStatRecord) [models.NumStats]*float64 {
	var sums [models.NumStats]float64
	var counts [models.NumStats]int
	for _, rec := range window {
		for i, v := range rec.StatValues() {
			if v != nil {
				sums[i] += *v
				counts[i]++
			}
		}
	}

	var means [models.NumStats]*float64
	for i := range sums {
		if counts[i] > 0 {
			m := sums[i] / float64(counts[i])
			means[i] = &m
		}
	}
	return means
}

// playedRate is the fraction of window records with non-null minutes.
func playedRate(window []*models.GameStatRecord) *float64 {
	if len(window) == 0 {
		return nil
	}
	played := 0
	for _, rec := range window {
		if rec.Minutes != nil {
			played++
		}
	}
	rate := float64(played) / float64(len(window))
	return &rate
}
