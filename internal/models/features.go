package models

import "time"

// NumFeatures is the width of the model input vector.
const NumFeatures = 20

// FeatureNames lists the model input columns in vector order.
var FeatureNames = [NumFeatures]string{
	"player_id", "rest_days", "opponent", "home",
	"avg_minutes_last5", "avg_points_last5", "avg_assists_last5",
	"avg_blocks_last5", "avg_steals_last5", "avg_fg_percent_last5",
	"avg_threepa_last5", "avg_threep_last5", "avg_threep_percent_last5",
	"avg_fta_last5", "avg_ft_last5", "avg_ft_percent_last5",
	"avg_total_rebounds_last5", "avg_personal_fouls_last5",
	"avg_turnovers_last5", "avg_did_play_last10",
}

// FeatureRow is one engineered row derived from a GameStatRecord and the
// player's prior history. Never persisted; recomputed on demand.
// Pointer fields are nil when the player has no prior records to derive
// them from (first record: no rest gap, no rolling window).
type FeatureRow struct {
	PlayerID     int64
	GameDate     time.Time
	RestDays     *float64
	OpponentCode int
	Home         int

	// Trailing means over the 5 most recent prior records, StatNames order.
	RollingMeans [NumStats]*float64

	// Fraction of the 10 most recent prior records with non-null minutes.
	PlayedRateLast10 *float64
}

// HasRolling reports whether the row has any prior history behind it.
// Rows without priors carry nil rolling means and are excluded from
// training tables.
func (f *FeatureRow) HasRolling() bool {
	return f.RollingMeans[0] != nil || f.RestDays != nil
}

// Vector flattens the row into the fixed 20-component model input.
// Nil components map to zero; the trainer and the reconstructor share
// this mapping so train and serve see identical inputs.
func (f *FeatureRow) Vector() [NumFeatures]float64 {
	var v [NumFeatures]float64
	v[0] = float64(f.PlayerID)
	v[1] = deref(f.RestDays)
	v[2] = float64(f.OpponentCode)
	v[3] = float64(f.Home)
	for i, m := range f.RollingMeans {
		v[4+i] = deref(m)
	}
	v[19] = deref(f.PlayedRateLast10)
	return v
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
