package models

import "time"

// Player is an identity row. Players are created on first sighting of a
// name and never deleted; Team is overwritten in place when a trade is
// detected during ingestion.
type Player struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Team string `json:"team"`
}

// NumStats is the number of numeric box-score fields tracked per game.
const NumStats = 15

// StatNames lists the numeric stat fields of a GameStatRecord in the
// canonical order used for rolling features, training targets and the
// prediction response. Do not reorder: the model's output vector is
// defined against this order.
var StatNames = [NumStats]string{
	"minutes", "points", "assists", "blocks", "steals", "fg_percent",
	"threepa", "threep", "threep_percent", "fta", "ft", "ft_percent",
	"total_rebounds", "personal_fouls", "turnovers",
}

// GameStatRecord is one cleaned box-score line. Immutable once stored.
// Stat fields are pointers because every one of them is independently
// nullable in the source data.
type GameStatRecord struct {
	ID       int64     `json:"id"`
	PlayerID int64     `json:"player_id"`
	GameDate time.Time `json:"game_date"`
	GameType string    `json:"game_type,omitempty"`
	Team     string    `json:"team"`
	Opponent string    `json:"opponent"`
	Win      *int      `json:"win"`
	Home     int       `json:"home"`

	Minutes       *float64 `json:"minutes"`
	Points        *float64 `json:"points"`
	Assists       *float64 `json:"assists"`
	Blocks        *float64 `json:"blocks"`
	Steals        *float64 `json:"steals"`
	FGPercent     *float64 `json:"fg_percent"`
	ThreePA       *float64 `json:"threepa"`
	ThreeP        *float64 `json:"threep"`
	ThreePPercent *float64 `json:"threep_percent"`
	FTA           *float64 `json:"fta"`
	FT            *float64 `json:"ft"`
	FTPercent     *float64 `json:"ft_percent"`
	TotalRebounds *float64 `json:"total_rebounds"`
	PersonalFouls *float64 `json:"personal_fouls"`
	Turnovers     *float64 `json:"turnovers"`
}

// StatValues returns the numeric stat fields in StatNames order.
func (r *GameStatRecord) StatValues() [NumStats]*float64 {
	return [NumStats]*float64{
		r.Minutes, r.Points, r.Assists, r.Blocks, r.Steals, r.FGPercent,
		r.ThreePA, r.ThreeP, r.ThreePPercent, r.FTA, r.FT, r.FTPercent,
		r.TotalRebounds, r.PersonalFouls, r.Turnovers,
	}
}

// SetStatValues assigns the numeric stat fields from StatNames order.
func (r *GameStatRecord) SetStatValues(vals [NumStats]*float64) {
	r.Minutes, r.Points, r.Assists, r.Blocks, r.Steals, r.FGPercent = vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]
	r.ThreePA, r.ThreeP, r.ThreePPercent, r.FTA, r.FT, r.FTPercent = vals[6], vals[7], vals[8], vals[9], vals[10], vals[11]
	r.TotalRebounds, r.PersonalFouls, r.Turnovers = vals[12], vals[13], vals[14]
}

// TradeEvent is emitted by the ingestor when an incoming row carries a
// different team than the player's stored one.
type TradeEvent struct {
	PlayerID   int64  `json:"player_id"`
	PlayerName string `json:"player_name"`
	FromTeam   string `json:"from_team"`
	ToTeam     string `json:"to_team"`
}
