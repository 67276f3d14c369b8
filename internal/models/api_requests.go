package models

// PredictionRequest is the body of POST /api/v1/predict.
// Home defaults to 1 (home game) and GameDate to the day after the
// player's last recorded game when omitted.
type PredictionRequest struct {
	Player   string `json:"player" validate:"required"`
	Opponent string `json:"opponent" validate:"required"`
	Home     *int   `json:"home,omitempty" validate:"omitempty,oneof=0 1"`
	GameDate string `json:"game_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type PredictionResponse struct {
	Player      string             `json:"player"`
	Opponent    string             `json:"opponent"`
	GameDate    string             `json:"game_date"`
	Predictions map[string]float64 `json:"predictions"`
}

// IngestResponse reports what happened to a JSON-lines ingest body.
type IngestResponse struct {
	Received  int `json:"received"`
	Malformed int `json:"malformed"`
	Inserted  int `json:"inserted"`
	Dropped   int `json:"dropped"`
	Evicted   int `json:"evicted"`
	Trades    int `json:"trades"`
}
