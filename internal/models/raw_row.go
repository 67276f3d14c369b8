package models

// RawRow is one line of the upstream box-score feed, untouched except for
// JSON/CSV decoding. Every field is a string because the feed is free-form:
// minutes arrive as "23:31" or "23.5", percentages as "0.444" or empty,
// and the cleaner owns all coercion.
type RawRow struct {
	GameDate         string `json:"gameDateTimeEst"`
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	PlayerTeamCity   string `json:"playerteamCity"`
	PlayerTeamName   string `json:"playerteamName"`
	OpponentTeamCity string `json:"opponentteamCity"`
	OpponentTeamName string `json:"opponentteamName"`
	GameType         string `json:"gameType"`
	GameLabel        string `json:"gameLabel"`
	GameSubLabel     string `json:"gameSubLabel"`
	Win              string `json:"win"`
	Home             string `json:"home"`

	NumMinutes             string `json:"numMinutes"`
	Points                 string `json:"points"`
	Assists                string `json:"assists"`
	Blocks                 string `json:"blocks"`
	Steals                 string `json:"steals"`
	FieldGoalsAttempted    string `json:"fieldGoalsAttempted"`
	FieldGoalsMade         string `json:"fieldGoalsMade"`
	FieldGoalsPercentage   string `json:"fieldGoalsPercentage"`
	ThreePointersAttempted string `json:"threePointersAttempted"`
	ThreePointersMade      string `json:"threePointersMade"`
	ThreePointersPercentage string `json:"threePointersPercentage"`
	FreeThrowsAttempted    string `json:"freeThrowsAttempted"`
	FreeThrowsMade         string `json:"freeThrowsMade"`
	FreeThrowsPercentage   string `json:"freeThrowsPercentage"`
	ReboundsDefensive      string `json:"reboundsDefensive"`
	ReboundsOffensive      string `json:"reboundsOffensive"`
	ReboundsTotal          string `json:"reboundsTotal"`
	FoulsPersonal          string `json:"foulsPersonal"`
	Turnovers              string `json:"turnovers"`
	PlusMinusPoints        string `json:"plusMinusPoints"`
}
