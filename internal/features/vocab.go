package features

import "strings"

// Opponent encoding uses one fixed vocabulary compiled into the binary so
// every training run and every inference call sees the same code for the
// same franchise. Codes are positions in the alphabetical full-name list;
// appending new franchises keeps existing codes stable.
var teamVocabulary = [...]string{
	"Atlanta Hawks",
	"Boston Celtics",
	"Brooklyn Nets",
	"Charlotte Hornets",
	"Chicago Bulls",
	"Cleveland Cavaliers",
	"Dallas Mavericks",
	"Denver Nuggets",
	"Detroit Pistons",
	"Golden State Warriors",
	"Houston Rockets",
	"Indiana Pacers",
	"Los Angeles Clippers",
	"Los Angeles Lakers",
	"Memphis Grizzlies",
	"Miami Heat",
	"Milwaukee Bucks",
	"Minnesota Timberwolves",
	"New Orleans Pelicans",
	"New York Knicks",
	"Oklahoma City Thunder",
	"Orlando Magic",
	"Philadelphia 76ers",
	"Phoenix Suns",
	"Portland Trail Blazers",
	"Sacramento Kings",
	"San Antonio Spurs",
	"Toronto Raptors",
	"Utah Jazz",
	"Washington Wizards",
}

// UnknownTeamCode is returned for opponents outside the vocabulary.
const UnknownTeamCode = -1

var teamCodes map[string]int

func init() {
	teamCodes = make(map[string]int, len(teamVocabulary)*2)
	for code, full := range teamVocabulary {
		teamCodes[strings.ToLower(full)] = code
		// Nickname alone ("Lakers") also resolves; prediction requests
		// often omit the city.
		if i := strings.LastIndexByte(full, ' '); i >= 0 {
			nick := strings.ToLower(full[i+1:])
			if _, taken := teamCodes[nick]; !taken {
				teamCodes[nick] = code
			}
		}
	}
	// "Trail Blazers" spans two words, the single-word split above yields
	// "blazers"; register the common two-word nickname too.
	teamCodes["trail blazers"] = teamCodes["portland trail blazers"]
}

// EncodeTeam maps an opponent string to its fixed integer code,
// UnknownTeamCode when the franchise is not in the vocabulary.
func EncodeTeam(name string) int {
	if code, ok := teamCodes[strings.ToLower(strings.TrimSpace(name))]; ok {
		return code
	}
	return UnknownTeamCode
}
