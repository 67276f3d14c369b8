// Package clean normalizes raw box-score rows into canonical records.
// Cleaning is best-effort: a stat that fails to parse degrades to null,
// only structural problems (missing identity columns, unparseable dates)
// reject the row.
package clean

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/hoopmetrics/projection-api/internal/models"
)

// ErrUnparseableDate rejects a row whose game date cannot be coerced to a
// calendar date. Callers skip such rows rather than aborting the batch.
var ErrUnparseableDate = errors.New("unparseable game date")

// DefaultAliases is the city substitution table applied to both team
// cities. The upstream feed abbreviates both Los Angeles franchises to
// "LA" in some exports.
var DefaultAliases = map[string]string{
	"LA": "Los Angeles",
}

var dateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006",
}

// Canonical is a cleaned row ready for ingestion. The embedded record has
// no player or row id yet; the ingestor resolves those.
type Canonical struct {
	PlayerName string
	Record     models.GameStatRecord
}

type Cleaner struct {
	aliases map[string]string
}

func New(aliases map[string]string) *Cleaner {
	if aliases == nil {
		aliases = DefaultAliases
	}
	return &Cleaner{aliases: aliases}
}

// ParseNumeric coerces a free-form value to a float. Missing, non-numeric
// and NaN inputs all yield nil; it never fails.
func ParseNumeric(value string) *float64 {
	s := strings.TrimSpace(value)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// ParseMinutes coerces a playing-time value. Accepts "MM:SS" (converted
// to decimal minutes, rounded to 2 places) as well as plain numbers.
func ParseMinutes(value string) *float64 {
	s := strings.TrimSpace(value)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil
	}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		mm, err1 := strconv.ParseFloat(s[:i], 64)
		ss, err2 := strconv.ParseFloat(s[i+1:], 64)
		if err1 != nil || err2 != nil {
			return nil
		}
		v := math.Round((mm+ss/60)*100) / 100
		return &v
	}
	return ParseNumeric(s)
}

// ParseDate coerces a timestamp-ish string to a calendar date (UTC
// midnight, no time component).
func ParseDate(value string) (time.Time, error) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, ErrUnparseableDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, value)
}

// Normalize maps one raw row to a canonical record. Pure, no store access.
// Returns ErrSchemaMismatch when identity columns are absent and
// ErrUnparseableDate when the game date cannot be coerced; stat columns
// degrade to null individually.
func (c *Cleaner) Normalize(raw models.RawRow) (*Canonical, error) {
	first := strings.TrimSpace(raw.FirstName)
	last := strings.TrimSpace(raw.LastName)
	if first == "" && last == "" {
		return nil, fmt.Errorf("%w: missing player name", models.ErrSchemaMismatch)
	}

	teamCity := c.alias(strings.TrimSpace(raw.PlayerTeamCity))
	teamName := strings.TrimSpace(raw.PlayerTeamName)
	oppCity := c.alias(strings.TrimSpace(raw.OpponentTeamCity))
	oppName := strings.TrimSpace(raw.OpponentTeamName)
	if teamName == "" || oppName == "" {
		return nil, fmt.Errorf("%w: missing team columns", models.ErrSchemaMismatch)
	}

	date, err := ParseDate(raw.GameDate)
	if err != nil {
		return nil, err
	}

	rec := models.GameStatRecord{
		GameDate: date,
		GameType: strings.TrimSpace(raw.GameType),
		Team:     joinTeam(teamCity, teamName),
		Opponent: joinTeam(oppCity, oppName),
		Win:      parseFlag(raw.Win),
		Home:     flagOrZero(raw.Home),
	}
	rec.SetStatValues([models.NumStats]*float64{
		ParseMinutes(raw.NumMinutes),
		ParseNumeric(raw.Points),
		ParseNumeric(raw.Assists),
		ParseNumeric(raw.Blocks),
		ParseNumeric(raw.Steals),
		ParseNumeric(raw.FieldGoalsPercentage),
		ParseNumeric(raw.ThreePointersAttempted),
		ParseNumeric(raw.ThreePointersMade),
		ParseNumeric(raw.ThreePointersPercentage),
		ParseNumeric(raw.FreeThrowsAttempted),
		ParseNumeric(raw.FreeThrowsMade),
		ParseNumeric(raw.FreeThrowsPercentage),
		ParseNumeric(raw.ReboundsTotal),
		ParseNumeric(raw.FoulsPersonal),
		ParseNumeric(raw.Turnovers),
	})

	return &Canonical{
		PlayerName: strings.TrimSpace(first + " " + last),
		Record:     rec,
	}, nil
}

func (c *Cleaner) alias(city string) string {
	if sub, ok := c.aliases[city]; ok {
		return sub
	}
	return city
}

func joinTeam(city, name string) string {
	if city == "" {
		return name
	}
	return city + " " + name
}

// parseFlag coerces a win/loss style column to 0/1, nil when unknown.
func parseFlag(value string) *int {
	f := ParseNumeric(value)
	if f == nil {
		return nil
	}
	v := 0
	if *f >= 0.5 {
		v = 1
	}
	return &v
}

func flagOrZero(value string) int {
	if v := parseFlag(value); v != nil {
		return *v
	}
	return 0
}
