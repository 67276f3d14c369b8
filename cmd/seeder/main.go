package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const API_URL = "http://localhost:8080/api/v1/ingest/rows"

// Row matches the raw feed shape (simplified to the fields the cleaner
// cares about).
type Row struct {
	GameDate string `json:"gameDateTimeEst"`

	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	PlayerTeamCity   string `json:"playerteamCity"`
	PlayerTeamName   string `json:"playerteamName"`
	OpponentTeamCity string `json:"opponentteamCity"`
	OpponentTeamName string `json:"opponentteamName"`

	Win  string `json:"win"`
	Home string `json:"home"`

	NumMinutes    string `json:"numMinutes"`
	Points        string `json:"points"`
	Assists       string `json:"assists"`
	ReboundsTotal string `json:"reboundsTotal"`
}

func main() {
	rows := []Row{
		{
			GameDate:         time.Now().AddDate(0, 0, -2).Format("2006-01-02 19:30:00"),
			FirstName:        "LeBron",
			LastName:         "James",
			PlayerTeamCity:   "Los Angeles",
			PlayerTeamName:   "Lakers",
			OpponentTeamCity: "Boston",
			OpponentTeamName: "Celtics",
			Win:              "1",
			Home:             "1",
			NumMinutes:       "36:42",
			Points:           "28",
			Assists:          "9",
			ReboundsTotal:    "7",
		},
		{
			GameDate:         time.Now().AddDate(0, 0, -1).Format("2006-01-02 19:30:00"),
			FirstName:        "LeBron",
			LastName:         "James",
			PlayerTeamCity:   "Los Angeles",
			PlayerTeamName:   "Lakers",
			OpponentTeamCity: "Golden State",
			OpponentTeamName: "Warriors",
			Win:              "0",
			Home:             "0",
			NumMinutes:       "34:10",
			Points:           "31",
			Assists:          "6",
			ReboundsTotal:    "8",
		},
	}

	// The handler splits the body by newline, one JSON object per line.
	var buf bytes.Buffer
	for _, row := range rows {
		line, err := json.Marshal(row)
		if err != nil {
			log.Fatalf("Failed to marshal row: %v", err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	req, err := http.NewRequest("POST", API_URL, &buf)
	if err != nil {
		log.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Failed to send request: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %s\n", resp.Status)
	fmt.Printf("Response: %s\n", string(body))

	if resp.StatusCode == 200 {
		fmt.Println("✅ Seed Successful!")
	} else {
		fmt.Println("❌ Seed Failed!")
	}
}
