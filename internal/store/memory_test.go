package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hoopmetrics/projection-api/internal/models"
)

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestPlayerLookupCaseInsensitive(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	if _, err := s.CreatePlayer(ctx, "LeBron James", "Los Angeles Lakers"); err != nil {
		t.Fatal(err)
	}

	p, err := s.PlayerByName(ctx, "lebron james")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if p.Name != "LeBron James" {
		t.Errorf("expected stored casing, got %q", p.Name)
	}

	if _, err := s.PlayerByName(ctx, "Nikola Jokic"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchPlayersMatchesTeam(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	s.CreatePlayer(ctx, "LeBron James", "Los Angeles Lakers")
	s.CreatePlayer(ctx, "Anthony Davis", "Los Angeles Lakers")
	s.CreatePlayer(ctx, "Jayson Tatum", "Boston Celtics")

	out, err := s.SearchPlayers(ctx, "lakers", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Errorf("expected 2 lakers, got %d", len(out))
	}

	out, err = s.SearchPlayers(ctx, "", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Errorf("expected limit to cap empty query at 2, got %d", len(out))
	}
}

func TestRowsForPlayerReturnsRecentWindowOldestFirst(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	var recs []models.GameStatRecord
	for d := 1; d <= 5; d++ {
		recs = append(recs, models.GameStatRecord{PlayerID: 1, GameDate: day(d)})
	}
	recs = append(recs, models.GameStatRecord{PlayerID: 2, GameDate: day(3)})
	if _, err := s.AppendBatch(ctx, recs); err != nil {
		t.Fatal(err)
	}

	out, err := s.RowsForPlayer(ctx, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(out))
	}
	if !out[0].GameDate.Equal(day(3)) || !out[2].GameDate.Equal(day(5)) {
		t.Errorf("expected days 3..5 oldest-first, got %v .. %v", out[0].GameDate, out[2].GameDate)
	}
}

func TestLatestDate(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	_, ok, err := s.LatestDate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected ok=false on empty store")
	}

	s.AppendBatch(ctx, []models.GameStatRecord{
		{PlayerID: 1, GameDate: day(9)},
		{PlayerID: 1, GameDate: day(4)},
	})

	latest, ok, err := s.LatestDate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || !latest.Equal(day(9)) {
		t.Errorf("expected day 9, got %v (ok=%v)", latest, ok)
	}
}

func TestEvictOldestBreaksTiesByInsertionOrder(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	pts := func(v float64) *float64 { return &v }
	s.AppendBatch(ctx, []models.GameStatRecord{
		{PlayerID: 1, GameDate: day(2), Points: pts(10)},
		{PlayerID: 1, GameDate: day(2), Points: pts(20)},
		{PlayerID: 1, GameDate: day(1), Points: pts(30)},
	})

	n, err := s.EvictOldest(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 evicted, got %d", n)
	}

	// Day 1 goes first, then the first-inserted day 2 row.
	rows, err := s.AllRows(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || *rows[0].Points != 20 {
		t.Errorf("expected only the second day-2 row to survive, got %+v", rows)
	}

	n, err = s.EvictOldest(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected eviction clamped to 1 remaining row, got %d", n)
	}
}
