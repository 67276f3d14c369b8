package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hoopmetrics/projection-api/internal/models"
)

// MemoryStore is an in-process Store for tests and local development.
// Insertion order doubles as the eviction tie-break, matching the
// Postgres implementation's id ordering.
type MemoryStore struct {
	mu           sync.RWMutex
	players      []models.Player
	records      []models.GameStatRecord
	nextPlayerID int64
	nextRecordID int64
}

func NewMemory() *MemoryStore {
	return &MemoryStore{nextPlayerID: 1, nextRecordID: 1}
}

func (s *MemoryStore) PlayerByName(_ context.Context, name string) (*models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.players {
		if strings.EqualFold(s.players[i].Name, name) {
			p := s.players[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("player %q: %w", name, models.ErrNotFound)
}

func (s *MemoryStore) CreatePlayer(_ context.Context, name, team string) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := models.Player{ID: s.nextPlayerID, Name: name, Team: team}
	s.nextPlayerID++
	s.players = append(s.players, p)
	return &p, nil
}

func (s *MemoryStore) UpdatePlayerTeam(_ context.Context, playerID int64, team string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.players {
		if s.players[i].ID == playerID {
			s.players[i].Team = team
			return nil
		}
	}
	return fmt.Errorf("player %d: %w", playerID, models.ErrNotFound)
}

func (s *MemoryStore) SearchPlayers(_ context.Context, query string, limit int) ([]models.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q := strings.ToLower(query)
	var out []models.Player
	for _, p := range s.players {
		if q == "" || strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Team), q) {
			out = append(out, p)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (s *MemoryStore) AppendBatch(_ context.Context, recs []models.GameStatRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		r.ID = s.nextRecordID
		s.nextRecordID++
		s.records = append(s.records, r)
	}
	return len(recs), nil
}

func (s *MemoryStore) LatestDate(_ context.Context) (time.Time, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.records) == 0 {
		return time.Time{}, false, nil
	}
	max := s.records[0].GameDate
	for _, r := range s.records[1:] {
		if r.GameDate.After(max) {
			max = r.GameDate
		}
	}
	return max, true, nil
}

func (s *MemoryStore) RowsForPlayer(_ context.Context, playerID int64, limit int) ([]models.GameStatRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.GameStatRecord
	for _, r := range s.records {
		if r.PlayerID == playerID {
			out = append(out, r)
		}
	}
	sortRecords(out)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *MemoryStore) AllRows(_ context.Context) ([]models.GameStatRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.GameStatRecord, len(s.records))
	copy(out, s.records)
	sortRecords(out)
	return out, nil
}

func (s *MemoryStore) EvictOldest(_ context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ordered := make([]models.GameStatRecord, len(s.records))
	copy(ordered, s.records)
	sortRecords(ordered)
	if n > len(ordered) {
		n = len(ordered)
	}
	doomed := make(map[int64]bool, n)
	for _, r := range ordered[:n] {
		doomed[r.ID] = true
	}
	kept := s.records[:0]
	for _, r := range s.records {
		if !doomed[r.ID] {
			kept = append(kept, r)
		}
	}
	s.records = kept
	return n, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// sortRecords orders by game date ascending, insertion order breaking ties.
func sortRecords(recs []models.GameStatRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].GameDate.Equal(recs[j].GameDate) {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].GameDate.Before(recs[j].GameDate)
	})
}
