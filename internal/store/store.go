// Package store is the repository boundary for players and game stat
// records. Core components depend only on the Store interface; the
// Postgres implementation is the production store and the memory
// implementation backs tests and local development.
package store

import (
	"context"
	"time"

	"github.com/hoopmetrics/projection-api/internal/models"
)

// Store is the persistence contract. The record collection is
// append-and-evict: records are immutable once written and leave only
// through EvictOldest.
type Store interface {
	// PlayerByName resolves a player by exact, case-insensitive name.
	// Returns models.ErrNotFound when no player matches.
	PlayerByName(ctx context.Context, name string) (*models.Player, error)

	// CreatePlayer inserts a new player and returns it with its id set.
	CreatePlayer(ctx context.Context, name, team string) (*models.Player, error)

	// UpdatePlayerTeam overwrites a player's current team (trade handling;
	// last write wins, no team history is kept).
	UpdatePlayerTeam(ctx context.Context, playerID int64, team string) error

	// SearchPlayers lists players whose name or team contains the query,
	// case-insensitively. An empty query lists all players up to limit.
	SearchPlayers(ctx context.Context, query string, limit int) ([]models.Player, error)

	// AppendBatch writes all records as one unit and returns the inserted
	// count. Partial batches are never visible to readers.
	AppendBatch(ctx context.Context, recs []models.GameStatRecord) (int, error)

	// LatestDate returns the maximum game date in the store; ok is false
	// when the store is empty.
	LatestDate(ctx context.Context) (date time.Time, ok bool, err error)

	// RowsForPlayer returns the player's most recent limit records,
	// ordered oldest-first.
	RowsForPlayer(ctx context.Context, playerID int64, limit int) ([]models.GameStatRecord, error)

	// AllRows returns the full history ordered by game date then insertion
	// order, oldest-first.
	AllRows(ctx context.Context) ([]models.GameStatRecord, error)

	// EvictOldest removes the n globally-oldest records (smallest game
	// date, ties broken by insertion order) and returns how many were
	// removed.
	EvictOldest(ctx context.Context, n int) (int, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}
