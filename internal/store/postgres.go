package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hoopmetrics/projection-api/internal/models"
)

const recordColumns = `player_id, game_date, game_type, team, opponent, win, home,
	minutes, points, assists, blocks, steals, fg_percent,
	threepa, threep, threep_percent, fta, ft, ft_percent,
	total_rebounds, personal_fouls, turnovers`

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) PlayerByName(ctx context.Context, name string) (*models.Player, error) {
	var p models.Player
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, team FROM players WHERE lower(name) = lower($1)`,
		name).Scan(&p.ID, &p.Name, &p.Team)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("player %q: %w", name, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("player lookup: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) CreatePlayer(ctx context.Context, name, team string) (*models.Player, error) {
	p := models.Player{Name: name, Team: team}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO players (name, team) VALUES ($1, $2) RETURNING id`,
		name, team).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("create player: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) UpdatePlayerTeam(ctx context.Context, playerID int64, team string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE players SET team = $1 WHERE id = $2`, team, playerID)
	if err != nil {
		return fmt.Errorf("update player team: %w", err)
	}
	return nil
}

func (s *PostgresStore) SearchPlayers(ctx context.Context, query string, limit int) ([]models.Player, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, team FROM players
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%' OR team ILIKE '%' || $1 || '%'
		ORDER BY name
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search players: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		var p models.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.Team); err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// AppendBatch inserts all records inside a single transaction so readers
// never observe a partial batch.
func (s *PostgresStore) AppendBatch(ctx context.Context, recs []models.GameStatRecord) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin append batch: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for i := range recs {
		r := &recs[i]
		batch.Queue(`INSERT INTO player_game_stats (`+recordColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)`,
			r.PlayerID, r.GameDate, nullStr(r.GameType), r.Team, r.Opponent, r.Win, r.Home,
			r.Minutes, r.Points, r.Assists, r.Blocks, r.Steals, r.FGPercent,
			r.ThreePA, r.ThreeP, r.ThreePPercent, r.FTA, r.FT, r.FTPercent,
			r.TotalRebounds, r.PersonalFouls, r.Turnovers)
	}

	br := tx.SendBatch(ctx, batch)
	for range recs {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, fmt.Errorf("append batch insert: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("append batch close: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit append batch: %w", err)
	}
	return len(recs), nil
}

func (s *PostgresStore) LatestDate(ctx context.Context) (time.Time, bool, error) {
	var date *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT max(game_date) FROM player_game_stats`).Scan(&date)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("latest date: %w", err)
	}
	if date == nil {
		return time.Time{}, false, nil
	}
	return *date, true, nil
}

func (s *PostgresStore) RowsForPlayer(ctx context.Context, playerID int64, limit int) ([]models.GameStatRecord, error) {
	// Inner query grabs the newest rows, outer flips them oldest-first.
	rows, err := s.pool.Query(ctx, `
		SELECT id, `+recordColumns+` FROM (
			SELECT id, `+recordColumns+`
			FROM player_game_stats
			WHERE player_id = $1
			ORDER BY game_date DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY game_date ASC, id ASC
	`, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("rows for player: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *PostgresStore) AllRows(ctx context.Context) ([]models.GameStatRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, `+recordColumns+`
		FROM player_game_stats
		ORDER BY game_date ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("all rows: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *PostgresStore) EvictOldest(ctx context.Context, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM player_game_stats
		WHERE id IN (
			SELECT id FROM player_game_stats
			ORDER BY game_date ASC, id ASC
			LIMIT $1
		)
	`, n)
	if err != nil {
		return 0, fmt.Errorf("evict oldest: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM player_game_stats`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return count, nil
}

func scanRecords(rows pgx.Rows) ([]models.GameStatRecord, error) {
	var recs []models.GameStatRecord
	for rows.Next() {
		var r models.GameStatRecord
		var gameType *string
		err := rows.Scan(&r.ID, &r.PlayerID, &r.GameDate, &gameType, &r.Team, &r.Opponent, &r.Win, &r.Home,
			&r.Minutes, &r.Points, &r.Assists, &r.Blocks, &r.Steals, &r.FGPercent,
			&r.ThreePA, &r.ThreeP, &r.ThreePPercent, &r.FTA, &r.FT, &r.FTPercent,
			&r.TotalRebounds, &r.PersonalFouls, &r.Turnovers)
		if err != nil {
			return nil, err
		}
		if gameType != nil {
			r.GameType = *gameType
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Schema returns the DDL statements for the two tables, one per entry
// because pgx's extended protocol executes a single statement at a time.
// cmd/api applies them on boot; idempotent.
func Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS players (
			id   BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			team TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS players_name_lower_idx ON players (lower(name))`,
		`CREATE TABLE IF NOT EXISTS player_game_stats (
			id             BIGSERIAL PRIMARY KEY,
			player_id      BIGINT NOT NULL REFERENCES players(id),
			game_date      DATE NOT NULL,
			game_type      TEXT,
			team           TEXT NOT NULL,
			opponent       TEXT NOT NULL,
			win            INT,
			home           INT NOT NULL,
			minutes        DOUBLE PRECISION,
			points         DOUBLE PRECISION,
			assists        DOUBLE PRECISION,
			blocks         DOUBLE PRECISION,
			steals         DOUBLE PRECISION,
			fg_percent     DOUBLE PRECISION,
			threepa        DOUBLE PRECISION,
			threep         DOUBLE PRECISION,
			threep_percent DOUBLE PRECISION,
			fta            DOUBLE PRECISION,
			ft             DOUBLE PRECISION,
			ft_percent     DOUBLE PRECISION,
			total_rebounds DOUBLE PRECISION,
			personal_fouls DOUBLE PRECISION,
			turnovers      DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS pgs_game_date_idx ON player_game_stats (game_date, id)`,
		`CREATE INDEX IF NOT EXISTS pgs_player_date_idx ON player_game_stats (player_id, game_date)`,
	}
}
