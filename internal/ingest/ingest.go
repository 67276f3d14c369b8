// Package ingest appends cleaned rows to the store and enforces the
// retention cap. One batch is one unit: dedupe against the high-water
// mark, resolve players, detect trades, append, evict.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/hoopmetrics/projection-api/internal/clean"
	"github.com/hoopmetrics/projection-api/internal/models"
	"github.com/hoopmetrics/projection-api/internal/store"
)

// defaultEpoch is the high-water mark used when the store is empty: only
// rows strictly newer than this date seed a fresh store.
var defaultEpoch = time.Date(2025, 3, 17, 0, 0, 0, 0, time.UTC)

var (
	rowsInserted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "projection_rows_inserted_total",
		Help: "Canonical rows appended to the store",
	})

	rowsDroppedStale = promauto.NewCounter(prometheus.CounterOpts{
		Name: "projection_rows_dropped_stale_total",
		Help: "Rows at or before the high-water mark, silently dropped",
	})

	tradesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "projection_trades_detected_total",
		Help: "Player team changes detected during ingestion",
	})

	rowsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "projection_rows_evicted_total",
		Help: "Rows removed by retention cap enforcement",
	})

	storeSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "projection_store_rows",
		Help: "Row count after the latest ingestion cycle",
	})
)

// Result summarizes one ingestion batch.
type Result struct {
	Inserted int
	Dropped  int
	Trades   []models.TradeEvent

	// Rows that survived the high-water-mark filter and were committed,
	// player ids resolved, with the matching player names. Downstream
	// sinks (the analytics archive) consume these instead of the raw
	// batch so stale rows are never re-exported.
	Records []models.GameStatRecord
	Names   []string
}

type Ingestor struct {
	store  store.Store
	logger *zap.SugaredLogger
}

func NewIngestor(st store.Store, logger *zap.Logger) *Ingestor {
	return &Ingestor{store: st, logger: logger.Sugar()}
}

// IngestBatch filters the batch against the store's high-water mark,
// resolves players (get-or-create by case-insensitive name), overwrites
// teams on trades and appends the surviving rows as one unit.
//
// Rows at or before the high-water mark are dropped: back-filled data can
// never be ingested through this path. That is a documented limitation of
// the dedupe scheme, not something to work around here.
func (in *Ingestor) IngestBatch(ctx context.Context, rows []clean.Canonical) (Result, error) {
	var res Result

	hwm, ok, err := in.store.LatestDate(ctx)
	if err != nil {
		return res, fmt.Errorf("high-water mark: %w", err)
	}
	if !ok {
		hwm = defaultEpoch
	}

	// Per-batch cache so one batch with many rows per player resolves each
	// name once and sees its own team updates.
	playersByName := make(map[string]*models.Player)

	var recs []models.GameStatRecord
	var names []string
	for i := range rows {
		row := &rows[i]
		if !row.Record.GameDate.After(hwm) {
			res.Dropped++
			continue
		}

		player, err := in.resolvePlayer(ctx, playersByName, row.PlayerName, row.Record.Team)
		if err != nil {
			return res, err
		}

		if player.Team != row.Record.Team {
			in.logger.Infow("Trade detected",
				"player", player.Name,
				"from", player.Team,
				"to", row.Record.Team,
			)
			res.Trades = append(res.Trades, models.TradeEvent{
				PlayerID:   player.ID,
				PlayerName: player.Name,
				FromTeam:   player.Team,
				ToTeam:     row.Record.Team,
			})
			if err := in.store.UpdatePlayerTeam(ctx, player.ID, row.Record.Team); err != nil {
				return res, fmt.Errorf("trade update: %w", err)
			}
			player.Team = row.Record.Team
			tradesDetected.Inc()
		}

		rec := row.Record
		rec.PlayerID = player.ID
		recs = append(recs, rec)
		names = append(names, player.Name)
	}

	if len(recs) > 0 {
		inserted, err := in.store.AppendBatch(ctx, recs)
		if err != nil {
			return res, fmt.Errorf("append batch: %w", err)
		}
		res.Inserted = inserted
		res.Records = recs
		res.Names = names
		rowsInserted.Add(float64(inserted))
	}
	rowsDroppedStale.Add(float64(res.Dropped))

	in.logger.Infow("Ingestion batch complete",
		"inserted", res.Inserted,
		"dropped", res.Dropped,
		"trades", len(res.Trades),
		"highWaterMark", hwm.Format("2006-01-02"),
	)
	return res, nil
}

func (in *Ingestor) resolvePlayer(ctx context.Context, cache map[string]*models.Player, name, team string) (*models.Player, error) {
	key := strings.ToLower(name)
	if p, ok := cache[key]; ok {
		return p, nil
	}

	p, err := in.store.PlayerByName(ctx, name)
	if err != nil {
		if !isNotFound(err) {
			return nil, fmt.Errorf("resolve player: %w", err)
		}
		p, err = in.store.CreatePlayer(ctx, name, team)
		if err != nil {
			return nil, fmt.Errorf("create player: %w", err)
		}
		in.logger.Infow("New player", "name", name, "team", team)
	}
	cache[key] = p
	return p, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, models.ErrNotFound)
}

// RetentionManager keeps the store at or below the configured cap by
// evicting globally-oldest rows after each ingestion batch.
type RetentionManager struct {
	store  store.Store
	cap    int
	logger *zap.SugaredLogger
}

func NewRetentionManager(st store.Store, cap int, logger *zap.Logger) *RetentionManager {
	return &RetentionManager{store: st, cap: cap, logger: logger.Sugar()}
}

// Enforce evicts exactly size-cap rows when the store is over cap and
// returns the evicted count. Post-condition: store size <= cap.
func (rm *RetentionManager) Enforce(ctx context.Context) (int, error) {
	size, err := rm.store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("retention count: %w", err)
	}

	excess := size - rm.cap
	if excess <= 0 {
		storeSize.Set(float64(size))
		return 0, nil
	}

	evicted, err := rm.store.EvictOldest(ctx, excess)
	if err != nil {
		return 0, fmt.Errorf("retention evict: %w", err)
	}
	rowsEvicted.Add(float64(evicted))
	storeSize.Set(float64(size - evicted))

	rm.logger.Infow("Retention cap enforced",
		"cap", rm.cap,
		"evicted", evicted,
	)
	return evicted, nil
}
