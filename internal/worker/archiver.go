// Package worker implements the buffered worker pattern for async archive
// writes. Canonical rows accepted by ingestion are mirrored into a
// ClickHouse analytics table without blocking the ingest path:
// - Backpressure handling via load shedding
// - Batch inserts for efficient ClickHouse writes
// - Graceful shutdown with flush guarantees
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/hoopmetrics/projection-api/internal/models"
)

var (
	rowsArchived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "projection_rows_archived_total",
		Help: "Canonical rows written to the analytics archive",
	})

	rowsArchiveFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "projection_rows_archive_failed_total",
		Help: "Rows that failed archive insertion",
	})

	rowsArchiveShed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "projection_rows_archive_shed_total",
		Help: "Rows dropped because the archive queue was full",
	})

	archiveQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "projection_archive_queue_depth",
		Help: "Current depth of the archive queue",
	})

	archiveBatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "projection_archive_batch_duration_seconds",
		Help:    "Duration of batch inserts to ClickHouse",
		Buckets: prometheus.DefBuckets,
	})
)

// Job carries one record plus the ingestion batch it arrived in.
type Job struct {
	Record     models.GameStatRecord
	PlayerName string
	BatchID    uuid.UUID
	ReceivedAt time.Time
}

// Config configures the archiver.
type Config struct {
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	ClickHouse    driver.Conn
	Logger        *zap.Logger
}

// Archiver drains a buffered queue into ClickHouse. Best-effort by
// design: the canonical store is the source of truth and an archive
// failure never fails ingestion.
type Archiver struct {
	config   Config
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger
}

func NewArchiver(cfg Config) *Archiver {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}

	return &Archiver{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
}

// Start launches the drain goroutine.
func (a *Archiver) Start(ctx context.Context) {
	a.ctx, a.cancel = context.WithCancel(ctx)

	a.wg.Add(1)
	go a.drain()
	go a.reportQueueDepth()

	a.logger.Infow("Archiver started",
		"queueSize", a.config.QueueSize,
		"batchSize", a.config.BatchSize,
	)
}

// Stop flushes what is queued and shuts down.
func (a *Archiver) Stop() {
	a.logger.Info("Stopping archiver...")
	a.cancel()
	close(a.jobQueue)
	a.wg.Wait()
	a.logger.Info("Archiver stopped")
}

// EnqueueBatch queues ingested rows for archiving. Never blocks: when the
// queue is full the remainder of the batch is shed and counted.
func (a *Archiver) EnqueueBatch(playerNames []string, recs []models.GameStatRecord) {
	batchID := uuid.New()
	now := time.Now()

	defer func() {
		// Sending on a closed queue during shutdown is survivable; these
		// rows were going to be shed anyway.
		if r := recover(); r != nil {
			a.logger.Warnw("Archive enqueue after stop", "batchID", batchID)
		}
	}()

	for i, rec := range recs {
		name := ""
		if i < len(playerNames) {
			name = playerNames[i]
		}
		job := Job{Record: rec, PlayerName: name, BatchID: batchID, ReceivedAt: now}
		select {
		case a.jobQueue <- job:
		default:
			rowsArchiveShed.Add(float64(len(recs) - i))
			return
		}
	}
}

// QueueDepth returns current queue size.
func (a *Archiver) QueueDepth() int {
	return len(a.jobQueue)
}

func (a *Archiver) drain() {
	defer a.wg.Done()

	batch := make([]Job, 0, a.config.BatchSize)
	ticker := time.NewTicker(a.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		start := time.Now()
		if err := a.insertBatch(batch); err != nil {
			a.logger.Errorw("Archive batch failed", "batchSize", len(batch), "error", err)
			rowsArchiveFailed.Add(float64(len(batch)))
		} else {
			rowsArchived.Add(float64(len(batch)))
		}
		archiveBatchDuration.Observe(time.Since(start).Seconds())
		batch = batch[:0]
	}

	for {
		select {
		case job, ok := <-a.jobQueue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, job)
			if len(batch) >= a.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}

func (a *Archiver) insertBatch(batch []Job) error {
	ctx := context.Background()

	chBatch, err := a.config.ClickHouse.PrepareBatch(ctx, `
		INSERT INTO projection_stats.game_stat_rows (
			received_at, batch_id, player_name, game_date, game_type,
			team, opponent, win, home,
			minutes, points, assists, blocks, steals, fg_percent,
			threepa, threep, threep_percent, fta, ft, ft_percent,
			total_rebounds, personal_fouls, turnovers
		)
	`)
	if err != nil {
		return err
	}

	for _, job := range batch {
		r := job.Record
		vals := r.StatValues()
		err := chBatch.Append(
			job.ReceivedAt,
			job.BatchID,
			job.PlayerName,
			r.GameDate,
			r.GameType,
			r.Team,
			r.Opponent,
			r.Win,
			uint8(r.Home),
			vals[0], vals[1], vals[2], vals[3], vals[4], vals[5],
			vals[6], vals[7], vals[8], vals[9], vals[10], vals[11],
			vals[12], vals[13], vals[14],
		)
		if err != nil {
			a.logger.Warnw("Failed to append row to archive batch", "error", err)
			continue
		}
	}

	return chBatch.Send()
}

// Schema returns the DDL for the archive table. cmd/api applies it on
// boot when a ClickHouse connection is configured.
func Schema() []string {
	return []string{
		`CREATE DATABASE IF NOT EXISTS projection_stats`,
		`CREATE TABLE IF NOT EXISTS projection_stats.game_stat_rows (
			received_at    DateTime,
			batch_id       UUID,
			player_name    String,
			game_date      Date,
			game_type      String,
			team           String,
			opponent       String,
			win            Nullable(Int32),
			home           UInt8,
			minutes        Nullable(Float64),
			points         Nullable(Float64),
			assists        Nullable(Float64),
			blocks         Nullable(Float64),
			steals         Nullable(Float64),
			fg_percent     Nullable(Float64),
			threepa        Nullable(Float64),
			threep         Nullable(Float64),
			threep_percent Nullable(Float64),
			fta            Nullable(Float64),
			ft             Nullable(Float64),
			ft_percent     Nullable(Float64),
			total_rebounds Nullable(Float64),
			personal_fouls Nullable(Float64),
			turnovers      Nullable(Float64)
		) ENGINE = MergeTree()
		ORDER BY (game_date, player_name)`,
	}
}

func (a *Archiver) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			archiveQueueDepth.Set(float64(len(a.jobQueue)))
		case <-a.ctx.Done():
			return
		}
	}
}
