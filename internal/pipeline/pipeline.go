// Package pipeline orchestrates the refresh cycle: pull raw rows, clean,
// ingest, enforce retention, retrain and publish. One cycle is one
// sequential batch job; the scheduler never overlaps runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/hoopmetrics/projection-api/internal/artifact"
	"github.com/hoopmetrics/projection-api/internal/clean"
	"github.com/hoopmetrics/projection-api/internal/features"
	"github.com/hoopmetrics/projection-api/internal/ingest"
	"github.com/hoopmetrics/projection-api/internal/models"
	"github.com/hoopmetrics/projection-api/internal/predict"
	"github.com/hoopmetrics/projection-api/internal/store"
	"github.com/hoopmetrics/projection-api/internal/worker"
)

var (
	pipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "projection_pipeline_runs_total",
		Help: "Refresh cycles by outcome",
	}, []string{"outcome"})

	retrainDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "projection_retrain_duration_seconds",
		Help:    "Duration of the train-and-publish step",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)

// ArchiveQueue is the async analytics sink; *worker.Archiver implements
// it.
type ArchiveQueue interface {
	EnqueueBatch(playerNames []string, recs []models.GameStatRecord)
}

// Config wires a Runner. Archiver and ModelHandle are optional.
type Config struct {
	Source       Source
	Cleaner      *clean.Cleaner
	Ingestor     *ingest.Ingestor
	Retention    *ingest.RetentionManager
	Store        store.Store
	Engine       *features.Engine
	Artifacts    artifact.Store
	ArtifactName string
	Archiver     ArchiveQueue
	ModelHandle  *predict.Handle
	Logger       *zap.Logger
}

var _ ArchiveQueue = (*worker.Archiver)(nil)

type Runner struct {
	cfg    Config
	logger *zap.SugaredLogger
}

func NewRunner(cfg Config) *Runner {
	return &Runner{cfg: cfg, logger: cfg.Logger.Sugar()}
}

// Run executes one refresh cycle. Retraining is skipped (not an error)
// when ingestion inserts nothing. A failed retrain or publish aborts the
// run but never rolls back the committed batch: ingestion success and
// model freshness are independent failure domains.
func (r *Runner) Run(ctx context.Context) error {
	start := time.Now()

	raw, err := r.cfg.Source.Fetch(ctx)
	if err != nil {
		pipelineRuns.WithLabelValues("source_error").Inc()
		return fmt.Errorf("%w: source fetch: %v", models.ErrPipeline, err)
	}

	batch, skipped := r.cleanBatch(raw)

	res, err := r.cfg.Ingestor.IngestBatch(ctx, batch)
	if err != nil {
		pipelineRuns.WithLabelValues("ingest_error").Inc()
		return fmt.Errorf("%w: ingest: %v", models.ErrPipeline, err)
	}

	// Archive only the committed rows. Enqueueing the raw batch would
	// re-export every stale row the high-water mark just filtered out.
	if r.cfg.Archiver != nil && len(res.Records) > 0 {
		r.cfg.Archiver.EnqueueBatch(res.Names, res.Records)
	}

	evicted, err := r.cfg.Retention.Enforce(ctx)
	if err != nil {
		pipelineRuns.WithLabelValues("retention_error").Inc()
		return fmt.Errorf("%w: retention: %v", models.ErrPipeline, err)
	}

	if res.Inserted == 0 {
		r.logger.Infow("No new rows, skipping retrain",
			"skippedRows", skipped,
			"duration", time.Since(start),
		)
		pipelineRuns.WithLabelValues("no_new_data").Inc()
		return nil
	}

	if err := r.retrainAndPublish(ctx); err != nil {
		pipelineRuns.WithLabelValues("retrain_error").Inc()
		return err
	}

	r.logger.Infow("Refresh cycle complete",
		"inserted", res.Inserted,
		"droppedStale", res.Dropped,
		"skippedRows", skipped,
		"trades", len(res.Trades),
		"evicted", evicted,
		"duration", time.Since(start),
	)
	pipelineRuns.WithLabelValues("ok").Inc()
	return nil
}

// cleanBatch normalizes raw rows, degrading bad rows to a skip count.
func (r *Runner) cleanBatch(raw []models.RawRow) ([]clean.Canonical, int) {
	var batch []clean.Canonical
	skipped := 0
	for i := range raw {
		row, err := r.cfg.Cleaner.Normalize(raw[i])
		if err != nil {
			skipped++
			if errors.Is(err, models.ErrSchemaMismatch) {
				r.logger.Warnw("Row rejected by cleaner", "error", err)
			}
			continue
		}
		batch = append(batch, *row)
	}
	return batch, skipped
}

func (r *Runner) retrainAndPublish(ctx context.Context) error {
	start := time.Now()
	defer func() { retrainDuration.Observe(time.Since(start).Seconds()) }()

	history, err := r.cfg.Store.AllRows(ctx)
	if err != nil {
		return fmt.Errorf("%w: load history: %v", models.ErrPipeline, err)
	}

	x, y := predict.BuildTrainingTable(r.cfg.Engine, history)
	if len(x) == 0 {
		r.logger.Warn("Training table empty, keeping previous artifact")
		return nil
	}

	model, err := predict.Train(x, y)
	if err != nil {
		return fmt.Errorf("%w: train: %v", models.ErrPipeline, err)
	}

	blob, err := model.Marshal()
	if err != nil {
		return fmt.Errorf("%w: serialize model: %v", models.ErrPipeline, err)
	}

	if err := r.cfg.Artifacts.Upload(ctx, r.cfg.ArtifactName, blob); err != nil {
		return fmt.Errorf("%w: publish artifact: %v", models.ErrPipeline, err)
	}

	if r.cfg.ModelHandle != nil {
		r.cfg.ModelHandle.Set(model)
	}

	r.logger.Infow("Model retrained and published",
		"artifact", r.cfg.ArtifactName,
		"trainingRows", len(x),
		"duration", time.Since(start),
	)
	return nil
}
