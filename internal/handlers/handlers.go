package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hoopmetrics/projection-api/internal/clean"
	"github.com/hoopmetrics/projection-api/internal/ingest"
	"github.com/hoopmetrics/projection-api/internal/models"
	"github.com/hoopmetrics/projection-api/internal/predict"
	"github.com/hoopmetrics/projection-api/internal/store"
)

// MaxBodySize limits the size of request bodies to 4MB
const MaxBodySize = 4 << 20

// Projector produces stat forecasts for an upcoming game.
type Projector interface {
	Predict(ctx context.Context, req models.PredictionRequest) (*models.PredictionResponse, error)
}

// ArchiveQueue mirrors the archive worker's enqueue surface so tests can
// substitute their own.
type ArchiveQueue interface {
	EnqueueBatch(playerNames []string, recs []models.GameStatRecord)
}

// Pinger covers the Ping method shared by the pgx pool and the redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	Store     store.Store
	Cleaner   *clean.Cleaner
	Ingestor  *ingest.Ingestor
	Retention *ingest.RetentionManager
	Projector Projector
	Archiver  ArchiveQueue // optional
	Postgres  Pinger       // optional, used by readiness
	Redis     Pinger       // optional, used by readiness
	Logger    *zap.Logger
}

type Handler struct {
	store     store.Store
	cleaner   *clean.Cleaner
	ingestor  *ingest.Ingestor
	retention *ingest.RetentionManager
	projector Projector
	archiver  ArchiveQueue
	pg        Pinger
	redis     Pinger
	logger    *zap.SugaredLogger
	validator *validator.Validate
}

func New(cfg Config) *Handler {
	return &Handler{
		store:     cfg.Store,
		cleaner:   cfg.Cleaner,
		ingestor:  cfg.Ingestor,
		retention: cfg.Retention,
		projector: cfg.Projector,
		archiver:  cfg.Archiver,
		pg:        cfg.Postgres,
		redis:     cfg.Redis,
		logger:    cfg.Logger.Sugar(),
		validator: validator.New(),
	}
}

var _ Projector = (*predict.Reconstructor)(nil)
