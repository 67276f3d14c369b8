package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	chdriver "github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hoopmetrics/projection-api/internal/artifact"
	"github.com/hoopmetrics/projection-api/internal/clean"
	"github.com/hoopmetrics/projection-api/internal/config"
	"github.com/hoopmetrics/projection-api/internal/features"
	"github.com/hoopmetrics/projection-api/internal/handlers"
	"github.com/hoopmetrics/projection-api/internal/ingest"
	"github.com/hoopmetrics/projection-api/internal/pipeline"
	"github.com/hoopmetrics/projection-api/internal/predict"
	"github.com/hoopmetrics/projection-api/internal/store"
	"github.com/hoopmetrics/projection-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	var logger *zap.Logger
	if cfg.Env == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres
	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		sugar.Fatalw("Failed to create postgres pool", "error", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		sugar.Fatalw("Failed to ping postgres", "error", err)
	}
	for _, ddl := range store.Schema() {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			sugar.Fatalw("Failed to apply schema", "error", err)
		}
	}

	// Redis
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		sugar.Fatalw("Failed to parse redis URL", "error", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		sugar.Fatalw("Failed to ping redis", "error", err)
	}

	// ClickHouse archive (optional)
	var archiver *worker.Archiver
	var chConn chdriver.Conn
	if cfg.ClickHouseURL != "" {
		chOpts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
		if err != nil {
			sugar.Fatalw("Failed to parse clickhouse URL", "error", err)
		}
		chConn, err = clickhouse.Open(chOpts)
		if err != nil {
			sugar.Fatalw("Failed to connect to clickhouse", "error", err)
		}
		defer chConn.Close()
		for _, ddl := range worker.Schema() {
			if err := chConn.Exec(ctx, ddl); err != nil {
				sugar.Fatalw("Failed to apply archive schema", "error", err)
			}
		}

		archiver = worker.NewArchiver(worker.Config{
			QueueSize:     cfg.ArchiveQueueSize,
			BatchSize:     cfg.ArchiveBatchSize,
			FlushInterval: cfg.ArchiveFlushInterval,
			ClickHouse:    chConn,
			Logger:        logger,
		})
		archiver.Start(ctx)
		defer archiver.Stop()
	} else {
		sugar.Info("CLICKHOUSE_URL not set, analytics archive disabled")
	}

	// Core services
	st := store.NewPostgres(pool)
	cleaner := clean.New(clean.DefaultAliases)
	ingestor := ingest.NewIngestor(st, logger)
	retention := ingest.NewRetentionManager(st, cfg.RetentionCap, logger)
	engine := features.NewEngine(cfg.RollingWindow, cfg.PlayedRateWindow)
	artifacts := artifact.NewRedis(redisClient)
	modelHandle := predict.NewHandle(artifacts, cfg.ArtifactName, logger)
	reconstructor := predict.NewReconstructor(st, engine, modelHandle, cfg.HistoryWindow, logger)

	pipeCfg := pipeline.Config{
		Source:       &pipeline.CSVSource{Path: cfg.DatasetPath},
		Cleaner:      cleaner,
		Ingestor:     ingestor,
		Retention:    retention,
		Store:        st,
		Engine:       engine,
		Artifacts:    artifacts,
		ArtifactName: cfg.ArtifactName,
		ModelHandle:  modelHandle,
		Logger:       logger,
	}
	if archiver != nil {
		pipeCfg.Archiver = archiver
	}
	runner := pipeline.NewRunner(pipeCfg)

	handlerCfg := handlers.Config{
		Store:     st,
		Cleaner:   cleaner,
		Ingestor:  ingestor,
		Retention: retention,
		Projector: reconstructor,
		Postgres:  pool,
		Redis:     redisPinger{redisClient},
		Logger:    logger,
	}
	if archiver != nil {
		handlerCfg.Archiver = archiver
	}
	h := handlers.New(handlerCfg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/predict", h.Predict)
		r.Post("/ingest/rows", h.IngestRows)
		r.Get("/players", h.SearchPlayers)
		r.Get("/players/{id}/games", h.PlayerGames)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("Starting server", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	// Refresh loop: run one cycle on boot, then on the configured interval.
	g.Go(func() error {
		runRefresh(gctx, runner, sugar)
		ticker := time.NewTicker(cfg.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				runRefresh(gctx, runner, sugar)
			case <-gctx.Done():
				return nil
			}
		}
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("Server error", "error", err)
	}
	sugar.Info("Shutdown complete")
}

// runRefresh logs pipeline failures instead of propagating them: a bad
// refresh cycle must not take the API down.
func runRefresh(ctx context.Context, runner *pipeline.Runner, sugar *zap.SugaredLogger) {
	if err := runner.Run(ctx); err != nil {
		sugar.Errorw("Refresh cycle failed", "error", err)
	}
}

// redisPinger adapts the redis client's Ping to the readiness check.
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
