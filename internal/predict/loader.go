package predict

import (
	"context"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hoopmetrics/projection-api/internal/artifact"
	"github.com/hoopmetrics/projection-api/internal/models"
)

var modelLoads = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "projection_model_loads_total",
	Help: "Model artifact loads by outcome",
}, []string{"outcome"})

// Handle is the process-wide model reference. The artifact is downloaded
// lazily on first use and reused for the process lifetime; concurrent
// first use collapses to a single download. A failed load is not cached,
// the next request retries, so a late-published artifact is picked up
// without a restart.
type Handle struct {
	artifacts   artifact.Store
	logicalName string
	logger      *zap.SugaredLogger

	group singleflight.Group
	mu    sync.RWMutex
	model *Model
}

func NewHandle(artifacts artifact.Store, logicalName string, logger *zap.Logger) *Handle {
	return &Handle{
		artifacts:   artifacts,
		logicalName: logicalName,
		logger:      logger.Sugar(),
	}
}

// Get returns the loaded model, downloading it on first use. Errors wrap
// models.ErrModelUnavailable.
func (h *Handle) Get(ctx context.Context) (*Model, error) {
	h.mu.RLock()
	m := h.model
	h.mu.RUnlock()
	if m != nil {
		return m, nil
	}

	v, err, _ := h.group.Do("load", func() (interface{}, error) {
		// Re-check: another flight may have finished between RUnlock and Do.
		h.mu.RLock()
		cached := h.model
		h.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		blob, err := h.artifacts.Download(ctx, h.logicalName)
		if err != nil {
			modelLoads.WithLabelValues("download_error").Inc()
			return nil, fmt.Errorf("%w: %v", models.ErrModelUnavailable, err)
		}

		loaded, err := UnmarshalModel(blob)
		if err != nil {
			modelLoads.WithLabelValues("corrupt").Inc()
			return nil, fmt.Errorf("%w: %v", models.ErrModelUnavailable, err)
		}

		h.mu.Lock()
		h.model = loaded
		h.mu.Unlock()
		modelLoads.WithLabelValues("ok").Inc()
		h.logger.Infow("Model artifact loaded",
			"name", h.logicalName,
			"trainedRows", loaded.TrainedRows,
		)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Model), nil
}

// Set swaps the handle to a freshly trained model. The pipeline calls
// this after a successful publish so in-process serving picks up the new
// artifact without a restart.
func (h *Handle) Set(m *Model) {
	h.mu.Lock()
	h.model = m
	h.mu.Unlock()
}
