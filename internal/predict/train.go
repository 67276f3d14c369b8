package predict

import (
	"fmt"
	"math"

	"github.com/hoopmetrics/projection-api/internal/features"
	"github.com/hoopmetrics/projection-api/internal/models"
)

const (
	trainEpochs       = 300
	trainLearningRate = 0.05
)

// BuildTrainingTable runs the feature engine over the full history and
// pairs each feature vector with its record's actual stat line. Rows
// without prior history carry no rolling features and are excluded; a
// missing target stat trains as zero.
//
// This shares the engine and the Vector mapping with the inference path,
// which is the train/serve parity invariant: a synthetic row reconstructed
// at serve time must see exactly the features a real row would have seen
// in training.
func BuildTrainingTable(engine *features.Engine, history []models.GameStatRecord) (x [][models.NumFeatures]float64, y [][models.NumStats]float64) {
	rows := engine.Compute(history)
	for i := range rows {
		if !rows[i].HasRolling() {
			continue
		}
		x = append(x, rows[i].Vector())

		var target [models.NumStats]float64
		for j, v := range history[i].StatValues() {
			if v != nil {
				target[j] = *v
			}
		}
		y = append(y, target)
	}
	return x, y
}

// Train fits the multi-output linear model with batch gradient descent on
// standardized features. Deterministic: zero initialization, fixed epoch
// count and learning rate.
func Train(x [][models.NumFeatures]float64, y [][models.NumStats]float64) (*Model, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("train: empty training table")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("train: %d feature rows vs %d targets", len(x), len(y))
	}

	m := &Model{TrainedRows: len(x)}
	m.FeatureMean, m.FeatureScale = standardization(x)

	// Pre-standardize once.
	z := make([][models.NumFeatures]float64, len(x))
	for i := range x {
		for j := range x[i] {
			z[i][j] = (x[i][j] - m.FeatureMean[j]) / m.FeatureScale[j]
		}
	}

	n := float64(len(z))
	for epoch := 0; epoch < trainEpochs; epoch++ {
		var gradW [models.NumStats][models.NumFeatures]float64
		var gradB [models.NumStats]float64

		for i := range z {
			for s := 0; s < models.NumStats; s++ {
				pred := m.Bias[s]
				for j := range z[i] {
					pred += m.Weights[s][j] * z[i][j]
				}
				residual := pred - y[i][s]
				gradB[s] += residual
				for j := range z[i] {
					gradW[s][j] += residual * z[i][j]
				}
			}
		}

		for s := 0; s < models.NumStats; s++ {
			m.Bias[s] -= trainLearningRate * gradB[s] / n
			for j := 0; j < models.NumFeatures; j++ {
				m.Weights[s][j] -= trainLearningRate * gradW[s][j] / n
			}
		}
	}

	return m, nil
}

// standardization computes per-feature mean and scale; constant features
// get scale 1 so they pass through as zero after centering.
func standardization(x [][models.NumFeatures]float64) (mean, scale [models.NumFeatures]float64) {
	n := float64(len(x))
	for i := range x {
		for j := range x[i] {
			mean[j] += x[i][j]
		}
	}
	for j := range mean {
		mean[j] /= n
	}

	for i := range x {
		for j := range x[i] {
			d := x[i][j] - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		if scale[j] == 0 {
			scale[j] = 1
		}
	}
	return mean, scale
}
