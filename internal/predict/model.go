// Package predict owns the trained model and the inference path. The
// model is opaque to the rest of the service: a fixed-order 20-component
// feature vector goes in, a fixed-order 15-component stat vector comes
// out. Everything else treats the artifact as a blob.
package predict

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/hoopmetrics/projection-api/internal/models"
)

// Model is a multi-output linear predictor over standardized features.
// Features records the input column order the model was trained against
// so a stale artifact is rejected at load instead of silently misreading
// the vector.
type Model struct {
	Features     []string                                     `json:"features"`
	Weights      [models.NumStats][models.NumFeatures]float64 `json:"weights"`
	Bias         [models.NumStats]float64                     `json:"bias"`
	FeatureMean  [models.NumFeatures]float64                  `json:"feature_mean"`
	FeatureScale [models.NumFeatures]float64                  `json:"feature_scale"`
	TrainedRows  int                                          `json:"trained_rows"`
}

// Predict maps one feature vector to the 15 stat outputs, StatNames order.
func (m *Model) Predict(x [models.NumFeatures]float64) [models.NumStats]float64 {
	var z [models.NumFeatures]float64
	for j := range x {
		z[j] = (x[j] - m.FeatureMean[j]) / m.FeatureScale[j]
	}

	var out [models.NumStats]float64
	for i := range out {
		v := m.Bias[i]
		for j := range z {
			v += m.Weights[i][j] * z[j]
		}
		out[i] = v
	}
	return out
}

// Marshal serializes the model for the artifact store, stamping the
// current feature column order into the blob.
func (m *Model) Marshal() ([]byte, error) {
	m.Features = models.FeatureNames[:]
	blob, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal model: %w", err)
	}
	return blob, nil
}

// UnmarshalModel deserializes an artifact blob. A blob that decodes but
// carries degenerate scales, or that was trained against a different
// feature column order, is rejected as corrupt.
func UnmarshalModel(blob []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(blob, &m); err != nil {
		return nil, fmt.Errorf("unmarshal model: %w", err)
	}
	if len(m.Features) != models.NumFeatures {
		return nil, fmt.Errorf("unmarshal model: artifact has %d feature columns, expected %d", len(m.Features), models.NumFeatures)
	}
	for j, name := range models.FeatureNames {
		if m.Features[j] != name {
			return nil, fmt.Errorf("unmarshal model: feature column %d is %q, expected %q", j, m.Features[j], name)
		}
	}
	for _, s := range m.FeatureScale {
		if s == 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("unmarshal model: corrupt feature scale")
		}
	}
	return &m, nil
}
