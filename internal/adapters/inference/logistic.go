package inference

import (
	"context"
	"fmt"
	"math"
	"os"
	"time"

	json "github.com/goccy/go-json"

	"github.com/okian/turnover/internal/domain/features"
	"github.com/okian/turnover/internal/domain/model"
	"github.com/okian/turnover/pkg/metrics"
)

// KindLogistic names the in-process model.
const KindLogistic = "logistic"

const defaultThreshold = 0.5

// Artifact is the on-disk form of a logistic regression exported from
// training: one coefficient per feature column, in column order.
type Artifact struct {
	Kind         string    `json:"kind"`
	Version      string    `json:"version"`
	Columns      []string  `json:"columns"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Threshold    float64   `json:"threshold,omitempty"`
}

// LogisticModel scores rows with a fitted logistic regression.
type LogisticModel struct {
	version   string
	columns   []string
	coef      []float64
	intercept float64
	threshold float64
}

// NewLogistic validates an artifact against the feature layout of p.
func NewLogistic(a Artifact, p *features.Params) (*LogisticModel, error) {
	if a.Kind != "" && a.Kind != KindLogistic {
		return nil, fmt.Errorf("%w: kind %q", ErrBadArtifact, a.Kind)
	}
	if !sameColumns(a.Columns, p.Columns()) {
		return nil, fmt.Errorf("%w: column order differs from the feature pipeline", ErrBadArtifact)
	}
	if len(a.Coefficients) != len(a.Columns) {
		return nil, fmt.Errorf("%w: %d coefficients for %d columns", ErrBadArtifact, len(a.Coefficients), len(a.Columns))
	}
	for i, c := range a.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("%w: coefficient %d is not finite", ErrBadArtifact, i)
		}
	}
	if math.IsNaN(a.Intercept) || math.IsInf(a.Intercept, 0) {
		return nil, fmt.Errorf("%w: intercept is not finite", ErrBadArtifact)
	}
	threshold := a.Threshold
	if threshold == 0 {
		threshold = defaultThreshold
	}
	if threshold <= 0 || threshold >= 1 {
		return nil, fmt.Errorf("%w: threshold %v outside (0, 1)", ErrBadArtifact, threshold)
	}
	return &LogisticModel{
		version:   a.Version,
		columns:   append([]string(nil), a.Columns...),
		coef:      append([]float64(nil), a.Coefficients...),
		intercept: a.Intercept,
		threshold: threshold,
	}, nil
}

// LoadLogistic reads a JSON artifact from path.
func LoadLogistic(path string, p *features.Params) (*LogisticModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArtifact, err)
	}
	return NewLogistic(a, p)
}

// Info implements Predictor.
func (m *LogisticModel) Info() model.ModelInfo {
	return model.ModelInfo{Loaded: true, Kind: KindLogistic, Version: m.version}
}

// Predict implements Predictor.
func (m *LogisticModel) Predict(ctx context.Context, x *features.Matrix) ([]model.Outcome, error) {
	start := time.Now()
	out, err := m.predict(ctx, x)
	metrics.RecordInference(KindLogistic, float64(time.Since(start).Microseconds())/1000, err)
	return out, err
}

func (m *LogisticModel) predict(ctx context.Context, x *features.Matrix) ([]model.Outcome, error) {
	if !sameColumns(x.Columns, m.columns) {
		return nil, ErrShapeMismatch
	}
	out := make([]model.Outcome, len(x.Rows))
	for i, row := range x.Rows {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if len(row) != len(m.coef) {
			return nil, fmt.Errorf("%w: row %d has %d values", ErrShapeMismatch, i, len(row))
		}
		z := m.intercept
		for j, v := range row {
			z += m.coef[j] * v
		}
		p := sigmoid(z)
		o := model.Outcome{Probabilities: [2]float64{1 - p, p}}
		if p >= m.threshold {
			o.Label = model.Leaves
		}
		out[i] = o
	}
	return out, nil
}

// sigmoid avoids overflow of exp for large |z|.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
