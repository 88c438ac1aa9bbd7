// Package inference runs the attrition model over feature matrices, either
// in process from a JSON artifact or through a remote inference service.
package inference

import (
	"context"
	"errors"

	"github.com/okian/turnover/internal/domain/features"
	"github.com/okian/turnover/internal/domain/model"
)

// Sentinel kinds for inference errors.
var (
	ErrModelUnavailable = errors.New("model unavailable")
	ErrShapeMismatch    = errors.New("model input shape mismatch")
	ErrBadArtifact      = errors.New("invalid model artifact")
)

// Predictor returns one outcome per matrix row, in row order.
type Predictor interface {
	Predict(ctx context.Context, m *features.Matrix) ([]model.Outcome, error)
	Info() model.ModelInfo
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
