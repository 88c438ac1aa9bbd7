package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/okian/turnover/internal/domain/employee"
	"github.com/okian/turnover/internal/domain/types"
	"github.com/okian/turnover/internal/validation"
)

// PredictDependencies defines the single-employee operations.
type PredictDependencies interface {
	Predict(ctx context.Context, requestID string, rec employee.Record) (types.Prediction, error)
	Features(ctx context.Context, rec employee.Record) (types.FeatureVector, error)
}

// PredictHandler handles single-employee requests.
type PredictHandler struct {
	deps         PredictDependencies
	maxBodyBytes int64
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps PredictDependencies, maxBodyBytes int64) *PredictHandler {
	return &PredictHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// HandlePredict handles POST /predict.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	rec, err := h.decode(w, r, op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.deps.Predict(r.Context(), RequestIDFrom(r.Context()), rec)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleFeatures handles POST /predict/features: the engineered vector the
// model would receive.
func (h *PredictHandler) HandleFeatures(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict_features"
	rec, err := h.decode(w, r, op)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out, err := h.deps.Features(r.Context(), rec)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// decode reads and validates one employee. Malformed JSON and failed rules
// are both unprocessable.
func (h *PredictHandler) decode(w http.ResponseWriter, r *http.Request, op string) (employee.Record, error) {
	var in employee.Input
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&in); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return employee.Record{}, WrapKind(op, ErrBadRequest, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
		}
		return employee.Record{}, WrapKind(op, ErrUnprocessable, fmt.Errorf("invalid JSON body: %w", err))
	}
	if err := validation.Struct(&in); err != nil {
		return employee.Record{}, Wrap(op, err)
	}
	return in.Record(), nil
}
