package api

import (
	"context"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/okian/turnover/internal/domain/model"
	"github.com/okian/turnover/internal/domain/types"
)

// LogsDependencies defines the prediction log read.
type LogsDependencies interface {
	RecentLogs(ctx context.Context, n int) ([]model.PredictionLog, error)
}

// LogsHandler serves the prediction audit trail.
type LogsHandler struct {
	deps     LogsDependencies
	maxLimit int
}

// NewLogsHandler creates a new logs handler.
func NewLogsHandler(deps LogsDependencies, maxLimit int) *LogsHandler {
	return &LogsHandler{deps: deps, maxLimit: maxLimit}
}

// HandleRecent handles GET /predictions/recent?limit=N.
func (h *LogsHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	const op = "api.recent_predictions"
	n, err := parseLimit(r, h.maxLimit)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	logs, err := h.deps.RecentLogs(r.Context(), n)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	out := make([]types.LogEntry, len(logs))
	for i := range logs {
		l := &logs[i]
		out[i] = types.LogEntry{
			ID:               l.ID.String(),
			RequestID:        l.RequestID,
			EmployeeID:       l.EmployeeID,
			Source:           string(l.Source),
			Prediction:       l.Label,
			ProbabilityLeave: l.ProbabilityLeave,
			RiskLevel:        l.RiskLevel,
			Verdict:          l.Verdict,
			CreatedAt:        l.CreatedAt,
		}
		if json.Valid(l.Input) {
			out[i].Input = l.Input
		}
	}
	writeJSON(w, http.StatusOK, out)
}
