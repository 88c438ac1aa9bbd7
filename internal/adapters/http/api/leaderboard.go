package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
)

const defaultListLimit = 10

// LeaderboardDependencies defines the at-risk ranking read.
type LeaderboardDependencies interface {
	AtRisk(ctx context.Context, n int) ([]RiskEntry, error)
}

// LeaderboardHandler lists the employees most likely to leave.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new at-risk list handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetAtRisk handles GET /employees/at-risk?limit=N.
func (h *LeaderboardHandler) HandleGetAtRisk(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_at_risk"
	n, err := parseLimit(r, h.maxLimit)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	entries, err := h.deps.AtRisk(r.Context(), n)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// parseLimit reads ?limit=, defaulting to defaultListLimit.
func parseLimit(r *http.Request, maxLimit int) (int, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return min(defaultListLimit, maxLimit), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", s)
	}
	if n > maxLimit {
		return 0, fmt.Errorf("limit must not exceed %d", maxLimit)
	}
	return n, nil
}
