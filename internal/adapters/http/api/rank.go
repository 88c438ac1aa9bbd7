package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// RankDependencies defines the per-employee risk read.
type RankDependencies interface {
	EmployeeRisk(ctx context.Context, employeeID int) (RiskEntry, error)
}

// RankHandler handles per-employee risk requests.
type RankHandler struct {
	deps RankDependencies
}

// NewRankHandler creates a new rank handler.
func NewRankHandler(deps RankDependencies) *RankHandler {
	return &RankHandler{deps: deps}
}

// HandleGetRisk handles GET /employees/{id}/risk.
func (h *RankHandler) HandleGetRisk(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_employee_risk"
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, fmt.Errorf("employee id must be an integer, got %q", raw)))
		return
	}
	entry, err := h.deps.EmployeeRisk(r.Context(), id)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
