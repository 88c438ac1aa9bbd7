package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/turnover/internal/domain/model"
	"github.com/okian/turnover/internal/domain/types"
	"github.com/okian/turnover/pkg/metrics"
)

// ModelInfoProvider reports the loaded model.
type ModelInfoProvider interface {
	ModelInfo() model.ModelInfo
}

// HealthHandler handles health and metrics requests.
type HealthHandler struct {
	models  ModelInfoProvider
	version string
	metrics http.Handler
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(models ModelInfoProvider, version string) *HealthHandler {
	return &HealthHandler{
		models:  models,
		version: version,
		metrics: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleHealth handles GET /health. It answers 503 until a model is loaded.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	info := h.models.ModelInfo()
	resp := types.Health{
		Status:      "healthy",
		ModelLoaded: info.Loaded,
		ModelType:   info.Kind,
		Version:     h.version,
	}
	status := http.StatusOK
	if !info.Loaded {
		resp.Status = "unhealthy"
		status = http.StatusServiceUnavailable
	}
	metrics.UpdateModelLoaded(info.Loaded)
	writeJSON(w, status, resp)
}

// HandleMetrics serves the custom Prometheus registry.
func (h *HealthHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
}
