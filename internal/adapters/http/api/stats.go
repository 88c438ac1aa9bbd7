package api

import (
	"net/http"
	"time"
)

// StatsProvider exposes the service counters shown on /stats.
type StatsProvider interface {
	GetStats() map[string]any
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	provider StatsProvider
	version  string
	started  time.Time
}

// NewStatsHandler creates a stats handler; uptime counts from this call.
func NewStatsHandler(provider StatsProvider, version string) *StatsHandler {
	return &StatsHandler{provider: provider, version: version, started: time.Now()}
}

// HandleStats merges the provider's stats with the API version and uptime.
// Provider keys win on collision.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	stats := h.provider.GetStats()
	out := make(map[string]any, len(stats)+2)
	out["api_version"] = h.version
	out["uptime_seconds"] = int64(time.Since(h.started).Seconds())
	for k, v := range stats {
		out[k] = v
	}
	writeJSON(w, http.StatusOK, out)
}
