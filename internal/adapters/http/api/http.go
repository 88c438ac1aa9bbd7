// Package api serves the prediction HTTP API on a chi router.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"

	"github.com/okian/turnover/internal/adapters/repository"
	"github.com/okian/turnover/internal/domain/employee"
	"github.com/okian/turnover/internal/domain/fusion"
	"github.com/okian/turnover/internal/domain/model"
	"github.com/okian/turnover/internal/domain/types"
	"github.com/okian/turnover/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	ModelInfo() model.ModelInfo

	Predict(ctx context.Context, requestID string, rec employee.Record) (types.Prediction, error)
	Features(ctx context.Context, rec employee.Record) (types.FeatureVector, error)
	PredictBatch(ctx context.Context, requestID string, survey, eval, hr *fusion.Table) (types.BatchPrediction, error)

	AtRisk(ctx context.Context, n int) ([]RiskEntry, error)
	EmployeeRisk(ctx context.Context, employeeID int) (RiskEntry, error)
	RecentLogs(ctx context.Context, n int) ([]model.PredictionLog, error)
}

// RiskEntry mirrors the read shape of the risk board.
type RiskEntry = repository.RiskEntry

// Config tunes the HTTP surface.
type Config struct {
	Version string
	// Debug disables API-key auth and rate limits.
	Debug  bool
	APIKey string

	CORSOrigins []string

	RateLimitDefault int
	RateLimitPredict int
	RateLimitBatch   int
	RateLimitWindow  time.Duration

	MaxBodyBytes   int64
	MaxUploadBytes int64
	MaxListLimit   int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Version:          "3.3.0",
		CORSOrigins:      []string{"*"},
		RateLimitDefault: 100,
		RateLimitPredict: 20,
		RateLimitBatch:   5,
		RateLimitWindow:  time.Minute,
		MaxBodyBytes:     1 << 20,
		MaxUploadBytes:   32 << 20,
		MaxListLimit:     1000,
	}
}

// Server wires HTTP routes for the prediction API.
type Server struct {
	cfg Config

	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	predictHandler     *PredictHandler
	batchHandler       *BatchHandler
	leaderboardHandler *LeaderboardHandler
	rankHandler        *RankHandler
	logsHandler        *LogsHandler

	logger logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, cfg Config) *Server {
	def := DefaultConfig()
	if cfg.RateLimitWindow <= 0 {
		cfg.RateLimitWindow = def.RateLimitWindow
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}
	if cfg.MaxListLimit <= 0 {
		cfg.MaxListLimit = def.MaxListLimit
	}
	return &Server{
		cfg:                cfg,
		healthHandler:      NewHealthHandler(deps, cfg.Version),
		statsHandler:       NewStatsHandler(statsProvider, cfg.Version),
		predictHandler:     NewPredictHandler(deps, cfg.MaxBodyBytes),
		batchHandler:       NewBatchHandler(deps, cfg.MaxUploadBytes),
		leaderboardHandler: NewLeaderboardHandler(deps, cfg.MaxListLimit),
		rankHandler:        NewRankHandler(deps),
		logsHandler:        NewLogsHandler(deps, cfg.MaxListLimit),
		logger:             logger.Get().Named("api"),
	}
}

// Register attaches the middleware stack and all routes to r.
func (s *Server) Register(r chi.Router) {
	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS(s.cfg.CORSOrigins))
	r.Use(MetricsMiddleware)

	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit(s.cfg.RateLimitDefault))
		r.Get("/health", s.healthHandler.HandleHealth)
		r.Get("/metrics", s.healthHandler.HandleMetrics)
		r.Get("/stats", s.statsHandler.HandleStats)
	})

	r.Group(func(r chi.Router) {
		r.Use(APIKeyAuth(s.cfg.APIKey, s.cfg.Debug))

		r.With(s.rateLimit(s.cfg.RateLimitPredict)).Post("/predict", s.predictHandler.HandlePredict)
		r.With(s.rateLimit(s.cfg.RateLimitPredict)).Post("/predict/features", s.predictHandler.HandleFeatures)
		r.With(s.rateLimit(s.cfg.RateLimitBatch)).Post("/predict/batch", s.batchHandler.HandleBatch)

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit(s.cfg.RateLimitDefault))
			r.Get("/employees/at-risk", s.leaderboardHandler.HandleGetAtRisk)
			r.Get("/employees/{id}/risk", s.rankHandler.HandleGetRisk)
			r.Get("/predictions/recent", s.logsHandler.HandleRecent)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, NewKind("api.route", ErrNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Code: "method_not_allowed", Message: "method not allowed"})
	})
}

// Handler returns a router with every route registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

func (s *Server) rateLimit(requests int) func(http.Handler) http.Handler {
	if s.cfg.Debug {
		return passThrough
	}
	return RateLimit(requests, s.cfg.RateLimitWindow)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err with the status of its kind. Server-side failures
// are logged with the request id; their cause is not sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ke *KindError
	if !errors.As(err, &ke) {
		ke = Wrap("api", err)
	}
	status, code := statusOf(ke.Kind)
	if status >= http.StatusInternalServerError {
		logger.Get().Named("api").Error(r.Context(), "request failed",
			logger.String("request_id", RequestIDFrom(r.Context())),
			logger.String("op", ke.Op),
			logger.Error(ke),
		)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: ke.message(), Details: ke.Details})
}
