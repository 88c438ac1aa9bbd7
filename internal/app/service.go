// Package service wires the feature pipeline, the model and the prediction
// log into the operations served by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/okian/turnover/internal/adapters/inference"
	logqueue "github.com/okian/turnover/internal/adapters/mq/queue"
	logworker "github.com/okian/turnover/internal/adapters/mq/worker"
	"github.com/okian/turnover/internal/adapters/repository"
	"github.com/okian/turnover/internal/domain/employee"
	"github.com/okian/turnover/internal/domain/features"
	"github.com/okian/turnover/internal/domain/fusion"
	"github.com/okian/turnover/internal/domain/model"
	"github.com/okian/turnover/internal/domain/risk"
	"github.com/okian/turnover/internal/domain/types"
	"github.com/okian/turnover/pkg/logger"
	"github.com/okian/turnover/pkg/metrics"
)

const (
	defaultQueueSize   = 10000
	defaultWorkerCount = 2
	drainTimeout       = 10 * time.Second
)

// logWriter adapts a repository.Store to worker.Writer and counts outcomes.
type logWriter struct {
	store repository.Store
}

func (w *logWriter) Save(ctx context.Context, log model.PredictionLog) error { //nolint:gocritic // matches worker.Writer
	if err := w.store.Save(ctx, log); err != nil {
		metrics.RecordPredictionLog(w.store.Kind(), "error")
		return err
	}
	metrics.RecordPredictionLog(w.store.Kind(), "ok")
	return nil
}

// Service implements the API dependencies for attrition prediction.
type Service struct {
	mu sync.RWMutex

	// Core components
	params    *features.Params
	predictor inference.Predictor
	store     repository.Store
	board     *repository.RiskBoard
	logQueue  *logqueue.InMemoryQueue
	writers   *logworker.Pool

	// Configuration
	queueSize   int
	workerCount int

	// State
	started   bool
	startedAt time.Time
	served    atomic.Int64
	dropped   atomic.Int64

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithParams sets the frozen feature parameters.
func WithParams(p *features.Params) Option {
	return func(s *Service) {
		if p != nil {
			s.params = p
		}
	}
}

// WithPredictor sets the model. Without one every prediction fails with
// inference.ErrModelUnavailable.
func WithPredictor(p inference.Predictor) Option {
	return func(s *Service) {
		s.predictor = p
	}
}

// WithStore sets the prediction log store. Defaults to a MemoryStore.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithRiskBoard sets the at-risk ranking.
func WithRiskBoard(b *repository.RiskBoard) Option {
	return func(s *Service) {
		if b != nil {
			s.board = b
		}
	}
}

// WithQueueSize sets the capacity of the log queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithWorkerCount sets the number of log writers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		params:      features.Default(),
		board:       repository.NewRiskBoard(),
		queueSize:   defaultQueueSize,
		workerCount: defaultWorkerCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Start creates the log queue and starts its writers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}

	s.logQueue = logqueue.NewInMemoryQueue(logqueue.WithCapacity(s.queueSize))
	s.writers = logworker.NewPool(s.workerCount, s.logQueue, &logWriter{store: s.store})
	// Writers outlive the start context; Stop ends them.
	s.writers.Start(context.WithoutCancel(ctx))

	info := s.modelInfo()
	metrics.UpdateModelLoaded(info.Loaded)

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "prediction service started",
		logger.String("model", info.Kind),
		logger.String("model_version", info.Version),
		logger.Bool("model_loaded", info.Loaded),
		logger.String("log_store", s.store.Kind()),
		logger.Int("log_workers", s.writers.Size()),
		logger.Int("log_queue_size", s.queueSize),
		logger.Bool("strict_categories", s.params.Strict()),
	)
	return nil
}

// Stop drains pending logs until ctx expires, then closes the store.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping prediction service...")

	var errs []error
	if err := s.writers.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close log store: %w", err))
	}

	s.started = false
	s.logger.Info(ctx, "prediction service stopped",
		logger.Any("logs_written", s.writers.Processed()),
		logger.Any("logs_dropped", s.dropped.Load()),
	)
	return errors.Join(errs...)
}

// Ready reports whether predictions can be served.
func (s *Service) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started && s.modelInfo().Loaded
}

// ModelInfo describes the configured model.
func (s *Service) ModelInfo() model.ModelInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modelInfo()
}

func (s *Service) modelInfo() model.ModelInfo {
	if s.predictor == nil {
		return model.ModelInfo{Kind: "none"}
	}
	return s.predictor.Info()
}

// Features returns the engineered vector of one employee.
func (s *Service) Features(ctx context.Context, rec employee.Record) (types.FeatureVector, error) { //nolint:gocritic // records are passed by value across the API
	v, err := s.build(ctx, model.SourceSingle, rec)
	if err != nil {
		return types.FeatureVector{}, err
	}
	out := types.FeatureVector{
		Features:          make([]types.Feature, len(v.Columns)),
		UnknownCategories: v.Diagnostics.UnknownCategories,
	}
	for i, c := range v.Columns {
		out.Features[i] = types.Feature{Name: c, Value: v.Values[i]}
	}
	return out, nil
}

// Predict scores one employee and queues its log.
func (s *Service) Predict(ctx context.Context, requestID string, rec employee.Record) (types.Prediction, error) { //nolint:gocritic // records are passed by value across the API
	predictor, err := s.ready()
	if err != nil {
		return types.Prediction{}, err
	}
	v, err := s.build(ctx, model.SourceSingle, rec)
	if err != nil {
		return types.Prediction{}, err
	}

	m := &features.Matrix{Columns: v.Columns, Rows: [][]float64{v.Values}, Diagnostics: v.Diagnostics}
	outcomes, err := s.infer(ctx, predictor, model.SourceSingle, m)
	if err != nil {
		return types.Prediction{}, err
	}
	o := outcomes[0]
	level := risk.Of(o.Leave())
	metrics.RecordPrediction(string(model.SourceSingle), strconv.Itoa(o.Label), string(level))

	input, err := json.Marshal(employee.InputFrom(rec))
	if err != nil {
		s.logger.Warn(ctx, "prediction input not serialisable", logger.Error(err))
	}
	s.record(ctx, newLog(requestID, model.SourceSingle, nil, input, o, level))

	return types.Prediction{
		Prediction:   o.Label,
		Probability0: o.Stay(),
		Probability1: o.Leave(),
		RiskLevel:    string(level),
	}, nil
}

// PredictBatch joins the three extracts, scores every matched employee and
// ranks them on the risk board.
func (s *Service) PredictBatch(ctx context.Context, requestID string, survey, eval, hr *fusion.Table) (types.BatchPrediction, error) {
	start := time.Now()
	predictor, err := s.ready()
	if err != nil {
		return types.BatchPrediction{}, err
	}

	batch, err := fusion.Fuse(survey, eval, hr)
	if err != nil {
		metrics.RecordPredictionError(string(model.SourceBatch), "fusion")
		return types.BatchPrediction{}, fmt.Errorf("fuse batch: %w", err)
	}
	metrics.RecordBatchRows("survey", len(survey.Rows))
	metrics.RecordBatchRows("fused", len(batch.Rows))
	metrics.RecordBatchRows("dropped", batch.Dropped)
	if batch.Dropped > 0 {
		s.logger.Info(ctx, "batch rows without a full match dropped",
			logger.String("request_id", requestID),
			logger.Int("dropped", batch.Dropped),
		)
	}

	buildStart := time.Now()
	m, err := batch.Build(s.params)
	if err != nil {
		metrics.RecordPredictionError(string(model.SourceBatch), "features")
		return types.BatchPrediction{}, fmt.Errorf("build batch features: %w", err)
	}
	metrics.RecordFeatureLatency(float64(time.Since(buildStart).Microseconds()) / 1000)
	s.observeUnknown(ctx, model.SourceBatch, m.Diagnostics)

	out := types.BatchPrediction{Predictions: make([]types.EmployeePrediction, 0, m.Len())}
	if m.Len() == 0 {
		metrics.RecordBatchLatency(float64(time.Since(start).Microseconds()) / 1000)
		return out, nil
	}

	outcomes, err := s.infer(ctx, predictor, model.SourceBatch, m)
	if err != nil {
		return types.BatchPrediction{}, err
	}

	for i, o := range outcomes {
		id := batch.IDs[i]
		level := risk.Of(o.Leave())
		out.Summary.Add(o.Label == model.Leaves, level)
		out.Predictions = append(out.Predictions, types.EmployeePrediction{
			EmployeeID:       id,
			Prediction:       o.Label,
			ProbabilityStay:  o.Stay(),
			ProbabilityLeave: o.Leave(),
			RiskLevel:        string(level),
		})
		metrics.RecordPrediction(string(model.SourceBatch), strconv.Itoa(o.Label), string(level))
		s.board.Update(ctx, id, o.Leave(), string(level))
		s.record(ctx, newLog(requestID, model.SourceBatch, &id, rowJSON(batch.Header, batch.Rows[i]), o, level))
	}
	out.TotalEmployees = len(out.Predictions)

	metrics.RecordBatchSize(out.TotalEmployees)
	metrics.RecordBatchLatency(float64(time.Since(start).Microseconds()) / 1000)
	s.logger.Info(ctx, "batch scored",
		logger.String("request_id", requestID),
		logger.Int("employees", out.TotalEmployees),
		logger.Int("high_risk", out.Summary.HighRisk),
	)
	return out, nil
}

// AtRisk returns the n employees most likely to leave.
func (s *Service) AtRisk(ctx context.Context, n int) ([]repository.RiskEntry, error) {
	return s.board.TopN(ctx, n)
}

// EmployeeRisk returns the latest risk and rank of one employee.
func (s *Service) EmployeeRisk(ctx context.Context, employeeID int) (repository.RiskEntry, error) {
	return s.board.Rank(ctx, employeeID)
}

// RecentLogs returns up to n stored prediction logs, newest first.
func (s *Service) RecentLogs(ctx context.Context, n int) ([]model.PredictionLog, error) {
	s.mu.RLock()
	st := s.store
	s.mu.RUnlock()
	if st == nil {
		return nil, ErrNotStarted
	}
	return st.Recent(ctx, n)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	info := s.modelInfo()
	stats := map[string]any{
		"started":            s.started,
		"model_loaded":       info.Loaded,
		"model_type":         info.Kind,
		"model_version":      info.Version,
		"strict_categories":  s.params.Strict(),
		"predictions_served": s.served.Load(),
		"logs_dropped":       s.dropped.Load(),
		"employees_ranked":   s.board.Count(ctx),
		"log_queue_capacity": s.queueSize,
		"log_workers":        s.workerCount,
	}

	if s.started {
		stats["uptime_seconds"] = int64(time.Since(s.startedAt).Seconds())
		stats["log_queue_length"] = s.logQueue.Len(ctx)
		stats["logs_written"] = s.writers.Processed()
		stats["log_store"] = s.store.Kind()
		if n, err := s.store.Count(ctx); err == nil {
			stats["logs_stored"] = n
			metrics.UpdatePredictionLogsStored(n)
		}
		metrics.UpdateQueueSize(s.logQueue.Len(ctx))
		metrics.UpdateModelLoaded(info.Loaded)
	}

	return stats
}

func (s *Service) ready() (inference.Predictor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	if s.predictor == nil {
		return nil, inference.ErrModelUnavailable
	}
	return s.predictor, nil
}

func (s *Service) build(ctx context.Context, source model.Source, rec employee.Record) (features.Vector, error) { //nolint:gocritic // records are passed by value across the API
	start := time.Now()
	v, err := features.BuildFeatures(s.params, rec)
	if err != nil {
		metrics.RecordPredictionError(string(source), "features")
		return features.Vector{}, fmt.Errorf("build features: %w", err)
	}
	metrics.RecordFeatureLatency(float64(time.Since(start).Microseconds()) / 1000)
	s.observeUnknown(ctx, source, v.Diagnostics)
	return v, nil
}

func (s *Service) infer(ctx context.Context, p inference.Predictor, source model.Source, m *features.Matrix) ([]model.Outcome, error) {
	outcomes, err := p.Predict(ctx, m)
	if err != nil {
		metrics.RecordPredictionError(string(source), "inference")
		return nil, fmt.Errorf("predict: %w", err)
	}
	if len(outcomes) != m.Len() {
		metrics.RecordPredictionError(string(source), "inference")
		return nil, fmt.Errorf("predict: %d outcomes for %d rows: %w", len(outcomes), m.Len(), inference.ErrShapeMismatch)
	}
	s.served.Add(int64(len(outcomes)))
	return outcomes, nil
}

func (s *Service) observeUnknown(ctx context.Context, source model.Source, d features.Diagnostics) {
	if d.Unknown() == 0 {
		return
	}
	for field, n := range d.UnknownCategories {
		metrics.RecordUnknownCategories(field, n)
	}
	s.logger.Debug(ctx, "unknown categories encoded as zeros",
		logger.String("source", string(source)),
		logger.Any("fields", d.UnknownCategories),
	)
}

// record queues a log. A full or closed queue drops it; logging never fails
// a prediction.
func (s *Service) record(ctx context.Context, log model.PredictionLog) { //nolint:gocritic // queued by value
	s.mu.RLock()
	q := s.logQueue
	s.mu.RUnlock()
	if q == nil {
		return
	}
	if err := q.Enqueue(context.WithoutCancel(ctx), log); err != nil {
		s.dropped.Add(1)
		s.logger.Warn(ctx, "prediction log dropped",
			logger.String("request_id", log.RequestID),
			logger.Error(err),
		)
	}
}

func newLog(requestID string, source model.Source, employeeID *int, input []byte, o model.Outcome, level risk.Level) model.PredictionLog {
	return model.PredictionLog{
		ID:               uuid.New(),
		RequestID:        requestID,
		EmployeeID:       employeeID,
		Source:           source,
		Input:            input,
		Label:            o.Label,
		ProbabilityLeave: o.Leave(),
		RiskLevel:        string(level),
		Verdict:          o.Verdict(),
		CreatedAt:        time.Now().UTC(),
	}
}

func rowJSON(header, row []string) []byte {
	obj := make(map[string]string, len(header))
	for i, h := range header {
		if i < len(row) {
			obj[h] = row[i]
		}
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return nil
	}
	return b
}
