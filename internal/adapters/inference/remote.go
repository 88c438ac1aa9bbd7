package inference

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/okian/turnover/internal/domain/features"
	"github.com/okian/turnover/internal/domain/model"
	"github.com/okian/turnover/pkg/logger"
	"github.com/okian/turnover/pkg/metrics"
)

// KindRemote names the HTTP-backed model.
const KindRemote = "remote"

const (
	defaultRemoteTimeout = 10 * time.Second
	defaultTripAfter     = 5
	defaultCooldown      = 30 * time.Second
	maxResponseBytes     = 32 << 20
)

type remoteRequest struct {
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

type remotePrediction struct {
	Label         int       `json:"label"`
	Probabilities []float64 `json:"probabilities"`
}

type remoteResponse struct {
	Version     string             `json:"version,omitempty"`
	Predictions []remotePrediction `json:"predictions"`
}

// RemoteModel posts feature matrices to an inference service. Calls go
// through a circuit breaker; while it is open Predict fails fast with
// ErrModelUnavailable.
type RemoteModel struct {
	url       string
	client    *http.Client
	timeout   time.Duration
	tripAfter uint32
	cooldown  time.Duration
	cb        *gobreaker.CircuitBreaker[[]model.Outcome]
	logger    logger.Logger

	mu      sync.RWMutex
	version string
}

// RemoteOption configures a RemoteModel.
type RemoteOption func(*RemoteModel)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *RemoteModel) {
		if c != nil {
			r.client = c
		}
	}
}

// WithTimeout bounds one inference call.
func WithTimeout(d time.Duration) RemoteOption {
	return func(r *RemoteModel) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithBreaker sets how many consecutive failures open the breaker and how
// long it stays open.
func WithBreaker(tripAfter uint32, cooldown time.Duration) RemoteOption {
	return func(r *RemoteModel) {
		if tripAfter > 0 {
			r.tripAfter = tripAfter
		}
		if cooldown > 0 {
			r.cooldown = cooldown
		}
	}
}

// WithRemoteLogger sets the logger used for breaker transitions.
func WithRemoteLogger(l logger.Logger) RemoteOption {
	return func(r *RemoteModel) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRemote builds a client for the inference service at url.
func NewRemote(url string, opts ...RemoteOption) *RemoteModel {
	r := &RemoteModel{
		url:       url,
		client:    &http.Client{},
		timeout:   defaultRemoteTimeout,
		tripAfter: defaultTripAfter,
		cooldown:  defaultCooldown,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get().Named("inference")
	}

	const name = "model"
	metrics.UpdateBreakerState(name, 0)
	r.cb = gobreaker.NewCircuitBreaker[[]model.Outcome](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     r.cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= r.tripAfter
		},
		// A cancelled caller says nothing about the service.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.logger.Warn(context.Background(), "circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
			metrics.UpdateBreakerState(name, breakerGauge(to))
		},
	})
	return r
}

func breakerGauge(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Info implements Predictor.
func (r *RemoteModel) Info() model.ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return model.ModelInfo{
		Loaded:  r.cb.State() != gobreaker.StateOpen,
		Kind:    KindRemote,
		Version: r.version,
	}
}

// Predict implements Predictor.
func (r *RemoteModel) Predict(ctx context.Context, x *features.Matrix) ([]model.Outcome, error) {
	start := time.Now()
	out, err := r.cb.Execute(func() ([]model.Outcome, error) {
		return r.call(ctx, x)
	})
	metrics.RecordInference(KindRemote, float64(time.Since(start).Microseconds())/1000, err)

	switch {
	case err == nil:
		metrics.RecordBreakerRequest(r.cb.Name(), "success")
		return out, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordBreakerRequest(r.cb.Name(), "rejected")
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	default:
		metrics.RecordBreakerRequest(r.cb.Name(), "failure")
		return nil, err
	}
}

func (r *RemoteModel) call(ctx context.Context, x *features.Matrix) ([]model.Outcome, error) {
	body, err := json.Marshal(remoteRequest{Columns: x.Columns, Rows: x.Rows})
	if err != nil {
		return nil, fmt.Errorf("encode inference request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrModelUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: inference service returned %d", ErrModelUnavailable, resp.StatusCode)
	}

	var decoded remoteResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrModelUnavailable, err)
	}
	if len(decoded.Predictions) != len(x.Rows) {
		return nil, fmt.Errorf("%w: %d predictions for %d rows", ErrShapeMismatch, len(decoded.Predictions), len(x.Rows))
	}
	if decoded.Version != "" {
		r.mu.Lock()
		r.version = decoded.Version
		r.mu.Unlock()
	}

	out := make([]model.Outcome, len(decoded.Predictions))
	for i, p := range decoded.Predictions {
		if len(p.Probabilities) != 2 || (p.Label != model.Stays && p.Label != model.Leaves) {
			return nil, fmt.Errorf("%w: prediction %d is malformed", ErrShapeMismatch, i)
		}
		out[i] = model.Outcome{Label: p.Label, Probabilities: [2]float64{p.Probabilities[0], p.Probabilities[1]}}
	}
	return out, nil
}
