package loadgen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/turnover/internal/adapters/repository"
	"github.com/okian/turnover/internal/domain/fusion"
	"github.com/okian/turnover/internal/domain/types"
	"github.com/okian/turnover/pkg/logger"
)

// RiskEntry is one row of GET /employees/at-risk.
type RiskEntry = repository.RiskEntry

// Config drives one run.
type Config struct {
	BaseURL string
	APIKey  string
	// Predictions is the number of single POST /predict calls.
	Predictions int
	// BatchSize is the number of employees in the batch upload; 0 skips it.
	BatchSize int
	// FirstID numbers the batch employees.
	FirstID int
	Workers int
	TopN    int
	Timeout time.Duration
	Seed    int64
}

// Stats summarizes a run.
type Stats struct {
	Sent       int64
	Succeeded  int64
	Rejected   int64
	Failed     int64
	RiskLevels map[string]int64

	BatchRows     int
	BatchSummary  *types.BatchPrediction
	RankingTop    []RiskEntry
	RankingIssues []string

	Duration time.Duration
}

// ErrUnhealthy means the service answered but has no model loaded.
var ErrUnhealthy = errors.New("service unhealthy")

// Run checks health, fires single predictions concurrently, optionally
// uploads one batch and finally compares the risk ranking with the batch
// results.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.TopN < 1 {
		cfg.TopN = 10
	}
	log := logger.Get().Named("loadgen")
	client := NewClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout)
	gen := NewGenerator(cfg.Seed)
	stats := &Stats{RiskLevels: map[string]int64{}}
	start := time.Now()

	h, err := client.Health(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnhealthy, err)
	}
	log.Info(ctx, "service is healthy",
		logger.String("model_type", h.ModelType),
		logger.String("version", h.Version),
	)

	if err := runSingles(ctx, client, gen, cfg, stats); err != nil {
		return nil, err
	}

	if cfg.BatchSize > 0 {
		records, ids := gen.Employees(cfg.BatchSize, cfg.FirstID)
		survey, eval, hr := fusion.Split(records, ids)
		out, err := client.PredictBatch(ctx, survey, eval, hr)
		if err != nil {
			return nil, fmt.Errorf("batch upload: %w", err)
		}
		stats.BatchRows = out.TotalEmployees
		stats.BatchSummary = &out

		top, err := client.AtRisk(ctx, cfg.TopN)
		if err != nil {
			return nil, fmt.Errorf("at-risk ranking: %w", err)
		}
		stats.RankingTop = top
		stats.RankingIssues = VerifyRanking(out.Predictions, top)
		for _, issue := range stats.RankingIssues {
			log.Warn(ctx, "ranking mismatch", logger.String("issue", issue))
		}
	}

	stats.Duration = time.Since(start)
	log.Info(ctx, "load run finished",
		logger.Any("sent", stats.Sent),
		logger.Any("succeeded", stats.Succeeded),
		logger.Any("rejected", stats.Rejected),
		logger.Any("failed", stats.Failed),
		logger.Int("batch_rows", stats.BatchRows),
		logger.Duration("duration", stats.Duration),
	)
	return stats, nil
}

func runSingles(ctx context.Context, client *Client, gen *Generator, cfg Config, stats *Stats) error {
	// Faker is not safe for concurrent use; records are drawn up front.
	records, _ := gen.Employees(cfg.Predictions, 0)

	var (
		mu    sync.Mutex
		sent  atomic.Int64
		ok    atomic.Int64
		rej   atomic.Int64
		fails atomic.Int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i := range records {
		rec := records[i]
		g.Go(func() error {
			sent.Add(1)
			p, err := client.Predict(gctx, rec)
			var se *StatusError
			switch {
			case err == nil:
				ok.Add(1)
				mu.Lock()
				stats.RiskLevels[p.RiskLevel]++
				mu.Unlock()
			case errors.As(err, &se) && se.Status < 500:
				rej.Add(1)
			case gctx.Err() != nil:
				return gctx.Err()
			default:
				fails.Add(1)
			}
			return nil
		})
	}
	err := g.Wait()
	stats.Sent = sent.Load()
	stats.Succeeded = ok.Load()
	stats.Rejected = rej.Load()
	stats.Failed = fails.Load()
	if err != nil {
		return fmt.Errorf("single predictions: %w", err)
	}
	return nil
}
