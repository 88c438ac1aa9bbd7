package main

import (
	"fmt"
	"io"
	"runtime"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/turnover/internal/loadgen"
)

func newLoadgenCmd() *cobra.Command {
	cfg := loadgen.Config{}
	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Send synthetic employees to a running service",
		Long: `Generates employees with faker, posts them concurrently to /predict,
uploads one batch built from the same generator and checks that
/employees/at-risk ranks the batch the way it was scored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := loadgen.Run(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			renderLoadStats(cmd.OutOrStdout(), stats)
			if n := len(stats.RankingIssues); n > 0 {
				return fmt.Errorf("ranking check found %d issue(s)", n)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:8000", "base URL of the service")
	f.StringVar(&cfg.APIKey, "api-key", "", "value of the X-API-Key header")
	f.IntVar(&cfg.Predictions, "predictions", 1000, "number of single predictions")
	f.IntVar(&cfg.BatchSize, "batch", 200, "employees in the batch upload, 0 to skip")
	f.IntVar(&cfg.FirstID, "first-id", 1, "employee number of the first batch row")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*2, "concurrent requests")
	f.IntVar(&cfg.TopN, "top", 50, "at-risk entries to fetch for the ranking check")
	f.DurationVar(&cfg.Timeout, "timeout", 30*time.Second, "HTTP request timeout")
	f.Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "generator seed")
	return cmd
}

func renderLoadStats(w io.Writer, s *loadgen.Stats) {
	table := newTable(w, "metric", "value")
	rps := 0.0
	if s.Duration > 0 {
		rps = float64(s.Sent) / s.Duration.Seconds()
	}
	table.AppendBulk([][]string{
		{"sent", strconv.FormatInt(s.Sent, 10)},
		{"succeeded", strconv.FormatInt(s.Succeeded, 10)},
		{"rejected", strconv.FormatInt(s.Rejected, 10)},
		{"failed", strconv.FormatInt(s.Failed, 10)},
		{"requests/s", strconv.FormatFloat(rps, 'f', 1, 64)},
		{"batch rows", strconv.Itoa(s.BatchRows)},
		{"ranking issues", strconv.Itoa(len(s.RankingIssues))},
		{"duration", s.Duration.Round(time.Millisecond).String()},
	})
	levels := make([]string, 0, len(s.RiskLevels))
	for l := range s.RiskLevels {
		levels = append(levels, l)
	}
	sort.Strings(levels)
	for _, l := range levels {
		table.Append([]string{"risk " + l, strconv.FormatInt(s.RiskLevels[l], 10)})
	}
	table.Render()

	if s.BatchSummary != nil {
		renderBatch(w, *s.BatchSummary)
	}
}
