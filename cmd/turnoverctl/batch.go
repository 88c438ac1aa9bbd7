package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/okian/turnover/internal/adapters/csvtable"
	"github.com/okian/turnover/internal/adapters/inference"
	service "github.com/okian/turnover/internal/app"
	"github.com/okian/turnover/internal/domain/fusion"
	"github.com/okian/turnover/internal/domain/types"
)

type batchOptions struct {
	survey, eval, hr string
	model            string
	delimiter        string
	format           string
	params           paramsFlags
}

func newBatchCmd() *cobra.Command {
	opts := &batchOptions{}
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Score the three HR extracts offline with a local model",
		Long: `Joins the survey, evaluation and HR CSV extracts on the employee number,
scores every joined employee with a logistic model artifact and prints
the predictions followed by the risk summary.`,
		Example: "  turnoverctl batch --survey sondage.csv --eval eval.csv --hr sirh.csv --model model.json",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.survey, "survey", "", "survey extract (CSV)")
	f.StringVar(&opts.eval, "eval", "", "evaluation extract (CSV)")
	f.StringVar(&opts.hr, "hr", "", "HR extract (CSV)")
	f.StringVar(&opts.model, "model", "model/model.json", "logistic model artifact")
	f.StringVar(&opts.delimiter, "delimiter", ",", "field delimiter of the CSV files")
	f.StringVarP(&opts.format, "output", "o", "table", "output format: table or json")
	opts.params.register(cmd)
	for _, name := range []string{"survey", "eval", "hr"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func runBatch(cmd *cobra.Command, opts *batchOptions) error {
	if opts.format != "table" && opts.format != "json" {
		return fmt.Errorf("unknown output format %q", opts.format)
	}
	comma, size := utf8.DecodeRuneInString(opts.delimiter)
	if size == 0 || size != len(opts.delimiter) {
		return errors.New("delimiter must be a single character")
	}

	params, err := opts.params.load()
	if err != nil {
		return err
	}
	m, err := inference.LoadLogistic(opts.model, params)
	if err != nil {
		return err
	}

	var survey, eval, hr *fusion.Table
	var g errgroup.Group
	for _, in := range []struct {
		path, source string
		dst          **fusion.Table
	}{
		{opts.survey, fusion.SourceSurvey, &survey},
		{opts.eval, fusion.SourceEvaluation, &eval},
		{opts.hr, fusion.SourceHR, &hr},
	} {
		g.Go(func() error {
			t, err := csvtable.ReadFile(in.path, in.source, csvtable.WithComma(comma))
			if err != nil {
				return err
			}
			*in.dst = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	ctx := cmd.Context()
	svc := service.New(service.WithParams(params), service.WithPredictor(m))
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = svc.Stop(ctx) }()

	out, err := svc.PredictBatch(ctx, "turnoverctl", survey, eval, hr)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if opts.format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	renderBatch(w, out)
	return nil
}

func renderBatch(w io.Writer, out types.BatchPrediction) {
	table := newTable(w, "employee_id", "prediction", "probability_leave", "risk_level")
	for _, p := range out.Predictions {
		table.Append([]string{
			strconv.Itoa(p.EmployeeID),
			strconv.Itoa(p.Prediction),
			strconv.FormatFloat(p.ProbabilityLeave, 'f', 4, 64),
			p.RiskLevel,
		})
	}
	table.Render()

	s := out.Summary
	summary := newTable(w, "total", "stay", "leave", "high", "medium", "low")
	summary.Append([]string{
		strconv.Itoa(out.TotalEmployees),
		strconv.Itoa(s.TotalStay),
		strconv.Itoa(s.TotalLeave),
		strconv.Itoa(s.HighRisk),
		strconv.Itoa(s.MediumRisk),
		strconv.Itoa(s.LowRisk),
	})
	summary.Render()
}
