package main

import (
	"fmt"
	"io"

	"github.com/okian/turnover/internal/domain/features"
	"github.com/okian/turnover/pkg/logger"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "turnoverctl",
		Short:         "Employee attrition tooling",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(
				logger.WithFormat(logger.Format(opts.logFormat)),
				logger.WithOutput(cmd.ErrOrStderr()),
			); err != nil {
				return err
			}
			return logger.SetLevelString(opts.logLevel)
		},
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")

	cmd.AddCommand(newFeaturesCmd(), newBatchCmd(), newLoadgenCmd())
	return cmd
}

// paramsFlags selects the feature layout shared by features and batch.
type paramsFlags struct {
	file   string
	strict bool
}

func (p *paramsFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.file, "params", "", "scaler statistics YAML (defaults to the built-in training statistics)")
	cmd.Flags().BoolVar(&p.strict, "strict", false, "reject categories outside the training vocabularies")
}

func (p *paramsFlags) load() (*features.Params, error) {
	opt := features.WithStrictCategories(p.strict)
	var (
		params *features.Params
		err    error
	)
	if p.file != "" {
		params, err = features.LoadParams(p.file, opt)
	} else {
		params, err = features.New(opt)
	}
	if err != nil {
		return nil, fmt.Errorf("feature params: %w", err)
	}
	return params, nil
}

// newTable keeps headers and cells verbatim: feature names contain spaces and
// underscores that must print unchanged.
func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	return table
}
