package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	service "github.com/okian/turnover/internal/app"
	"github.com/okian/turnover/internal/domain/employee"
	"github.com/okian/turnover/internal/domain/types"
	"github.com/okian/turnover/internal/validation"
)

func newFeaturesCmd() *cobra.Command {
	var (
		input  string
		params paramsFlags
	)
	cmd := &cobra.Command{
		Use:   "features",
		Short: "Print the model inputs built for one employee",
		Long: `Reads one employee in the POST /predict JSON form and prints the
feature vector the model receives, one row per column.`,
		Example: "  turnoverctl features --input employee.json\n  cat employee.json | turnoverctl features",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var r io.Reader = cmd.InOrStdin()
			if input != "" && input != "-" {
				f, err := os.Open(input)
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			rec, err := readEmployee(r)
			if err != nil {
				return err
			}

			p, err := params.load()
			if err != nil {
				return err
			}
			svc := service.New(service.WithParams(p))
			fv, err := svc.Features(cmd.Context(), rec)
			if err != nil {
				return err
			}
			renderFeatures(cmd.OutOrStdout(), fv)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "employee JSON file, - for stdin")
	params.register(cmd)
	return cmd
}

func readEmployee(r io.Reader) (employee.Record, error) {
	var in employee.Input
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return employee.Record{}, fmt.Errorf("decode employee: %w", err)
	}
	if err := validation.Struct(&in); err != nil {
		return employee.Record{}, err
	}
	return in.Record(), nil
}

func renderFeatures(w io.Writer, fv types.FeatureVector) {
	table := newTable(w, "#", "feature", "value")
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for i, f := range fv.Features {
		table.Append([]string{strconv.Itoa(i), f.Name, strconv.FormatFloat(f.Value, 'f', 6, 64)})
	}
	table.Render()

	if len(fv.UnknownCategories) == 0 {
		return
	}
	fields := make([]string, 0, len(fv.UnknownCategories))
	for f := range fv.UnknownCategories {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(w, "unknown category in %s (%d)\n", f, fv.UnknownCategories[f])
	}
}
