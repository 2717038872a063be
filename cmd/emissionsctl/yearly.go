package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"emissions-platform/internal/engine"
	"emissions-platform/internal/models"
	"emissions-platform/internal/render"
)

func newYearlyCmd(opts *globalOpts) *cobra.Command {
	var (
		metric  string
		chart   string
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "yearly",
		Short: "Print the yearly series of one metric",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, ok := models.ParseMetricKey(metric)
			if !ok {
				return fmt.Errorf("unknown metric %q", metric)
			}

			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if err := loadData(ctx, a, refresh, cmd.ErrOrStderr()); err != nil {
				return err
			}

			view, err := a.Summary.YearlySeries(ctx, key)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintf(tw, "YEAR\t%s\t\n", strings.ToUpper(key.Label()))
			for i, rec := range view.Series {
				fmt.Fprintf(tw, "%s\t%s\t\n", rec.Year, view.Labels[i])
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			if view.Domain != nil {
				fmt.Fprintf(out, "axis %.2f .. %.2f\n", view.Domain.Lower, view.Domain.Upper)
			}

			if chart != "" {
				return writeChart(chart, view.Series, key)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metric, "metric", string(models.MetricTotalEmission), "Metric: total_emission, fuel_emission, electricity_emission, methane_emission")
	cmd.Flags().StringVar(&chart, "chart", "", "Also write a bar chart to this .svg or .png file")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Ingest the datasets before reading")

	return cmd
}

func writeChart(path string, series engine.Series, key models.MetricKey) error {
	format, err := render.ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	if err := render.YearlyChart(f, series, key, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
